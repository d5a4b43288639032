package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
	"github.com/mff-uk/dataspecer-sub018/internal/memstore"
)

// createTestStore opens a fresh database in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestMemory builds a PIM store with a class, two attributes and an
// association.
func createTestMemory(t *testing.T, opts ...memstore.Option) *memstore.MemoryStore {
	t.Helper()
	ctx := context.Background()
	ms := memstore.New(opts...)
	apply := func(op ir.Operation) *memstore.Change {
		c, err := ms.ApplyOperation(ctx, op)
		require.NoError(t, err)
		require.True(t, c.OK(), "failure: %v", c.Failure)
		return c
	}
	apply(&ir.PimCreateSchema{PimBaseIRI: "https://example.com/model", PimHumanLabel: ir.LanguageString{"en": "Model"}})
	person := apply(&ir.PimCreateClass{PimTechnicalLabel: "person"}).Result.(ir.CreatedResult).IRI
	place := apply(&ir.PimCreateClass{PimTechnicalLabel: "place"}).Result.(ir.CreatedResult).IRI
	apply(&ir.PimCreateAttribute{PimOwnerClass: person, PimDatatype: "xsd:string"})
	apply(&ir.PimCreateAttribute{PimOwnerClass: place})
	apply(&ir.PimCreateAssociation{PimAssociationEnds: []string{person, place}})
	return ms
}

func digest(t *testing.T, env *memstore.Envelope) string {
	t.Helper()
	d, err := env.Digest()
	require.NoError(t, err)
	return d
}

func TestOpenCreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)

	for _, table := range []string{"schemas", "operations", "resources"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "open %d", i)
		s.Close()
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "1", pragma(t, s, "user_version"))

	var index string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_resources_iri'",
	).Scan(&index)
	assert.NoError(t, err)
}

func TestOpenRefusesNewerLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 2")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.ErrorIs(t, err, ErrNewerLayout)
	assert.Contains(t, err.Error(), "version 2, supported 1")
}

// pragma reads a pragma value as text.
func pragma(t *testing.T, s *Store, name string) string {
	t.Helper()
	var value string
	require.NoError(t, s.db.QueryRow("PRAGMA "+name).Scan(&value))
	return value
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)
	assert.Equal(t, "wal", pragma(t, s, "journal_mode"))
	assert.Equal(t, "1", pragma(t, s, "synchronous"))
	assert.Equal(t, "1", pragma(t, s, "foreign_keys"))
	assert.Equal(t, "5000", pragma(t, s, "busy_timeout"))
}

func TestInMemoryDatabaseIsShared(t *testing.T) {
	ctx := context.Background()
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	env, err := createTestMemory(t).Export()
	require.NoError(t, err)
	require.NoError(t, s.SaveEnvelope(ctx, env))

	schemas, err := s.ListSchemas(ctx)
	require.NoError(t, err)
	assert.Len(t, schemas, 1)
}

func TestSaveLoadEnvelope(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	ms := createTestMemory(t)
	env, err := ms.Export()
	require.NoError(t, err)

	require.NoError(t, s.SaveEnvelope(ctx, env))
	// Saving again replaces rather than duplicates.
	require.NoError(t, s.SaveEnvelope(ctx, env))

	loaded, err := s.LoadEnvelope(ctx, ms.SchemaIRI())
	require.NoError(t, err)
	require.NoError(t, loaded.Validate())
	assert.Equal(t, digest(t, env), digest(t, loaded))

	schemas, err := s.ListSchemas(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{ms.SchemaIRI()}, schemas)

	bundle, err := s.LoadBundle(ctx)
	require.NoError(t, err)
	require.Len(t, bundle.Stores, 1)
}

func TestLoadUnknownSchema(t *testing.T) {
	s := createTestStore(t)
	_, err := s.LoadEnvelope(context.Background(), "https://example.com/none")
	assert.ErrorIs(t, err, ErrNotFound)

	ops, err := s.ReadOperations(context.Background(), "https://example.com/none")
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestDeleteEnvelopeCascades(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	ms := createTestMemory(t)
	env, err := ms.Export()
	require.NoError(t, err)
	require.NoError(t, s.SaveEnvelope(ctx, env))

	deleted, err := s.DeleteEnvelope(ctx, ms.SchemaIRI())
	require.NoError(t, err)
	assert.True(t, deleted)

	for _, table := range []string{"operations", "resources"} {
		var n int
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, table)
	}

	deleted, err = s.DeleteEnvelope(ctx, ms.SchemaIRI())
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestLocateResource(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	ms := createTestMemory(t)
	env, err := ms.Export()
	require.NoError(t, err)
	require.NoError(t, s.SaveEnvelope(ctx, env))

	schema, d, err := s.LocateResource(ctx, "https://example.com/model/class/3")
	require.NoError(t, err)
	assert.Equal(t, ms.SchemaIRI(), schema)
	assert.Equal(t, ir.MustResourceDigest(env.Resources["https://example.com/model/class/3"]), d)

	_, _, err = s.LocateResource(ctx, "https://example.com/none")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRejectsInvalidEnvelope(t *testing.T) {
	s := createTestStore(t)
	err := s.SaveEnvelope(context.Background(), &memstore.Envelope{})
	assert.Error(t, err)
}
