package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
	"github.com/mff-uk/dataspecer-sub018/internal/memstore"
)

// SaveEnvelope replaces everything stored for the envelope's schema with the
// envelope's contents in a single transaction.
func (s *Store) SaveEnvelope(ctx context.Context, env *memstore.Envelope) error {
	if err := env.Validate(); err != nil {
		return fmt.Errorf("save envelope: %w", err)
	}
	schemaIRI := env.SchemaIRI()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save envelope: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// ON DELETE CASCADE clears the log and resources of a previous save.
	if _, err := tx.ExecContext(ctx, `DELETE FROM schemas WHERE schema_iri = ?`, schemaIRI); err != nil {
		return fmt.Errorf("save envelope: clear %s: %w", schemaIRI, err)
	}
	if err := upsertSchema(ctx, tx, schemaIRI, env.BaseIRI); err != nil {
		return fmt.Errorf("save envelope: %w", err)
	}
	for i, op := range env.Operations {
		if err := insertOperation(ctx, tx, schemaIRI, int64(i+1), op); err != nil {
			return fmt.Errorf("save envelope: %w", err)
		}
	}
	for _, r := range env.Resources {
		if err := upsertResource(ctx, tx, schemaIRI, r); err != nil {
			return fmt.Errorf("save envelope: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save envelope: commit: %w", err)
	}
	return nil
}

// AppendChange records one applied change: the stamped operation at change.Seq,
// an upsert for every created or changed resource and a delete for every
// deleted one. All writes share one transaction.
func (s *Store) AppendChange(ctx context.Context, schemaIRI, baseIRI string, change *memstore.Change) error {
	if !change.OK() {
		return fmt.Errorf("append change: refused operations are not persisted")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append change: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := upsertSchema(ctx, tx, schemaIRI, baseIRI); err != nil {
		return fmt.Errorf("append change: %w", err)
	}
	if err := insertOperation(ctx, tx, schemaIRI, change.Seq, change.Operation); err != nil {
		return fmt.Errorf("append change: %w", err)
	}
	for _, iri := range slices.Concat(change.Created, change.Changed) {
		if err := upsertResource(ctx, tx, schemaIRI, change.Resources[iri]); err != nil {
			return fmt.Errorf("append change: %w", err)
		}
	}
	for _, iri := range change.Deleted {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM resources WHERE schema_iri = ? AND iri = ?
		`, schemaIRI, iri); err != nil {
			return fmt.Errorf("append change: delete %s: %w", iri, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append change: commit: %w", err)
	}
	return nil
}

// DeleteEnvelope removes a schema with its log and resources. Returns false
// if nothing was stored for schemaIRI.
func (s *Store) DeleteEnvelope(ctx context.Context, schemaIRI string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM schemas WHERE schema_iri = ?`, schemaIRI)
	if err != nil {
		return false, fmt.Errorf("delete envelope: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete envelope: rows affected: %w", err)
	}
	return n > 0, nil
}

func upsertSchema(ctx context.Context, tx *sql.Tx, schemaIRI, baseIRI string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO schemas (schema_iri, base_iri)
		VALUES (?, ?)
		ON CONFLICT(schema_iri) DO UPDATE SET base_iri = excluded.base_iri
	`, schemaIRI, baseIRI)
	if err != nil {
		return fmt.Errorf("write schema %s: %w", schemaIRI, err)
	}
	return nil
}

func insertOperation(ctx context.Context, tx *sql.Tx, schemaIRI string, seq int64, op ir.Operation) error {
	body, err := marshalOperation(op)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO operations (schema_iri, seq, iri, kind, body)
		VALUES (?, ?, ?, ?, ?)
	`, schemaIRI, seq, op.Header().IRI, op.Kind().String(), body)
	if err != nil {
		return fmt.Errorf("write operation %s: %w", op.Header().IRI, err)
	}
	return nil
}

func upsertResource(ctx context.Context, tx *sql.Tx, schemaIRI string, r *ir.Resource) error {
	body, digest, err := marshalResource(r)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO resources (schema_iri, iri, body, digest)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(schema_iri, iri) DO UPDATE SET body = excluded.body, digest = excluded.digest
	`, schemaIRI, r.IRI, body, digest)
	if err != nil {
		return fmt.Errorf("write resource %s: %w", r.IRI, err)
	}
	return nil
}
