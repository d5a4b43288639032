package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
	"github.com/mff-uk/dataspecer-sub018/internal/memstore"
)

// ErrNotFound is returned when nothing is stored for a schema IRI.
var ErrNotFound = errors.New("schema not stored")

// ListSchemas returns the IRIs of every stored schema, sorted.
func (s *Store) ListSchemas(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT schema_iri FROM schemas
		ORDER BY schema_iri COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	defer rows.Close()

	iris := []string{}
	for rows.Next() {
		var iri string
		if err := rows.Scan(&iri); err != nil {
			return nil, fmt.Errorf("scan schema: %w", err)
		}
		iris = append(iris, iri)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schemas: %w", err)
	}
	return iris, nil
}

// LoadEnvelope reads everything stored for schemaIRI.
// Returns ErrNotFound if the schema is not stored.
func (s *Store) LoadEnvelope(ctx context.Context, schemaIRI string) (*memstore.Envelope, error) {
	env := &memstore.Envelope{Resources: map[string]*ir.Resource{}}

	err := s.db.QueryRowContext(ctx, `
		SELECT base_iri FROM schemas WHERE schema_iri = ?
	`, schemaIRI).Scan(&env.BaseIRI)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load envelope %s: %w", schemaIRI, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load envelope %s: %w", schemaIRI, err)
	}

	if env.Operations, err = s.ReadOperations(ctx, schemaIRI); err != nil {
		return nil, fmt.Errorf("load envelope %s: %w", schemaIRI, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM resources
		WHERE schema_iri = ?
		ORDER BY iri COLLATE BINARY ASC
	`, schemaIRI)
	if err != nil {
		return nil, fmt.Errorf("load envelope %s: query resources: %w", schemaIRI, err)
	}
	defer rows.Close()
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("load envelope %s: scan resource: %w", schemaIRI, err)
		}
		r, err := unmarshalResource(body)
		if err != nil {
			return nil, fmt.Errorf("load envelope %s: %w", schemaIRI, err)
		}
		env.Resources[r.IRI] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load envelope %s: iterate resources: %w", schemaIRI, err)
	}
	return env, nil
}

// LoadBundle reads every stored schema in ListSchemas order.
func (s *Store) LoadBundle(ctx context.Context) (*memstore.Bundle, error) {
	schemas, err := s.ListSchemas(ctx)
	if err != nil {
		return nil, err
	}
	bundle := &memstore.Bundle{Stores: make([]*memstore.Envelope, 0, len(schemas))}
	for _, iri := range schemas {
		env, err := s.LoadEnvelope(ctx, iri)
		if err != nil {
			return nil, err
		}
		bundle.Stores = append(bundle.Stores, env)
	}
	return bundle, nil
}

// ReadOperations returns the operation log of schemaIRI ordered by seq.
// Returns an empty list for an unknown schema.
func (s *Store) ReadOperations(ctx context.Context, schemaIRI string) (ir.OperationList, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM operations
		WHERE schema_iri = ?
		ORDER BY seq ASC
	`, schemaIRI)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	ops := ir.OperationList{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		op, err := unmarshalOperation(body)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return ops, nil
}

// LocateResource returns the schema IRI storing iri and the resource digest.
// Returns ErrNotFound if no schema stores it.
func (s *Store) LocateResource(ctx context.Context, iri string) (schemaIRI, digest string, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT schema_iri, digest FROM resources
		WHERE iri = ?
		ORDER BY schema_iri COLLATE BINARY ASC
		LIMIT 1
	`, iri).Scan(&schemaIRI, &digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", fmt.Errorf("locate %s: %w", iri, ErrNotFound)
	}
	if err != nil {
		return "", "", fmt.Errorf("locate %s: %w", iri, err)
	}
	return schemaIRI, digest, nil
}
