package store

import (
	"context"
	"fmt"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
	"github.com/mff-uk/dataspecer-sub018/internal/queryir"
	"github.com/mff-uk/dataspecer-sub018/internal/querysql"
)

// Match is a resource found by a query, with its owning schema.
type Match struct {
	Schema   string
	Resource *ir.Resource
}

// Find returns the stored resources matching q, ordered by schema IRI and
// then resource IRI.
func (s *Store) Find(ctx context.Context, q queryir.Query) ([]Match, error) {
	query, params, err := querysql.Compile(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("find resources: %w", err)
	}
	defer rows.Close()

	matches := []Match{}
	for rows.Next() {
		var schema, body string
		if err := rows.Scan(&schema, &body); err != nil {
			return nil, fmt.Errorf("find resources: scan: %w", err)
		}
		r, err := unmarshalResource(body)
		if err != nil {
			return nil, fmt.Errorf("find resources: %w", err)
		}
		matches = append(matches, Match{Schema: schema, Resource: r})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find resources: iterate: %w", err)
	}
	return matches, nil
}
