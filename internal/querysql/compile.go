// Package querysql compiles resource queries to parameterized SQLite over the
// resources table of package store.
package querysql

import (
	"fmt"
	"strings"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
	"github.com/mff-uk/dataspecer-sub018/internal/queryir"
)

// Every compiled query selects these columns, in this order.
const selectClause = "SELECT schema_iri, body FROM resources"

// Results are ordered by schema, then resource IRI.
const orderClause = " ORDER BY schema_iri COLLATE BINARY ASC, iri COLLATE BINARY ASC"

// Compile converts q to SQL and its parameters. q is validated first.
//
// Values are always passed as parameters, never interpolated. Field names
// reach the SQL only inside JSON path parameters.
func Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	var params []any
	sb.WriteString(selectClause)
	if q.Filter != nil {
		where, whereParams := compilePredicate(q.Filter)
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
		params = whereParams
	}
	sb.WriteString(orderClause)
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}
	return sb.String(), params, nil
}

// compilePredicate compiles a validated predicate to a WHERE fragment.
func compilePredicate(p queryir.Predicate) (string, []any) {
	switch pred := p.(type) {
	case queryir.Equals:
		return compileEquals(pred)
	case queryir.Contains:
		return compileContains(jsonPath(pred.Field), pred.Value)
	case queryir.HasType:
		return compileContains("$.types", pred.Type)
	case queryir.InSchema:
		return "schema_iri = ?", []any{pred.IRI}
	case queryir.And:
		return compileAnd(pred)
	}
	// Unreachable for validated queries.
	return "0 = 1", nil
}

// compileEquals compares the JSON type as well as the value, so that the
// string "1" never equals the number 1.
func compileEquals(eq queryir.Equals) (string, []any) {
	if eq.Field == queryir.FieldIRI {
		return "iri = ?", []any{string(eq.Value.(ir.String))}
	}
	path := jsonPath(eq.Field)
	switch val := eq.Value.(type) {
	case ir.Null:
		return "json_extract(body, ?) IS NULL", []any{path}
	case ir.Bool:
		if val {
			return "json_type(body, ?) = 'true'", []any{path}
		}
		return "json_type(body, ?) = 'false'", []any{path}
	case ir.Number:
		n, _ := val.Int64()
		return "(json_type(body, ?) = 'integer' AND json_extract(body, ?) = ?)", []any{path, path, n}
	case ir.String:
		return "(json_type(body, ?) = 'text' AND json_extract(body, ?) = ?)", []any{path, path, string(val)}
	}
	return "0 = 1", nil
}

func compileContains(path, value string) (string, []any) {
	sql := "(json_type(body, ?) = 'array' AND EXISTS (" +
		"SELECT 1 FROM json_each(resources.body, ?) AS item " +
		"WHERE item.type = 'text' AND item.value = ?))"
	return sql, []any{path, path, value}
}

func compileAnd(and queryir.And) (string, []any) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil
	}
	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams := compilePredicate(pred)
		parts = append(parts, sql)
		params = append(params, predParams...)
	}
	return "(" + strings.Join(parts, " AND ") + ")", params
}

// jsonPath addresses a top-level field. Validated field names never contain
// a quote.
func jsonPath(field string) string {
	return fmt.Sprintf(`$."%s"`, field)
}
