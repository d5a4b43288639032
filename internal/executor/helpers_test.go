package executor

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

// testStore is a minimal in-memory reader that installs successful results,
// enough to drive executors through multi-step scenarios.
type testStore struct {
	resources map[string]*ir.Resource
	next      int
	registry  *Registry
}

func newTestStore() *testStore {
	return &testStore{resources: map[string]*ir.Resource{}, registry: Default()}
}

func (s *testStore) ReadResource(_ context.Context, iri string) (*ir.Resource, error) {
	return s.resources[iri], nil
}

func (s *testStore) ListResources(context.Context) ([]string, error) {
	return slices.Sorted(maps.Keys(s.resources)), nil
}

func (s *testStore) NewIRI(kind string) string {
	s.next++
	return fmt.Sprintf("https://example.com/%s/%d", kind, s.next)
}

func (s *testStore) apply(t *testing.T, op ir.Operation) *ir.ExecutorResult {
	t.Helper()
	res, err := s.registry.Execute(context.Background(), s, s, op)
	require.NoError(t, err)
	if res.OK() {
		for iri, r := range res.Created {
			s.resources[iri] = r
		}
		for iri, r := range res.Changed {
			s.resources[iri] = r
		}
		for _, iri := range res.Deleted {
			delete(s.resources, iri)
		}
	}
	return res
}

// mustApply applies op and fails the test on a failed result.
func (s *testStore) mustApply(t *testing.T, op ir.Operation) *ir.ExecutorResult {
	t.Helper()
	res := s.apply(t, op)
	require.Nil(t, res.Failure, "unexpected failure: %v", res.Failure)
	return res
}

// create applies a creating operation and returns the new IRI.
func (s *testStore) create(t *testing.T, op ir.Operation) string {
	t.Helper()
	created, ok := s.mustApply(t, op).Result.(ir.CreatedResult)
	require.True(t, ok)
	return created.IRI
}

func (s *testStore) get(t *testing.T, iri string) *ir.Resource {
	t.Helper()
	res, ok := s.resources[iri]
	require.True(t, ok, "resource %s not found", iri)
	return res
}

// snapshot returns a shallow copy of the resource set for before/after
// comparisons.
func (s *testStore) snapshot() map[string]*ir.Resource {
	return maps.Clone(s.resources)
}

func requireFailure(t *testing.T, res *ir.ExecutorResult, code ir.FailureCode) {
	t.Helper()
	require.NotNil(t, res.Failure, "expected %s failure", code)
	require.Equal(t, code, res.Failure.Code, res.Failure.Message)
}

func ptr[T any](v T) *T { return &v }
