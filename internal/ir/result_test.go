package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecutorResultSortedViews(t *testing.T) {
	r := NewExecutorResult().
		Create(NewResource("b", TypePimClass)).
		Create(NewResource("a", TypePimClass)).
		Change(NewResource("s", TypePimSchema)).
		Delete("z").
		Delete("c").
		Delete("z")

	assert.True(t, r.OK())
	assert.Equal(t, []string{"a", "b"}, r.CreatedIRIs())
	assert.Equal(t, []string{"s"}, r.ChangedIRIs())
	assert.Equal(t, []string{"c", "z"}, r.DeletedIRIs())
	assert.Equal(t, []string{"a", "b", "c", "s", "z"}, r.Touched())
}

func TestFailedResult(t *testing.T) {
	r := Failed(NewMissingResource("x"))
	assert.False(t, r.OK())
	assert.Empty(t, r.Touched())
}
