package harness

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mff-uk/dataspecer-sub018/internal/compiler"
	"github.com/mff-uk/dataspecer-sub018/internal/federated"
	"github.com/mff-uk/dataspecer-sub018/internal/memstore"
)

func memoryStores(context.Context) (federated.WritableBackend, error) {
	return memstore.New(memstore.WithGenerator(memstore.NewCounterGenerator)), nil
}

func compileSteps(t *testing.T, src string) *compiler.Script {
	t.Helper()
	script, err := compiler.Compile(&compiler.RawScript{Name: t.Name(), Steps: mustDecodeSteps(t, src)})
	require.NoError(t, err)
	return script
}

func TestRunnerRoutesStepsBySchema(t *testing.T) {
	ctx := context.Background()
	fed := federated.New()
	defer fed.Close()

	script := compileSteps(t, `
- op: pim-create-schema
  args: {pimBaseIri: "https://example.com/m"}
  as: pim
- op: pim-create-class
  args: {pimTechnicalLabel: person}
- op: psm-create-schema
  args: {dataPsmBaseIri: "https://example.com/s"}
  as: psm
- op: psm-create-class
  args: {dataPsmTechnicalLabel: person}
  as: psmPerson
- op: pim-create-class
  schema: $pim
  args: {pimTechnicalLabel: address}
  as: address
`)
	res := NewResult()
	require.NoError(t, NewRunner(fed, memoryStores, nil).Execute(ctx, script, res))

	assert.Equal(t, []string{"https://example.com/m/schema/1", "https://example.com/s/schema/1"}, res.Schemas)
	assert.Equal(t, "https://example.com/s/class/3", res.Bindings["psmPerson"])
	assert.Equal(t, "https://example.com/m/class/5", res.Bindings["address"])

	owner, err := fed.GetSchemaForResource(ctx, res.Bindings["address"])
	require.NoError(t, err)
	assert.Equal(t, res.Bindings["pim"], owner)

	owner, err = fed.GetSchemaForResource(ctx, res.Bindings["psmPerson"])
	require.NoError(t, err)
	assert.Equal(t, res.Bindings["psm"], owner)
}

func TestRunnerNoTargetSchema(t *testing.T) {
	fed := federated.New()
	defer fed.Close()

	script := compileSteps(t, `
- op: pim-create-class
  args: {pimTechnicalLabel: orphan}
`)
	err := NewRunner(fed, memoryStores, nil).Execute(context.Background(), script, NewResult())
	require.ErrorIs(t, err, ErrNoTargetSchema)
	assert.Contains(t, err.Error(), "steps[0] pim-create-class")
}

func TestRunnerFactoryError(t *testing.T) {
	fed := federated.New()
	defer fed.Close()

	boom := errors.New("disk full")
	failing := func(context.Context) (federated.WritableBackend, error) { return nil, boom }

	script := compileSteps(t, `
- op: pim-create-schema
  args: {pimBaseIri: "https://example.com/m"}
`)
	err := NewRunner(fed, failing, nil).Execute(context.Background(), script, NewResult())
	require.ErrorIs(t, err, boom)
	assert.Empty(t, fed.Stores())
}

func TestRunnerSchemaWithoutBaseDoesNotJoin(t *testing.T) {
	fed := federated.New()
	defer fed.Close()

	script := compileSteps(t, `
- op: pim-create-schema
  args: {pimBaseIri: ""}
`)
	res := NewResult()
	err := NewRunner(fed, memoryStores, nil).Execute(context.Background(), script, res)
	require.ErrorIs(t, err, memstore.ErrFirstOperationNotSchema)
	assert.Empty(t, fed.Stores())
	assert.Empty(t, res.Schemas)
	assert.Empty(t, res.Trace)
}

func TestRunnerNotifiesSubscribers(t *testing.T) {
	fed := federated.New()
	defer fed.Close()

	const person = "https://example.com/m/class/3"
	var (
		mu     sync.Mutex
		states []federated.State
	)
	fed.Subscribe(person, func(u federated.Update) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, u.State)
	})

	script := compileSteps(t, `
- op: pim-create-schema
  args: {pimBaseIri: "https://example.com/m"}
- op: pim-create-class
  args: {pimTechnicalLabel: person}
`)
	require.NoError(t, NewRunner(fed, memoryStores, nil).Execute(context.Background(), script, NewResult()))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) > 0 && states[len(states)-1] == federated.StateReady
	}, time.Second, time.Millisecond)
}
