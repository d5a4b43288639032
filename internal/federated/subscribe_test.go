package federated

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
	"github.com/mff-uk/dataspecer-sub018/internal/memstore"
)

func TestSubscribeResolvesInitialValue(t *testing.T) {
	ctx := context.Background()
	fed := newFederation(t)
	ms, schema := newPim(t, "https://a.example/")
	require.NoError(t, fed.AddStore(ctx, ms))
	class := createClass(t, fed, schema, &ir.PimCreateClass{PimTechnicalLabel: "person"})

	rec := &recorder{}
	fed.Subscribe(class, rec.callback)

	got := rec.waitLen(t, 1)
	assert.Equal(t, []string{"person"}, labels(got))
	assert.Equal(t, StateReady, fed.GetCurrent(ctx, class).State)
	assert.Equal(t, []string{class}, fed.SubscribedIRIs())
}

func TestSubscribeUnknownIRI(t *testing.T) {
	fed := newFederation(t)

	rec := &recorder{}
	fed.Subscribe("https://unknown.example/x", rec.callback)

	got := rec.waitLen(t, 1)
	assert.Equal(t, StateNotFound, got[0].State)
	assert.Nil(t, got[0].Resource)
}

func TestLateSubscriberGetsCurrentValue(t *testing.T) {
	ctx := context.Background()
	fed := newFederation(t)
	ms, schema := newPim(t, "https://a.example/")
	require.NoError(t, fed.AddStore(ctx, ms))
	class := createClass(t, fed, schema, &ir.PimCreateClass{PimTechnicalLabel: "person"})

	early := &recorder{}
	fed.Subscribe(class, early.callback)
	early.waitLen(t, 1)

	late := &recorder{}
	fed.Subscribe(class, late.callback)
	assert.Equal(t, []string{"person"}, labels(late.waitLen(t, 1)))
	assert.Len(t, early.snapshot(), 1)
}

func TestGetCurrentWithoutSubscription(t *testing.T) {
	ctx := context.Background()
	fed := newFederation(t)
	ms, schema := newPim(t, "https://a.example/")
	require.NoError(t, fed.AddStore(ctx, ms))
	class := createClass(t, fed, schema, &ir.PimCreateClass{PimTechnicalLabel: "person"})

	u := fed.GetCurrent(ctx, class)
	assert.Equal(t, StateReady, u.State)
	assert.Equal(t, "person", u.Resource.String(ir.FieldPimTechnicalLabel))
	assert.Equal(t, StateNotFound, fed.GetCurrent(ctx, "https://unknown.example/x").State)
	assert.Empty(t, fed.SubscribedIRIs())
}

func TestNotificationsFollowApplicationOrder(t *testing.T) {
	ctx := context.Background()
	fed := newFederation(t)
	ms, schema := newPim(t, "https://a.example/")
	require.NoError(t, fed.AddStore(ctx, ms))
	class := createClass(t, fed, schema, &ir.PimCreateClass{PimTechnicalLabel: "v0"})

	rec := &recorder{}
	fed.Subscribe(class, rec.callback)
	rec.waitLen(t, 1)

	for _, label := range []string{"v1", "v2", "v3"} {
		setLabel(t, fed, schema, class, label)
	}

	assert.Equal(t, []string{"v0", "v1", "v2", "v3"}, labels(rec.waitLen(t, 4)))
}

func TestDeleteNotifiesNotFound(t *testing.T) {
	ctx := context.Background()
	fed := newFederation(t)
	ms, schema := newPim(t, "https://a.example/")
	require.NoError(t, fed.AddStore(ctx, ms))
	class := createClass(t, fed, schema, &ir.PimCreateClass{PimTechnicalLabel: "v0"})

	rec := &recorder{}
	fed.Subscribe(class, rec.callback)
	rec.waitLen(t, 1)

	c, err := fed.ApplyOperation(ctx, schema, &ir.PimDeleteClass{PimClass: class})
	require.NoError(t, err)
	require.True(t, c.OK())

	assert.Equal(t, []string{"v0", "not-found"}, labels(rec.waitLen(t, 2)))
	assert.Equal(t, StateNotFound, fed.GetCurrent(ctx, class).State)
}

func TestReentrantMutationIsQueuedBehindCurrentDelivery(t *testing.T) {
	ctx := context.Background()
	fed := newFederation(t)
	ms, schema := newPim(t, "https://a.example/")
	require.NoError(t, fed.AddStore(ctx, ms))
	class := createClass(t, fed, schema, &ir.PimCreateClass{PimTechnicalLabel: "v0"})

	var mu sync.Mutex
	var trace []string
	record := func(who string) Callback {
		return func(u Update) {
			mu.Lock()
			trace = append(trace, who+":"+u.Resource.String(ir.FieldPimTechnicalLabel))
			mu.Unlock()
		}
	}
	traceLen := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(trace)
	}

	mutator := record("mutator")
	fed.Subscribe(class, func(u Update) {
		mutator(u)
		if u.Resource.String(ir.FieldPimTechnicalLabel) == "v1" {
			setLabel(t, fed, schema, class, "v2")
		}
	})
	fed.Subscribe(class, record("observer"))
	require.Eventually(t, func() bool { return traceLen() == 2 }, waitFor, 1)

	mu.Lock()
	trace = nil
	mu.Unlock()

	setLabel(t, fed, schema, class, "v1")
	require.Eventually(t, func() bool { return traceLen() == 4 }, waitFor, 1)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"mutator:v1", "observer:v1", "mutator:v2", "observer:v2"}, trace)
}

func TestUnsubscribeDiscardsState(t *testing.T) {
	ctx := context.Background()
	fed := newFederation(t)
	ms, schema := newPim(t, "https://a.example/")
	require.NoError(t, fed.AddStore(ctx, ms))
	class := createClass(t, fed, schema, &ir.PimCreateClass{PimTechnicalLabel: "v0"})

	rec := &recorder{}
	unsubscribe := fed.Subscribe(class, rec.callback)
	rec.waitLen(t, 1)

	unsubscribe()
	unsubscribe()
	assert.Empty(t, fed.SubscribedIRIs())

	setLabel(t, fed, schema, class, "v1")
	assert.Len(t, rec.snapshot(), 1)
	assert.False(t, fed.RemoveSubscriber(class, 12345))
}

func TestAddAndRemoveStoreNotify(t *testing.T) {
	ctx := context.Background()
	fed := newFederation(t)
	ms, schema := newPim(t, "https://a.example/")
	c, err := ms.ApplyOperation(ctx, &ir.PimCreateClass{PimTechnicalLabel: "person"})
	require.NoError(t, err)
	class := c.Result.(ir.CreatedResult).IRI

	rec := &recorder{}
	fed.Subscribe(class, rec.callback)
	rec.waitLen(t, 1)

	require.NoError(t, fed.AddStore(ctx, ms))
	require.NoError(t, fed.RemoveStore(ctx, schema))

	assert.Equal(t, []string{"not-found", "person", "not-found"}, labels(rec.waitLen(t, 3)))
}

// gatedBackend holds its first ReadResource call until released and then
// returns the value it read before blocking.
type gatedBackend struct {
	*memstore.MemoryStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedBackend) ReadResource(ctx context.Context, iri string) (*ir.Resource, error) {
	res, err := g.MemoryStore.ReadResource(ctx, iri)
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return res, err
}

func TestStaleInitialResolutionIsDiscarded(t *testing.T) {
	ctx := context.Background()
	fed := newFederation(t)
	ms, schema := newPim(t, "https://a.example/")
	c, err := ms.ApplyOperation(ctx, &ir.PimCreateClass{PimTechnicalLabel: "old"})
	require.NoError(t, err)
	class := c.Result.(ir.CreatedResult).IRI

	gated := &gatedBackend{
		MemoryStore: ms,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	require.NoError(t, fed.AddStore(ctx, gated))

	rec := &recorder{}
	fed.Subscribe(class, rec.callback)
	<-gated.entered
	assert.Equal(t, StateLoading, fed.GetCurrent(ctx, class).State)

	setLabel(t, fed, schema, class, "new")
	close(gated.release)

	assert.Equal(t, []string{"new"}, labels(rec.waitLen(t, 1)))
	fed.wg.Wait()
	assert.Equal(t, []string{"new"}, labels(rec.snapshot()))
	assert.Equal(t, "new", fed.GetCurrent(ctx, class).Resource.String(ir.FieldPimTechnicalLabel))
}

func TestResolutionForDiscardedSubscriptionIsIgnored(t *testing.T) {
	ctx := context.Background()
	fed := newFederation(t)
	ms, schema := newPim(t, "https://a.example/")
	c, err := ms.ApplyOperation(ctx, &ir.PimCreateClass{PimTechnicalLabel: "old"})
	require.NoError(t, err)
	class := c.Result.(ir.CreatedResult).IRI

	gated := &gatedBackend{
		MemoryStore: ms,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	require.NoError(t, fed.AddStore(ctx, gated))

	first := &recorder{}
	unsubscribe := fed.Subscribe(class, first.callback)
	<-gated.entered
	unsubscribe()

	setLabel(t, fed, schema, class, "new")

	second := &recorder{}
	fed.Subscribe(class, second.callback)
	assert.Equal(t, []string{"new"}, labels(second.waitLen(t, 1)))

	close(gated.release)
	fed.wg.Wait()

	assert.Empty(t, first.snapshot())
	assert.Equal(t, []string{"new"}, labels(second.snapshot()))
	assert.Equal(t, "new", fed.GetCurrent(ctx, class).Resource.String(ir.FieldPimTechnicalLabel))
}
