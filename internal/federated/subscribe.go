package federated

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

// State is the resolution state of a subscribed IRI.
type State int

const (
	// StateLoading means the initial resolution has not completed.
	StateLoading State = iota
	// StateReady means Update.Resource holds the current value.
	StateReady
	// StateNotFound means no participating store holds the IRI.
	StateNotFound
)

func (st State) String() string {
	switch st {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateNotFound:
		return "not-found"
	default:
		return fmt.Sprintf("State(%d)", int(st))
	}
}

// Update is the value delivered to subscribers.
type Update struct {
	IRI      string
	State    State
	Resource *ir.Resource
}

// Callback receives updates for one IRI. Callbacks run on whichever
// goroutine drains the dispatch queue and must not block on other
// notifications.
type Callback func(Update)

// SubscriberID identifies one registration.
type SubscriberID uint64

type subscriber struct {
	id SubscriberID
	cb Callback
}

// entry is the subscription state of one IRI. gen grows with every
// notification so that a slower initial resolution can tell it is stale.
type entry struct {
	subs    []subscriber
	current Update
	gen     uint64
}

// AddSubscriber registers cb for iri. The first subscriber of an IRI starts
// an asynchronous resolution; later subscribers receive the current value
// unless it is still loading.
func (s *Store) AddSubscriber(iri string, cb Callback) SubscriberID {
	if cb == nil {
		panic("federated: nil subscriber callback")
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	e, exists := s.entries[iri]
	if !exists {
		e = &entry{current: Update{IRI: iri, State: StateLoading}}
		s.entries[iri] = e
		s.metrics.setSubscribed(len(s.entries))
	}
	e.subs = append(e.subs, subscriber{id: id, cb: cb})

	if !exists {
		e.gen++
		gen := e.gen
		s.wg.Add(1)
		s.mu.Unlock()
		go s.resolveInitial(iri, e, gen)
		return id
	}
	if e.current.State != StateLoading {
		s.queue.Enqueue(delivery{iri: iri, id: id, cb: cb, update: e.current})
	}
	s.mu.Unlock()

	s.drain()
	return id
}

// RemoveSubscriber unregisters a subscription. Pending deliveries to it are
// dropped. Once an IRI has no subscribers its state is discarded.
func (s *Store) RemoveSubscriber(iri string, id SubscriberID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[iri]
	if !ok {
		return false
	}
	idx := slices.IndexFunc(e.subs, func(sub subscriber) bool { return sub.id == id })
	if idx < 0 {
		return false
	}
	e.subs = slices.Delete(e.subs, idx, idx+1)
	if len(e.subs) == 0 {
		delete(s.entries, iri)
		s.metrics.setSubscribed(len(s.entries))
	}
	return true
}

// Subscribe registers cb for iri and returns a function that unregisters it.
// Calling the returned function more than once is harmless.
func (s *Store) Subscribe(iri string, cb Callback) (unsubscribe func()) {
	id := s.AddSubscriber(iri, cb)
	var once sync.Once
	return func() {
		once.Do(func() { s.RemoveSubscriber(iri, id) })
	}
}

// GetCurrent returns the best value known for iri without waiting. For a
// subscribed IRI that is the last delivered state, possibly StateLoading;
// otherwise the IRI is resolved on the spot.
func (s *Store) GetCurrent(ctx context.Context, iri string) Update {
	s.mu.RLock()
	e, ok := s.entries[iri]
	var current Update
	if ok {
		current = e.current
	}
	s.mu.RUnlock()
	if ok {
		return current
	}
	return s.resolve(ctx, iri)
}

// SubscribedIRIs returns the IRIs with at least one subscriber, sorted.
func (s *Store) SubscribedIRIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.entries))
}

func (s *Store) resolve(ctx context.Context, iri string) Update {
	res, err := s.ReadResource(ctx, iri)
	if err != nil {
		s.logger.Error("resolve resource", "iri", iri, "error", err)
		return Update{IRI: iri, State: StateNotFound}
	}
	return updateFor(iri, res)
}

func updateFor(iri string, res *ir.Resource) Update {
	if res == nil {
		return Update{IRI: iri, State: StateNotFound}
	}
	return Update{IRI: iri, State: StateReady, Resource: res}
}

// resolveInitial reads iri for the entry it was started for. The result is
// dropped if a notification for iri was published meanwhile or the entry was
// discarded, even when a later subscription registered a new one.
func (s *Store) resolveInitial(iri string, started *entry, gen uint64) {
	defer s.wg.Done()

	u := s.resolve(s.ctx, iri)
	if s.ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	e, ok := s.entries[iri]
	if !ok || e != started || e.gen != gen {
		s.mu.Unlock()
		s.logger.Debug("stale resolution discarded", "iri", iri)
		return
	}
	s.setLocked(e, u)
	s.mu.Unlock()

	s.drain()
}

// publish resolves each subscribed IRI among iris and queues the new value
// for its subscribers. known supplies values already at hand; other IRIs are
// read through the federation. Callers hold applyMu.
func (s *Store) publish(ctx context.Context, iris []string, known map[string]*ir.Resource) {
	s.mu.RLock()
	watched := make([]string, 0, len(iris))
	for _, iri := range iris {
		if _, ok := s.entries[iri]; ok {
			watched = append(watched, iri)
		}
	}
	s.mu.RUnlock()
	if len(watched) == 0 {
		return
	}

	updates := make([]Update, len(watched))
	for i, iri := range watched {
		if res, ok := known[iri]; ok {
			updates[i] = updateFor(iri, res)
		} else {
			updates[i] = s.resolve(ctx, iri)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range updates {
		if e, ok := s.entries[u.IRI]; ok {
			e.gen++
			s.setLocked(e, u)
		}
	}
}

// setLocked records u as the current state of e and queues it for every
// subscriber. Callers hold mu.
func (s *Store) setLocked(e *entry, u Update) {
	e.current = u
	for _, sub := range e.subs {
		s.queue.Enqueue(delivery{iri: u.IRI, id: sub.id, cb: sub.cb, update: u})
	}
}

func (s *Store) registered(iri string, id SubscriberID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[iri]
	return ok && slices.ContainsFunc(e.subs, func(sub subscriber) bool { return sub.id == id })
}

// drain delivers queued notifications until the queue is empty. Only one
// caller drains at a time; others return at once and their deliveries are
// picked up by the active drainer.
func (s *Store) drain() {
	for s.draining.CompareAndSwap(false, true) {
		s.drainOnce()
		if s.queue.Len() == 0 {
			return
		}
	}
}

func (s *Store) drainOnce() {
	defer s.draining.Store(false)
	for {
		d, ok := s.queue.TryDequeue()
		if !ok {
			return
		}
		if !s.registered(d.iri, d.id) {
			continue
		}
		s.metrics.notified()
		d.cb(d.update)
	}
}
