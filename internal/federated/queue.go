package federated

import "sync"

// delivery is one pending callback invocation.
type delivery struct {
	iri    string
	id     SubscriberID
	cb     Callback
	update Update
}

// dispatchQueue is a thread-safe FIFO queue of pending deliveries.
//
// The queue is unbounded so that a callback applying further operations can
// enqueue their notifications without blocking on the drain it runs inside.
type dispatchQueue struct {
	mu     sync.Mutex
	items  []delivery
	closed bool
}

func newDispatchQueue() *dispatchQueue {
	return &dispatchQueue{items: make([]delivery, 0, 16)}
}

// Enqueue adds a delivery to the back of the queue.
// Returns false if the queue is closed.
func (q *dispatchQueue) Enqueue(d delivery) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, d)
	return true
}

// TryDequeue removes and returns the front delivery without blocking.
func (q *dispatchQueue) TryDequeue() (delivery, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return delivery{}, false
	}

	d := q.items[0]

	// Drop the slot's references so callbacks and resources can be collected.
	q.items[0] = delivery{}
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return d, true
}

// Len returns the current queue length.
func (q *dispatchQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close rejects further deliveries and drops pending ones.
func (q *dispatchQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	clear(q.items)
	q.items = q.items[:0]
}
