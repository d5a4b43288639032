// Package federated presents several single stores as one resource space.
//
// Reads try each participating store in registration order. Mutations are
// addressed to the store owning a schema IRI and, once applied, are
// re-broadcast to subscribers of every touched IRI.
//
// Notifications travel through one FIFO queue that is drained by exactly one
// caller at a time. A callback may itself apply operations; the resulting
// notifications are queued behind the one being delivered and are never
// reordered relative to application order.
package federated
