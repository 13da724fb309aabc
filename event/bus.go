// Package event carries the job-created trigger from the submission
// API to the dispatch trigger. Delivery is in-process and best-effort:
// a full buffer fails the publish, the job stays pending, and the
// liveness sweeper reports it.
package event

import (
	"time"

	plangen "github.com/vapodego/aibabyapp-project-sub001"
	"github.com/vapodego/aibabyapp-project-sub001/id"
)

// JobCreated announces one new pending job. The trigger invokes the
// worker exactly once per delivered event.
type JobCreated struct {
	JobID id.JobID
	At    time.Time
}

// Bus is a bounded in-process publish/subscribe channel for job
// creation events. One subscriber (the trigger) consumes it.
type Bus struct {
	ch chan JobCreated
}

// NewBus creates a bus with the given buffer capacity.
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = 64
	}
	return &Bus{ch: make(chan JobCreated, capacity)}
}

// Publish enqueues a creation event without blocking. It returns
// plangen.ErrDispatchFull when the buffer is full; the caller logs the
// failure and leaves the job pending.
func (b *Bus) Publish(evt JobCreated) error {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	select {
	case b.ch <- evt:
		return nil
	default:
		return plangen.ErrDispatchFull
	}
}

// Events returns the receive side of the bus.
func (b *Bus) Events() <-chan JobCreated {
	return b.ch
}

// Close closes the bus. Publish must not be called afterwards.
func (b *Bus) Close() {
	close(b.ch)
}
