package event_test

import (
	"errors"
	"testing"

	plangen "github.com/vapodego/aibabyapp-project-sub001"
	"github.com/vapodego/aibabyapp-project-sub001/event"
	"github.com/vapodego/aibabyapp-project-sub001/id"
)

func TestBus_PublishDelivers(t *testing.T) {
	bus := event.NewBus(4)
	jobID := id.NewJobID()

	if err := bus.Publish(event.JobCreated{JobID: jobID}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	select {
	case evt := <-bus.Events():
		if evt.JobID != jobID {
			t.Errorf("delivered job id = %s, want %s", evt.JobID, jobID)
		}
		if evt.At.IsZero() {
			t.Error("delivered event has zero timestamp")
		}
	default:
		t.Fatal("no event delivered")
	}
}

func TestBus_PublishFailsWhenFull(t *testing.T) {
	bus := event.NewBus(1)

	if err := bus.Publish(event.JobCreated{JobID: id.NewJobID()}); err != nil {
		t.Fatalf("first Publish returned error: %v", err)
	}

	err := bus.Publish(event.JobCreated{JobID: id.NewJobID()})
	if !errors.Is(err, plangen.ErrDispatchFull) {
		t.Errorf("err = %v, want plangen.ErrDispatchFull", err)
	}
}

func TestBus_CloseDrainsSubscriber(t *testing.T) {
	bus := event.NewBus(1)
	bus.Close()

	if _, ok := <-bus.Events(); ok {
		t.Error("expected closed channel")
	}
}
