package bt

import (
	"errors"
	"testing"
	"time"
)

func TestThreadedActionCompletesAcrossTicks(t *testing.T) {
	release := make(chan struct{})
	a := NewThreadedAction(func(haltRequested func() bool) (Status, error) {
		<-release
		return Success, nil
	})

	status, err := a.Tick()
	if err != nil || status != Running {
		t.Fatalf("first tick: got %v, %v; want Running", status, err)
	}

	status, err = a.Tick()
	if err != nil || status != Running {
		t.Fatalf("poll before completion: got %v, %v; want Running", status, err)
	}

	close(release)
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		status, err = a.Tick()
		if status == Success {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if err != nil || status != Success {
		t.Fatalf("after completion: got %v, %v; want Success", status, err)
	}
}

func TestThreadedActionCapturesWorkerError(t *testing.T) {
	boom := errors.New("boom")
	a := NewThreadedAction(func(haltRequested func() bool) (Status, error) {
		return Idle, boom
	})
	if _, err := a.Tick(); err != nil {
		t.Fatalf("first tick should just start the worker: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	var err error
	for time.Now().Before(deadline) {
		_, err = a.Tick()
		if err != nil {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want error wrapping %v", err, boom)
	}
}

func TestThreadedActionHaltSignalsAndJoins(t *testing.T) {
	observedHalt := make(chan bool, 1)
	a := NewThreadedAction(func(haltRequested func() bool) (Status, error) {
		for i := 0; i < 200; i++ {
			if haltRequested() {
				observedHalt <- true
				return Failure, nil
			}
			time.Sleep(time.Millisecond)
		}
		observedHalt <- false
		return Success, nil
	})

	if _, err := a.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	a.Halt()

	select {
	case saw := <-observedHalt:
		if !saw {
			t.Fatalf("worker finished without observing the halt request")
		}
	default:
		t.Fatalf("Halt returned before the worker observed the halt request")
	}
}
