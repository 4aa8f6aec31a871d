package actorx

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestActorRunsUntilStopped(t *testing.T) {
	var count int32
	worker := WorkerFunc(func(ctx context.Context) WorkerState {
		atomic.AddInt32(&count, 1)
		time.Sleep(time.Millisecond)
		return WorkerRunning
	})

	a := New(worker)
	ctx, cancel := context.WithCancel(context.Background())
	a.Start(ctx)

	time.Sleep(20 * time.Millisecond)
	cancel()
	a.Stop()

	if atomic.LoadInt32(&count) == 0 {
		t.Fatalf("expected Exec to have run at least once")
	}
}

func TestActorStopsWhenWorkerReturnsStopped(t *testing.T) {
	done := make(chan struct{})
	worker := WorkerFunc(func(ctx context.Context) WorkerState {
		return WorkerStopped
	})

	a := New(worker)
	ctx := context.Background()
	a.Start(ctx)

	go func() {
		a.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected Stop to return promptly after worker signaled stopped")
	}
}

func TestMailboxSendReceive(t *testing.T) {
	mb := NewMailbox[int](4)
	if err := mb.TrySend(1); err != nil {
		t.Fatalf("TrySend: %v", err)
	}
	select {
	case v := <-mb.Receive():
		if v != 1 {
			t.Fatalf("expected 1, got %d", v)
		}
	default:
		t.Fatalf("expected a value to be receivable")
	}
}

func TestMailboxTrySendFullReturnsError(t *testing.T) {
	mb := NewMailbox[int](1)
	if err := mb.TrySend(1); err != nil {
		t.Fatalf("TrySend: %v", err)
	}
	if err := mb.TrySend(2); err != ErrMailboxFull {
		t.Fatalf("expected ErrMailboxFull, got %v", err)
	}
}
