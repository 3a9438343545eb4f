package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingRepo struct {
	mu    sync.Mutex
	saved []Snapshot
	gate  chan struct{}
	err   error
}

func (r *recordingRepo) Load(context.Context) (*Snapshot, error) { return nil, nil }

func (r *recordingRepo) Save(_ context.Context, snap Snapshot) error {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, snap)
	return nil
}

func (r *recordingRepo) Close() error { return nil }

func (r *recordingRepo) focusTotals() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.saved))
	for _, snap := range r.saved {
		out = append(out, snap.TotalFocusMinutes)
	}
	return out
}

func TestWriterPreservesOrder(t *testing.T) {
	repo := &recordingRepo{}
	w := NewWriter(repo, 64, zap.NewNop())
	w.Start()
	for i := 1; i <= 20; i++ {
		w.Enqueue(Snapshot{TotalFocusMinutes: i})
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got := repo.focusTotals()
	if len(got) != 20 {
		t.Fatalf("expected 20 saves, got %d", len(got))
	}
	for i, v := range got {
		if v != i+1 {
			t.Fatalf("save %d out of order: %v", i, got)
		}
	}
	if w.Written() != 20 || w.Coalesced() != 0 {
		t.Fatalf("unexpected counters: written=%d coalesced=%d", w.Written(), w.Coalesced())
	}
}

func TestWriterCoalescesWhenFull(t *testing.T) {
	repo := &recordingRepo{gate: make(chan struct{})}
	w := NewWriter(repo, 2, zap.NewNop())
	w.Start()

	w.Enqueue(Snapshot{TotalFocusMinutes: 1})
	// Wait until the loop holds snapshot 1 inside Save.
	deadline := time.Now().Add(2 * time.Second)
	for len(w.queue) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("writer never picked up the first snapshot")
		}
		time.Sleep(time.Millisecond)
	}
	for i := 2; i <= 6; i++ {
		w.Enqueue(Snapshot{TotalFocusMinutes: i})
	}
	close(repo.gate)
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got := repo.focusTotals()
	if got[len(got)-1] != 6 {
		t.Fatalf("latest snapshot must be written last, got %v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("saves out of order: %v", got)
		}
	}
	if w.Coalesced() != 3 {
		t.Fatalf("expected 3 coalesced snapshots, got %d", w.Coalesced())
	}
}

func TestWriterReportsErrors(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	repo := &recordingRepo{err: errors.New("disk full")}
	w := NewWriter(repo, 4, zap.New(core))
	w.Start()
	w.Enqueue(Snapshot{})

	select {
	case err := <-w.Errors():
		if err == nil || err.Error() != "disk full" {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for save error")
	}
	_ = w.Close()

	if logs.FilterMessage("save snapshot").Len() != 1 {
		t.Fatalf("expected one logged save failure, got %d", logs.Len())
	}
	if _, ok := <-w.Errors(); ok {
		t.Fatal("errors channel should be closed after Close")
	}
}

func TestWriterDropsAfterClose(t *testing.T) {
	repo := &recordingRepo{}
	w := NewWriter(repo, 1, nil)
	_ = w.Close()
	if err := w.Enqueue(Snapshot{TotalFocusMinutes: 9}); !errors.Is(err, ErrWriterClosed) {
		t.Fatalf("expected ErrWriterClosed, got %v", err)
	}
	if got := repo.focusTotals(); len(got) != 0 {
		t.Fatalf("expected no saves after close, got %v", got)
	}
}
