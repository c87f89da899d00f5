package promoter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type fakeRepo struct {
	sweeps  atomic.Int64
	pending atomic.Int64
	err     error
}

func (f *fakeRepo) PromotePending(ctx context.Context) (int64, error) {
	f.sweeps.Add(1)
	if f.err != nil {
		return 0, f.err
	}
	return f.pending.Swap(0), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPromoterSweepsImmediatelyAndOnTicks(t *testing.T) {
	repo := &fakeRepo{}
	repo.pending.Store(2)

	p := New(repo, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for repo.sweeps.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 sweeps, got %d", repo.sweeps.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("promoter did not stop after cancellation")
	}
}

func TestPromoterKeepsRunningAfterRepoError(t *testing.T) {
	repo := &fakeRepo{err: errors.New("db down")}

	p := New(repo, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for repo.sweeps.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected promoter to retry after errors, got %d sweeps", repo.sweeps.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("promoter did not stop after cancellation")
	}
}
