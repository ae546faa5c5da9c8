package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type durationRecorder struct {
	mu      sync.Mutex
	updates map[string]float64
	err     error
}

func (r *durationRecorder) UpdateDuration(_ context.Context, videoID string, seconds float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.updates == nil {
		r.updates = make(map[string]float64)
	}
	r.updates[videoID] = seconds
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDurationWorkerRecordsDuration(t *testing.T) {
	recorder := &durationRecorder{}
	worker := NewDurationWorker(&stubProber{seconds: 42}, recorder, WorkerConfig{QueueSize: 4, Workers: 1}, discardLogger())

	for _, id := range []string{"v1", "v2"} {
		if err := worker.Enqueue(id, "https://cdn.example.com/"+id); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := worker.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if recorder.updates["v1"] != 42 || recorder.updates["v2"] != 42 {
		t.Fatalf("expected both durations recorded, got %+v", recorder.updates)
	}
}

type blockingProber struct {
	release chan struct{}
}

func (b *blockingProber) Duration(ctx context.Context, _ string) (float64, error) {
	select {
	case <-b.release:
		return 1, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func TestDurationWorkerQueueFull(t *testing.T) {
	prober := &blockingProber{release: make(chan struct{})}
	worker := NewDurationWorker(prober, &durationRecorder{}, WorkerConfig{QueueSize: 1, Workers: 1}, discardLogger())

	var full error
	for i := 0; i < 3 && full == nil; i++ {
		full = worker.Enqueue("v", "u")
	}
	if !errors.Is(full, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull got %v", full)
	}

	close(prober.release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := worker.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if err := worker.Enqueue("v", "u"); !errors.Is(err, ErrWorkerClosed) {
		t.Fatalf("expected ErrWorkerClosed got %v", err)
	}
}

func TestDurationWorkerShutdownTimeoutCancelsProbes(t *testing.T) {
	prober := &blockingProber{release: make(chan struct{})}
	worker := NewDurationWorker(prober, &durationRecorder{}, WorkerConfig{QueueSize: 1, Workers: 1}, discardLogger())

	if err := worker.Enqueue("v", "u"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := worker.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded got %v", err)
	}
}

func TestDurationWorkerKeepsZeroOnFailure(t *testing.T) {
	recorder := &durationRecorder{}
	worker := NewDurationWorker(&stubProber{err: errors.New("unreachable")}, recorder, WorkerConfig{}, discardLogger())

	if err := worker.Enqueue("v1", "u"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := worker.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if len(recorder.updates) != 0 {
		t.Fatalf("expected no updates, got %+v", recorder.updates)
	}
}
