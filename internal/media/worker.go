package media

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrQueueFull is returned when the probe queue has no free slot.
	ErrQueueFull = errors.New("media probe queue full")
	// ErrWorkerClosed is returned after Shutdown.
	ErrWorkerClosed = errors.New("media worker closed")
)

// DurationUpdater persists a probed video duration.
type DurationUpdater interface {
	UpdateDuration(ctx context.Context, videoID string, seconds float64) error
}

// WorkerConfig controls the concurrency characteristics of the worker pool.
type WorkerConfig struct {
	QueueSize int
	Workers   int
	// JobTimeout bounds a single probe and update.
	JobTimeout time.Duration
}

// DurationWorker probes uploaded videos on a bounded pool of goroutines.
type DurationWorker struct {
	prober  Prober
	updater DurationUpdater
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan probeJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

type probeJob struct {
	videoID string
	url     string
}

// NewDurationWorker starts the worker pool.
func NewDurationWorker(prober Prober, updater DurationUpdater, cfg WorkerConfig, logger *slog.Logger) *DurationWorker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &DurationWorker{
		prober:  prober,
		updater: updater,
		logger:  logger,
		timeout: cfg.JobTimeout,
		jobs:    make(chan probeJob, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	w.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go w.worker()
	}

	return w
}

// Enqueue schedules a duration probe. It never waits for a free slot.
func (w *DurationWorker) Enqueue(videoID, url string) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrWorkerClosed
	}

	select {
	case w.jobs <- probeJob{videoID: videoID, url: url}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish. When ctx
// expires first, in-flight probes are cancelled.
func (w *DurationWorker) Shutdown(ctx context.Context) error {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		close(w.jobs)
		w.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		w.cancel()
		return ctx.Err()
	case <-done:
		w.cancel()
		return nil
	}
}

func (w *DurationWorker) worker() {
	defer w.wg.Done()
	for job := range w.jobs {
		w.handleJob(job)
	}
}

func (w *DurationWorker) handleJob(job probeJob) {
	if w.prober == nil || w.updater == nil {
		w.logger.Error("media worker missing dependencies", "hasProber", w.prober != nil, "hasUpdater", w.updater != nil)
		return
	}

	ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
	defer cancel()

	seconds, err := w.prober.Duration(ctx, job.url)
	if err != nil {
		w.logger.Error("probe video duration", "videoId", job.videoID, "url", job.url, "error", err)
		return
	}

	if err := w.updater.UpdateDuration(ctx, job.videoID, seconds); err != nil {
		w.logger.Error("record video duration", "videoId", job.videoID, "error", err)
		return
	}
	w.logger.Debug("video duration recorded", "videoId", job.videoID, "seconds", seconds)
}
