package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/cache"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
	"github.com/vidtube/backend/internal/validation"
)

const limiterVisitorTTL = 10 * time.Minute

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup stops background workers and closes clients.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	var closers []func(context.Context) error
	cleanup := func(ctx context.Context) error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i](ctx))
		}
		return errors.Join(errs...)
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	codec, err := auth.NewCodec(auth.CodecConfig{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	})
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)

	var resetStore auth.ResetTokenStore = cache.NewMemoryResetStore()
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return handlers.Dependencies{}, nil, err
		}
		closers = append(closers, func(context.Context) error { return client.Close() })
		resetStore = cache.NewRedisResetStore(client)
	} else {
		logger.Warn("REDIS_URL not set, reset tokens are kept in memory")
	}

	var uploads handlers.MediaStorage = storage.Unavailable{}
	if cfg.ObjectStore.Bucket != "" {
		s3, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			_ = cleanup(ctx)
			return handlers.Dependencies{}, nil, fmt.Errorf("configure object storage: %w", err)
		}
		uploads = s3
	} else {
		logger.Warn("OBJECT_STORE_BUCKET not set, uploads are disabled")
	}

	durations := newDurationWorker(videos, cfg.Media, logger)
	closers = append(closers, durations.Shutdown)

	schemas := validation.NewSchemas(validation.Limits{
		MaxImageBytes: cfg.Media.MaxImageBytes,
		MaxVideoBytes: cfg.Media.MaxVideoBytes,
	})

	return handlers.Dependencies{
		Users:          users,
		Sessions:       auth.NewManager(codec, users),
		Resets:         auth.NewResetTokens(resetStore, cfg.Auth.ResetTTL, cfg.ClientURL),
		Notifier:       auth.LogNotifier{Logger: logger},
		Videos:         videos,
		Comments:       repositories.NewPostgresCommentRepository(pool),
		Tweets:         repositories.NewPostgresTweetRepository(pool),
		Playlists:      repositories.NewPostgresPlaylistRepository(pool),
		Likes:          repositories.NewPostgresLikeRepository(pool),
		Subscriptions:  repositories.NewPostgresSubscriptionRepository(pool),
		History:        repositories.NewPostgresHistoryRepository(pool),
		Dashboard:      repositories.NewPostgresDashboardRepository(pool),
		Storage:        uploads,
		Durations:      durations,
		Health:         pool,
		Schemas:        schemas,
		AuthLimiter:    middleware.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst, limiterVisitorTTL),
		TrustedProxies: proxies,
		Metrics:        metrics.NewHTTP(),
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins(),
		Version:        cfg.Version,
	}, cleanup, nil
}

func newDurationWorker(videos media.DurationUpdater, cfg config.MediaConfig, logger *slog.Logger) *media.DurationWorker {
	prober := media.NewCachingProber(media.NewFFprobe(cfg.FFprobePath, cfg.FFprobeTimeout), cfg.ProbeCacheTTL)
	return media.NewDurationWorker(prober, videos, media.WorkerConfig{
		QueueSize:  cfg.QueueSize,
		Workers:    cfg.Workers,
		JobTimeout: cfg.FFprobeTimeout,
	}, logger)
}
