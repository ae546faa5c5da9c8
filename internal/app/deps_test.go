package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/storage"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Ping(context.Context) error { return nil }

func (fakePool) Close() {}

func testConfig() config.Config {
	return config.Config{
		Version:   "test",
		ClientURL: "http://localhost:5173",
		Auth: config.AuthConfig{
			AccessSecret:  "access",
			RefreshSecret: "refresh",
			AccessTTL:     time.Minute,
			RefreshTTL:    time.Hour,
			ResetTTL:      time.Minute,
		},
		Media: config.MediaConfig{
			MaxImageBytes:  1 << 20,
			MaxVideoBytes:  10 << 20,
			FFprobePath:    "ffprobe",
			FFprobeTimeout: time.Second,
			ProbeCacheTTL:  time.Minute,
			Workers:        1,
			QueueSize:      4,
		},
		RateLimit: config.RateLimitConfig{Requests: 10, Window: time.Minute, Burst: 5},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildDependencies(t *testing.T) {
	cfg := testConfig()
	cfg.RedisURL = "redis://" + miniredis.RunT(t).Addr()
	cfg.ObjectStore = config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, cfg, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, cleanup)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, cleanup(ctx))
	}()

	require.NotNil(t, deps.Users)
	require.NotNil(t, deps.Sessions)
	require.NotNil(t, deps.Resets)
	require.NotNil(t, deps.Videos)
	require.NotNil(t, deps.Comments)
	require.NotNil(t, deps.Tweets)
	require.NotNil(t, deps.Playlists)
	require.NotNil(t, deps.Likes)
	require.NotNil(t, deps.Subscriptions)
	require.NotNil(t, deps.History)
	require.NotNil(t, deps.Dashboard)
	require.NotNil(t, deps.Durations)
	require.NotNil(t, deps.Health)
	require.NotNil(t, deps.Metrics)
	require.IsType(t, &storage.S3Storage{}, deps.Storage)
}

func TestBuildDependenciesWithoutOptionalServices(t *testing.T) {
	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, testConfig(), discardLogger())
	require.NoError(t, err)
	defer func() { _ = cleanup(context.Background()) }()

	require.IsType(t, storage.Unavailable{}, deps.Storage)
	require.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, deps.AllowedOrigins)
	require.Empty(t, deps.TrustedProxies)
}

func TestBuildDependenciesParsesTrustedProxies(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.TrustedProxies = []string{"10.0.0.0/8", "192.0.2.7"}

	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, cfg, discardLogger())
	require.NoError(t, err)
	defer func() { _ = cleanup(context.Background()) }()
	require.Len(t, deps.TrustedProxies, 2)

	cfg.RateLimit.TrustedProxies = []string{"not-an-ip"}
	_, _, err = buildDependencies(context.Background(), fakePool{}, cfg, discardLogger())
	require.ErrorContains(t, err, "not-an-ip")
}

func TestBuildDependenciesRejectsBadSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.RefreshSecret = cfg.Auth.AccessSecret

	_, _, err := buildDependencies(context.Background(), fakePool{}, cfg, discardLogger())
	require.Error(t, err)
}

func TestBuildDependenciesUnreachableRedis(t *testing.T) {
	server := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisURL = "redis://" + server.Addr()
	server.Close()

	_, _, err := buildDependencies(context.Background(), fakePool{}, cfg, discardLogger())
	require.Error(t, err)
}

func TestListMigrationsSortsSQLFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.sql", "0001_a.sql", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0o700))

	got, err := listMigrations(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"0001_a.sql", "0002_b.sql"}, got)
}

func TestShouldRetryMigration(t *testing.T) {
	require.True(t, shouldRetryMigration(&pgconn.PgError{Code: pgerrcode.SerializationFailure}))
	require.True(t, shouldRetryMigration(context.DeadlineExceeded))
	require.False(t, shouldRetryMigration(&pgconn.PgError{Code: pgerrcode.SyntaxError}))
	require.False(t, shouldRetryMigration(nil))
}

func TestMigrationBackoffIsCapped(t *testing.T) {
	require.Equal(t, migrationBaseBackoff, migrationBackoff(1))
	require.Equal(t, 2*migrationBaseBackoff, migrationBackoff(2))
	require.Equal(t, migrationMaxBackoff, migrationBackoff(10))
}

func TestSeedFileName(t *testing.T) {
	require.Equal(t, "dev_seed.sql", seedFileName("dev"))
	require.Equal(t, "custom.sql", seedFileName("custom.sql"))
}
