package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/httpserver"
	"github.com/vidtube/backend/internal/logging"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// Run bootstraps the VidTube backend application.
func Run(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:    "vidtube",
		Usage:   "Video sharing backend",
		Version: Version,
		Description: "Configuration is read from the environment:\n\n" +
			config.Usage(),
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:      "migrate",
				Usage:     "Apply or inspect SQL migrations",
				ArgsUsage: "[up|status]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runMigrations(ctx, cmd.Args().First())
				},
			},
			{
				Name:      "seed",
				Usage:     "Load a seed file such as dev",
				ArgsUsage: "<name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runSeed(ctx, cmd.Args().First())
				},
			},
		},
	}
	return cmd.Run(ctx, append([]string{"vidtube"}, args...))
}

func serve(ctx context.Context, _ *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Version == "dev" {
		cfg.Version = Version
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.Version, cfg.AppEnv)
	ctx = logging.WithLogger(ctx, logger)

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, cleanup, err := buildDependencies(ctx, pool, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
		defer cancel()
		if err := cleanup(shutdownCtx); err != nil {
			logger.Error("release dependencies", "error", err)
		}
	}()

	srv := httpserver.New(cfg.AppPort, handlers.NewRouter(deps), httpserver.Timeouts{
		ReadHeader: cfg.HTTP.ReadHeaderTimeout,
		Write:      cfg.HTTP.WriteTimeout,
		Idle:       cfg.HTTP.IdleTimeout,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := httpserver.Run(ctx, srv, logger); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
