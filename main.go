package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EduardoCrCo/final-backend-sub000/config"
	"github.com/EduardoCrCo/final-backend-sub000/db"
	"github.com/EduardoCrCo/final-backend-sub000/logging"
	"github.com/EduardoCrCo/final-backend-sub000/storage"
	"github.com/EduardoCrCo/final-backend-sub000/store"
	"github.com/EduardoCrCo/final-backend-sub000/store/mongostore"
	"github.com/EduardoCrCo/final-backend-sub000/store/sqlstore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.Command{
		Name:  "vidshelf",
		Usage: "Search, bookmark and review YouTube videos",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML configuration file",
				Sources: cli.EnvVars("VIDSHELF_CONFIG"),
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Apply pending SQL migrations and exit",
				Action: migrate,
			},
			{
				Name:  "init-config",
				Usage: "Print an example configuration file",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					_, err := cmd.Root().Writer.Write(config.Example())
					return err
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("vidshelf failed")
	}
}

// setup loads and validates configuration, then installs the global logger.
func setup(cmd *cli.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("invalid configuration: %w", err)
	}
	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logging.SetGlobal(logger)
	return cfg, logger, nil
}

func sqlDialect(driver string) db.Dialect {
	if driver == "postgres" {
		return db.DialectPostgres
	}
	return db.DialectSQLite
}

func sqlDSN(cfg *config.Config) string {
	if cfg.Database.Driver == "postgres" {
		return cfg.Database.PostgresURL
	}
	return cfg.Database.SQLitePath
}

// openStore connects the backend selected by the configured driver.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Database.Driver == "mongo" {
		s, err := mongostore.Open(ctx, cfg.Database.MongoURI, cfg.Database.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := sqlstore.Open(ctx, sqlDialect(cfg.Database.Driver), sqlDSN(cfg))
	if err != nil {
		return nil, err
	}
	return s, nil
}

func migrate(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if cfg.Database.Driver == "mongo" {
		logger.Info().Msg("mongo backend has no SQL migrations")
		return nil
	}

	d, err := db.Open(ctx, sqlDialect(cfg.Database.Driver), sqlDSN(cfg))
	if err != nil {
		return err
	}
	defer d.Close()
	if err := db.RunMigrations(ctx, d); err != nil {
		return err
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("migrations applied")
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Error().Err(err).Msg("close store")
		}
	}()

	srv := newServer(cfg, st, logger)
	if cfg.Storage.Enabled() {
		avatars, err := storage.New(cfg.Storage)
		if err != nil {
			return fmt.Errorf("connect object storage: %w", err)
		}
		if err := avatars.EnsureBucket(ctx); err != nil {
			return err
		}
		srv.avatars = avatars
	} else {
		logger.Warn().Msg("object storage not configured; avatar uploads disabled")
	}
	if cfg.YouTube.APIKey == "" {
		logger.Warn().Msg("YOUTUBE_API_KEY not set; video search disabled")
	}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Server.Port).Str("env", cfg.Server.Env).
			Str("driver", cfg.Database.Driver).Msg("vidshelf API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-quit:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("server shut down")
	return nil
}
