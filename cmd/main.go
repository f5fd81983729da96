package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"adtech-etl/internal/adapter/csvsource"
	httpadapter "adtech-etl/internal/adapter/http"
	mongoadapter "adtech-etl/internal/adapter/mongo"
	"adtech-etl/internal/adapter/postgres"
	"adtech-etl/internal/adapter/usecase"
	"adtech-etl/internal/config"
	"adtech-etl/internal/core/port"
	"adtech-etl/internal/db"
)

// main is the entry point of the adtech-etl binary. It loads configuration,
// optionally runs database migrations, then dispatches on the first
// argument: `load` bulk-loads a delimited event file, `sessionize` and
// `aggregate` run the batch jobs, `serve` starts the analytics read API and
// `seed` fills the raw event table with generated data. With no argument it
// serves.
func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var logger *slog.Logger
	{
		// Initialise structured logger based on configuration.
		var handler slog.Handler
		level := cfg.Log.SlogLevel()
		switch cfg.Log.SlogFormat() {
		case "json":
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		default:
			handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		}
		logger = slog.New(handler)
	}

	// Optionally run migrations if configured. We use the Psql sub‑config.
	if cfg.Psql.RunMigrations {
		if err = db.Migrate(cfg.Psql.Addr.String()); err != nil {
			logger.Error("migration error", slog.Any("error", err))
		} else {
			logger.Info("migrations applied successfully")
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.Psql)
	if err != nil {
		logger.Error("database connection error", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		err = serve(ctx, cfg, pool, logger)
	case "load":
		err = runLoad(ctx, cfg, pool, logger, os.Args[2:])
	case "sessionize":
		err = runSessionize(ctx, cfg, pool, logger)
	case "aggregate":
		err = runAggregate(ctx, cfg, pool, logger)
	case "seed":
		err = db.Seed(ctx, pool)
	default:
		logger.Error("unknown command", slog.String("command", cmd))
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", slog.String("command", cmd), slog.Any("error", err))
		os.Exit(1)
	}
}

// serve runs the analytics read API until a termination signal arrives,
// then shuts the server down gracefully.
func serve(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, logger *slog.Logger) error {
	repo := postgres.NewProjectionRepository(pool)
	svc := usecase.NewAnalyticsService(repo)
	cache := httpadapter.NewResponseCache(cfg.HTTP.CacheSize, cfg.HTTP.CacheTTL)

	handler := httpadapter.NewHandler(svc, cache, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server gracefully stopped")
	return nil
}

// runLoad bulk-loads a delimited event file into the raw event table.
func runLoad(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	file := fs.String("file", "", "path to the delimited event file")
	sep := fs.String("sep", ",", "field separator")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("load: -file is required")
	}
	if len(*sep) != 1 {
		return errors.New("load: -sep must be a single character")
	}

	src := csvsource.NewReader(*file, rune((*sep)[0]), logger)
	store := postgres.NewEventRepository(pool, cfg.ETL.ReadChunkSize, logger)
	var job port.LoadUseCase = usecase.NewLoadJob(src, store, cfg.ETL.LoadBatchSize, logger)
	return report(logger, "load")(job.Run(ctx))
}

// runSessionize windows the raw event stream into session documents and
// reloads the session collection.
func runSessionize(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, logger *slog.Logger) error {
	client, err := db.NewMongoClient(ctx, cfg.Mongo)
	if err != nil {
		return fmt.Errorf("mongo connection: %w", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("mongo disconnect error", slog.Any("error", err))
		}
	}()

	src := postgres.NewEventRepository(pool, cfg.ETL.ReadChunkSize, logger)
	store := mongoadapter.NewSessionRepository(client.Database(cfg.Mongo.Database))
	var job port.SessionizeUseCase = usecase.NewSessionizeJob(src, store, cfg.ETL.SessionTimeout(), cfg.ETL.SessionBatchSize, logger)
	return report(logger, "sessionize")(job.Run(ctx))
}

// runAggregate rebuilds every projection from the raw event stream.
func runAggregate(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, logger *slog.Logger) error {
	src := postgres.NewEventRepository(pool, cfg.ETL.ReadChunkSize, logger)
	store := postgres.NewProjectionRepository(pool)
	var job port.AggregateUseCase = usecase.NewAggregateJob(src, store, cfg.ETL, logger)
	return report(logger, "aggregate")(job.Run(ctx))
}

// report logs the job summary and passes the job error through.
func report(logger *slog.Logger, job string) func(port.JobSummary, error) error {
	return func(summary port.JobSummary, err error) error {
		logger.Info("job finished",
			slog.String("job", job),
			slog.Int("events_scanned", summary.EventsScanned),
			slog.Int("rows_skipped", summary.RowsSkipped),
			slog.Int("rows_written", summary.RowsWritten),
			slog.Int("failed_batches", summary.FailedBatches),
		)
		return err
	}
}
