package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"govportal/internal/events"
	intakehandler "govportal/internal/intake/handler"
	"govportal/internal/intake/service"
	"govportal/internal/intake/store"
	"govportal/internal/intake/upload"
	"govportal/internal/objectstore"
	"govportal/internal/platform/config"
	"govportal/internal/platform/httpserver"
	"govportal/internal/platform/logger"
	"govportal/internal/platform/metrics"
	"govportal/internal/platform/postgres"
	"govportal/internal/platform/redis"
	"govportal/internal/ratelimit"
	httptransport "govportal/internal/transport/http"
)

func main() {
	if err := config.LoadDotEnv(os.Getenv("PORTAL_ENV_FILE")); err != nil {
		fmt.Fprintf(os.Stderr, "load env file: %v\n", err)
		os.Exit(1)
	}
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	m := metrics.NewWithRegistry(prometheus.DefaultRegisterer)
	missing := cfg.Missing()
	if len(missing) > 0 {
		log.Error("configuration incomplete, intake requests will be refused",
			"missing", strings.Join(missing, ","))
	}

	var checks []httptransport.HealthChecker

	records, closeRecords, err := buildRecords(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeRecords()
	if hc, ok := records.(httptransport.HealthChecker); ok {
		checks = append(checks, hc)
	}

	objects, filesDir, err := buildObjects(cfg)
	if err != nil {
		return err
	}

	limiter, rdb := buildRateLimiter(ctx, cfg, log, m)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		checks = append(checks, rdb)
	}

	publisher := buildPublisher(ctx, cfg.Kafka, log)
	defer publisher.Close()

	uploader := upload.New(objects, log,
		upload.WithTimeout(cfg.Intake.UploadTimeout),
		upload.WithConcurrency(cfg.Intake.UploadConcurrency),
		upload.WithMetrics(m),
	)
	svc := service.New(records, uploader, log,
		service.WithEvents(publisher),
		service.WithMetrics(m),
		service.WithMissingConfig(missing),
	)
	intake := intakehandler.New(svc, log,
		intakehandler.WithMaxUploadBytes(cfg.Intake.MaxUploadBytes),
		intakehandler.WithRateLimiter(limiter),
		intakehandler.WithMetrics(m),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        m,
		Intake:         intake,
		AllowedOrigins: cfg.AllowedOrigins,
		Checks:         checks,
		MissingConfig:  missing,
		FilesDir:       filesDir,
	})
	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting govportal", "addr", cfg.Addr,
			"records", cfg.Database.Driver, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func buildRecords(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (service.RecordStore, func(), error) {
	if cfg.Driver != config.RecordsPostgres || cfg.URL == "" {
		log.Warn("using in-memory record store; submissions are lost on restart")
		return store.NewMemory(), func() {}, nil
	}

	pool, err := postgres.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	pg := store.NewPostgres(pool.Pool)
	if cfg.AutoMigrate {
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("apply schema: %w", err)
		}
		log.Info("database schema ensured")
	}
	return &pgRecords{Postgres: pg, pool: pool}, pool.Close, nil
}

// pgRecords exposes the pool's health alongside the record store.
type pgRecords struct {
	*store.Postgres
	pool *postgres.Pool
}

func (p *pgRecords) Name() string                     { return p.pool.Name() }
func (p *pgRecords) Health(ctx context.Context) error { return p.pool.Health(ctx) }

// buildObjects returns the configured attachment store and, for the
// filesystem driver, the directory to serve under /files/.
func buildObjects(cfg config.Server) (upload.Store, string, error) {
	switch cfg.Storage.Driver {
	case config.StorageFilesystem:
		base := cfg.Storage.PublicURL
		if base == "" {
			base = localBaseURL(cfg.Addr) + "/files"
		}
		fs, err := objectstore.NewFilesystem(cfg.Storage.Dir, base)
		if err != nil {
			return nil, "", err
		}
		return fs, fs.Root(), nil
	case config.StorageMemory:
		return objectstore.NewMemory(localBaseURL(cfg.Addr) + "/files"), "", nil
	default:
		return objectstore.NewREST(cfg.Storage.URL, cfg.Storage.ServiceKey,
			objectstore.WithPublicURL(cfg.Storage.PublicURL)), "", nil
	}
}

func localBaseURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// buildRateLimiter prefers Redis so limits hold across replicas. Without
// Redis each instance limits on its own.
func buildRateLimiter(ctx context.Context, cfg config.Server, log *slog.Logger, m *metrics.Metrics) (*ratelimit.Middleware, *redis.Client) {
	if cfg.Intake.RateLimit <= 0 {
		log.Warn("submission rate limiting disabled", "limit", cfg.Intake.RateLimit)
		return nil, nil
	}
	local := ratelimit.NewMemoryLimiter(cfg.Intake.RateLimit, cfg.Intake.RateWindow)

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, rate limiting per instance", "error", err)
	}
	if err != nil || rdb == nil {
		return ratelimit.NewMiddleware(local, log, ratelimit.WithMetrics(m)), nil
	}

	primary := ratelimit.NewRedisLimiter(rdb.Client, cfg.Intake.RateLimit, cfg.Intake.RateWindow)
	mw := ratelimit.NewMiddleware(primary, log,
		ratelimit.WithFallback(local),
		ratelimit.WithMetrics(m),
	)
	return mw, rdb
}

func buildPublisher(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger) events.Publisher {
	if len(cfg.Brokers) == 0 {
		return events.Noop{}
	}
	k, err := events.NewKafka(cfg.Brokers, cfg.Topic, log)
	if err != nil {
		log.Warn("submission events disabled", "error", err)
		return events.Noop{}
	}
	topicCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := k.EnsureTopic(topicCtx, -1, -1); err != nil {
		log.Warn("could not ensure submission topic", "topic", cfg.Topic, "error", err)
	}
	return k
}
