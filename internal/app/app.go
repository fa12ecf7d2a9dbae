package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/shortlinks/internal/adapter/delivery/http"
	"github.com/vadimbarashkov/shortlinks/internal/adapter/evaluation"
	"github.com/vadimbarashkov/shortlinks/internal/adapter/repository/file"
	"github.com/vadimbarashkov/shortlinks/internal/adapter/repository/memory"
	pgrepo "github.com/vadimbarashkov/shortlinks/internal/adapter/repository/postgres"
	redisrepo "github.com/vadimbarashkov/shortlinks/internal/adapter/repository/redis"
	"github.com/vadimbarashkov/shortlinks/internal/adapter/repository/store"
	"github.com/vadimbarashkov/shortlinks/internal/config"
	"github.com/vadimbarashkov/shortlinks/internal/metrics"
	"github.com/vadimbarashkov/shortlinks/internal/shortcode"
	"github.com/vadimbarashkov/shortlinks/internal/usecase"
	"github.com/vadimbarashkov/shortlinks/pkg/postgres"
)

const shutdownTimeout = 10 * time.Second

type logSink interface {
	Log(level, pkg, message string)
}

// NewLogger builds the request and application logger from cfg.
func NewLogger(cfg *config.Config) *httplog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}

	return httplog.NewLogger("url-shortener", httplog.Options{
		LogLevel:        level,
		JSON:            cfg.Log.JSON,
		Concise:         cfg.Log.Concise,
		RequestHeaders:  cfg.Env != config.EnvProd,
		QuietDownRoutes: []string{"/api/v1/ping", "/metrics"},
		QuietDownPeriod: 10 * time.Second,
		Tags: map[string]string{
			"env": cfg.Env,
		},
	})
}

func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := NewLogger(cfg)

	slot, closeSlot, err := newSlot(ctx, cfg, logger.Logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer closeSlot()

	m := metrics.New()

	g, ctx := errgroup.WithContext(ctx)

	var sink logSink = evaluation.NopSink{}
	if cfg.Evaluation.Enabled {
		s := newSink(cfg, slot, m, logger.Logger)
		g.Go(func() error {
			return s.Run(ctx)
		})
		sink = s
	}

	router := newRouter(cfg, logger, slot, sink, m)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g.Go(func() error {
		logger.Info("starting server",
			slog.String("addr", server.Addr),
			slog.String("env", cfg.Env),
			slog.String("storage", cfg.Storage.Driver),
		)

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info("shutting down server")

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

// newRouter assembles the use case and HTTP router on top of slot.
func newRouter(cfg *config.Config, logger *httplog.Logger, slot store.Slot, sink logSink, m *metrics.Metrics) http.Handler {
	shortener := usecase.NewShortener(
		shortcode.NewGenerator(cfg.Shortener.CodeLength),
		usecase.WithDefaultValidity(cfg.Shortener.DefaultValidityMinutes),
		usecase.WithMaxBatchSize(cfg.Shortener.MaxBatchSize),
		usecase.WithRejectBatchDuplicates(cfg.Shortener.RejectBatchDuplicates),
		usecase.WithReservedCodes(delivery.ReservedCodes()...),
	)

	urlUseCase := usecase.NewURLUseCase(
		store.New(slot, cfg.Storage.Key, logger.Logger),
		shortener,
		usecase.WithLogSink(sink),
		usecase.WithRecorder(m),
		usecase.WithLogger(logger.Logger),
		usecase.WithBlockExpired(cfg.Redirect.BlockExpired),
		usecase.WithDefaultSource(cfg.Redirect.DefaultSource),
	)

	return delivery.NewRouter(logger, urlUseCase,
		delivery.WithBaseURL(cfg.BaseURL),
		delivery.WithMetrics(m),
	)
}

// Register enrols the configured identity with the evaluation service and
// returns the issued client credentials.
func Register(ctx context.Context, cfg *config.Config) (*evaluation.RegistrationResult, error) {
	const op = "app.Register"

	client := evaluation.NewClient(cfg.Evaluation.BaseURL, evaluation.WithTimeout(cfg.Evaluation.Timeout))

	res, err := client.Register(ctx, evaluation.Registration{
		Email:      cfg.Evaluation.Email,
		Name:       cfg.Evaluation.Name,
		RollNo:     cfg.Evaluation.RollNo,
		AccessCode: cfg.Evaluation.AccessCode,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

func newSink(cfg *config.Config, slot store.Slot, m *metrics.Metrics, logger *slog.Logger) *evaluation.Sink {
	client := evaluation.NewClient(cfg.Evaluation.BaseURL, evaluation.WithTimeout(cfg.Evaluation.Timeout))
	tokens := evaluation.NewTokenStore(slot, evaluation.DefaultTokenKey)

	creds := evaluation.Credentials{
		Email:        cfg.Evaluation.Email,
		Name:         cfg.Evaluation.Name,
		RollNo:       cfg.Evaluation.RollNo,
		AccessCode:   cfg.Evaluation.AccessCode,
		ClientID:     cfg.Evaluation.ClientID,
		ClientSecret: cfg.Evaluation.ClientSecret,
	}

	return evaluation.NewSink(client, tokens, creds,
		evaluation.WithQueueSize(cfg.Evaluation.QueueSize),
		evaluation.WithStack(cfg.Evaluation.Stack),
		evaluation.WithDropCounter(m),
		evaluation.WithLogger(logger),
	)
}

// newSlot opens the durable slot selected by the storage driver. The returned
// func releases the underlying connection.
func newSlot(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Slot, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return memory.NewSlot(), func() {}, nil

	case config.DriverFile:
		slot, err := file.NewSlot(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file storage: %w", err)
		}
		return slot, func() {}, nil

	case config.DriverRedis:
		rdb, err := redisrepo.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisrepo.NewSlot(rdb, cfg.Storage.RedisPrefix), func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("failed to close redis client", slog.Any("err", err))
			}
		}, nil

	case config.DriverPostgres:
		db, err := postgres.New(
			ctx,
			cfg.Postgres.DSN(),
			postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
			postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
			postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
			postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		version, err := postgres.RunMigrations(cfg.Postgres.MigrationsPath, cfg.Postgres.DSN())
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("database schema is up to date", slog.Uint64("version", uint64(version)))

		return pgrepo.NewSlot(db), func() {
			if err := db.Close(); err != nil {
				logger.Warn("failed to close database", slog.Any("err", err))
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown storage driver %q", config.ErrInvalidConfig, cfg.Storage.Driver)
	}
}
