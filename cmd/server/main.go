// Command server runs the plan generation service: the submission API,
// the dispatch trigger, and the liveness sweeper, wired to the
// configured store backend.
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

	goredis "github.com/redis/go-redis/v9"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	mongoopts "go.mongodb.org/mongo-driver/v2/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/vapodego/aibabyapp-project-sub001/api"
	"github.com/vapodego/aibabyapp-project-sub001/config"
	"github.com/vapodego/aibabyapp-project-sub001/event"
	"github.com/vapodego/aibabyapp-project-sub001/genai"
	"github.com/vapodego/aibabyapp-project-sub001/health"
	"github.com/vapodego/aibabyapp-project-sub001/middleware"
	"github.com/vapodego/aibabyapp-project-sub001/notify"
	"github.com/vapodego/aibabyapp-project-sub001/resolver"
	"github.com/vapodego/aibabyapp-project-sub001/store"
	memorystore "github.com/vapodego/aibabyapp-project-sub001/store/memory"
	mongostore "github.com/vapodego/aibabyapp-project-sub001/store/mongo"
	redisstore "github.com/vapodego/aibabyapp-project-sub001/store/redis"
	"github.com/vapodego/aibabyapp-project-sub001/worker"
)

func main() {
	confPath := flag.String("conf", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*confPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}

	client := genai.NewHTTPClient(cfg.GenAI.Endpoint, cfg.GenAI.APIKey,
		genai.WithRateLimit(cfg.GenAI.RateLimitPerSecond, cfg.GenAI.RateLimitBurst),
	)
	caller := genai.NewCaller(client, genai.DefaultPolicy(), logger)

	mws := []middleware.Middleware{
		middleware.Logging(logger),
		middleware.Recover(logger),
		middleware.Metrics(),
		middleware.Tracing(),
		middleware.Timeout(cfg.Worker.Budget, logger),
	}

	executor := worker.NewExecutor(st, caller, logger, mws,
		worker.WithModel(cfg.GenAI.Model),
		worker.WithMaxTokens(cfg.GenAI.MaxTokens),
		worker.WithSender(notify.NewLogSender(logger)),
	)

	bus := event.NewBus(cfg.Worker.DispatchBuffer)
	trigger := worker.NewTrigger(bus, executor, logger,
		worker.WithConcurrency(cfg.Worker.Concurrency),
		worker.WithBudget(cfg.Worker.Budget),
	)

	sweeper := health.NewSweeper(st, logger,
		health.WithSchedule(cfg.Sweeper.Schedule),
		health.WithStaleAfter(cfg.Sweeper.StaleAfter),
	)

	handler := api.New(st, resolver.NewStatic(nil), bus, logger).Handler()
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}

	if err := trigger.Start(ctx); err != nil {
		return fmt.Errorf("start trigger: %w", err)
	}
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		bus.Close()
		if err := trigger.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("trigger stop: %w", err))
		}
		if err := sweeper.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("sweeper stop: %w", err))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// openStore builds the configured store backend and returns a cleanup
// for the owned connections.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case "memory":
		return memorystore.New(), func() {}, nil

	case "mongo":
		client, err := mongod.Connect(mongoopts.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		cleanup := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warn("mongo disconnect failed", slog.String("error", err.Error()))
			}
		}
		st := mongostore.New(client.Database(cfg.Mongo.Database), mongostore.WithLogger(logger))
		if err := st.Ping(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("ping mongo: %w", err)
		}
		return st, cleanup, nil

	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cleanup := func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close failed", slog.String("error", err.Error()))
			}
		}
		st := redisstore.New(client, redisstore.WithLogger(logger))
		if err := st.Ping(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return st, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
