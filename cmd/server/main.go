package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/todo-app/internal/config"
	"github.com/benvon/todo-app/internal/handlers"
	"github.com/benvon/todo-app/internal/logger"
	"github.com/benvon/todo-app/internal/middleware"
	"github.com/benvon/todo-app/internal/queue"
	"github.com/benvon/todo-app/internal/server"
	"github.com/benvon/todo-app/internal/store"
	"github.com/benvon/todo-app/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	rabbitMQMaxRetries   = 10
	rabbitMQInitialDelay = 2 * time.Second
	shutdownTimeout      = 30 * time.Second
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		// stderr sync errors are expected on some platforms
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Bool("redis_configured", cfg.RedisURL != ""),
		zap.Bool("rabbitmq_configured", cfg.RabbitMQURL != ""),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracing := false
	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(ctx, logger.ServiceName, cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracing = true
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	healthChecks := map[string]handlers.CheckFunc{}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisLimiter, err := middleware.NewRedisRateLimiter(ctx, cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisLimiter.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		redisClient = redisLimiter.Client()
		healthChecks["redis"] = redisLimiter.Ping
		zapLogger.Info("connected_to_redis")
	}

	var publisher queue.Publisher = queue.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		rmq, err := queue.ConnectWithRetry(ctx, cfg.RabbitMQURL, rabbitMQMaxRetries, rabbitMQInitialDelay, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
				zap.Int("max_retries", rabbitMQMaxRetries),
				zap.Error(err),
			)
		}
		defer func() {
			if err := rmq.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		publisher = rmq
		healthChecks["rabbitmq"] = rmq.HealthCheck
		zapLogger.Info("connected_to_rabbitmq", zap.String("exchange", queue.DefaultExchangeName))
	}

	var registry *prometheus.Registry
	if cfg.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	todoStore := store.NewMemoryStore(store.WithLogger(zapLogger))

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Config:       cfg,
		Store:        todoStore,
		Publisher:    publisher,
		Logger:       zapLogger,
		Redis:        redisClient,
		Registry:     registry,
		HealthChecks: healthChecks,
		Tracing:      tracing,
	})
	if err != nil {
		zapLogger.Fatal("failed_to_build_http_handler", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serveErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			zapLogger.Error("server_failed_to_start", zap.Error(err))
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	zapLogger.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}
