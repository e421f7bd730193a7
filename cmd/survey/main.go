package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/totegamma/survey-playground/internal/config"
	"github.com/totegamma/survey-playground/internal/infra/database"
	"github.com/totegamma/survey-playground/internal/infra/gateway"
	"github.com/totegamma/survey-playground/internal/infra/memory"
	"github.com/totegamma/survey-playground/internal/infra/repository"
	"github.com/totegamma/survey-playground/internal/present/rest"
	"github.com/totegamma/survey-playground/internal/service"
	"github.com/totegamma/survey-playground/internal/usecase"
)

const (
	serviceName    = "survey"
	serviceVersion = "0.1.0"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	conf, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.Server.EnableTrace {
		cleanup, err := setupTraceProvider(ctx, conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("failed to set up tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer cleanup()
	}

	store, err := openStore(ctx, conf.Server)
	if err != nil {
		slog.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var (
		events     usecase.EventPublisher = service.NopPublisher{}
		subscriber rest.Subscriber
	)
	if conf.Server.RedisAddr != "" {
		rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("failed to connect redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		signalService := service.NewSignalService(rdb)
		events = signalService
		subscriber = signalService
	}

	generator := service.NewGenerator(openai.NewClient(conf.OpenAI.APIKey), service.GeneratorConfig{
		Model:   conf.OpenAI.Model,
		Timeout: conf.OpenAI.Timeout.Std(),
		Retry: service.RetryPolicy{
			Interval:    conf.OpenAI.RetryInterval.Std(),
			MaxAttempts: conf.OpenAI.MaxAttempts,
		},
	})
	authGateway := gateway.NewAuthGateway(conf.Auth.URL, conf.Auth.APIKey, conf.Auth.Timeout.Std())

	handler := rest.NewHandler(
		usecase.NewSurveyUsecase(store, events),
		usecase.NewAISurveyUsecase(store, generator, events),
		usecase.NewResponseUsecase(store, events),
		usecase.NewAuthUsecase(store, authGateway),
		store,
		subscriber,
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware(serviceName))
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	handler.RegisterRoutes(e)

	go func() {
		addr := fmt.Sprintf(":%d", conf.Server.Port)
		slog.Info("server listening", slog.String("addr", addr), slog.String("storage", conf.Server.Storage))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", slog.String("error", err.Error()))
	}
}

func openStore(ctx context.Context, conf config.Server) (usecase.Store, error) {
	if conf.Storage == config.StorageMemory {
		slog.Warn("using in-memory storage, data is lost on restart")
		return memory.NewStore(), nil
	}

	db, err := database.NewPostgres(conf.PostgresDsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := database.MigratePostgres(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	store := repository.NewStore(db, conf.StoreTimeout.Std())
	if err := store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("database is not reachable: %w", err)
	}
	slog.Info("database connection established")
	return store, nil
}

func setupTraceProvider(ctx context.Context, endpoint string) (func(), error) {
	exporter, err := otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", serviceName),
		attribute.String("service.version", serviceVersion),
	)

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.1))),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			slog.Error("failed to shut down tracer provider", slog.String("error", err.Error()))
		}
	}
	return cleanup, nil
}
