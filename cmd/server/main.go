package main

import (
	"context"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/api/service"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/bot"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/config"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/db"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/hub"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/logger"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/repository"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/room"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/server"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/telemetry"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the yml config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize telemetry
	var stdoutTraces io.Writer
	if cfg.Otel.StdoutTraces {
		stdoutTraces = os.Stdout
	}
	shutdown, err := telemetry.InitOtel(ctx, telemetry.Options{
		Endpoint:     cfg.Otel.Endpoint,
		ServiceName:  cfg.Otel.ServiceName,
		StdoutTraces: stdoutTraces,
	})
	if err != nil {
		slog.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Error("error shutting down telemetry", "error", err)
		}
	}()

	logger.Init(cfg.LogLevel)

	// Session store
	var repo repository.SessionRepository
	if cfg.Redis.Addr != "" {
		rdb, err := db.NewRedisClient(ctx, cfg.Redis.Addr)
		if err != nil {
			slog.Error("failed to initialize redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		repo = repository.NewSessionRepository(rdb, cfg.SessionTTL)
		slog.Info("using redis session store", "redis.addr", cfg.Redis.Addr)
	} else {
		repo = repository.NewMemorySessionRepository(cfg.SessionTTL)
		slog.Info("using in-memory session store")
	}

	// Create hub
	h := hub.NewHub(repo, bot.NewRandomChooser(), hub.Options{
		SessionTTL: cfg.SessionTTL,
		Room:       room.Options{OpponentDelay: cfg.OpponentDelay},
	})
	go h.Run(ctx)

	sessionService := service.NewSessionService(h, []byte(cfg.JWTSecret), cfg.TokenTTL)
	srv := server.NewServer(sessionService)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: otelhttp.NewHandler(srv.Engine(), "http"),
	}

	go func() {
		slog.Info("http server started", "http.addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("ListenAndServe failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("server exiting")
}
