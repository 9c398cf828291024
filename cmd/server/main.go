package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/shadowcraft/shadowcraft-server-go/internal/cardlib"
	"github.com/shadowcraft/shadowcraft-server-go/internal/config"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game"
	"github.com/shadowcraft/shadowcraft-server-go/internal/logging"
	"github.com/shadowcraft/shadowcraft-server-go/internal/metrics"
	"github.com/shadowcraft/shadowcraft-server-go/internal/server"
)

var (
	configPath = flag.String("config", "config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting shadowcraft server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Create context that listens for termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	library, err := cardlib.Load(ctx, cfg.Library, logger)
	if err != nil {
		logger.Fatal("failed to load card library", zap.Error(err))
	}

	engine := game.NewEngine(logger, library, game.RuleSetFromConfig(cfg.Rules))
	logger.Info("game engine initialized", zap.Int("cards", library.Len()))

	if cfg.Replay.Enabled {
		engine.SetRecorder(game.NewReplayRecorder(logger.Named("replay"), cfg.Replay.Dir))
		logger.Info("recording replays", zap.String("dir", cfg.Replay.Dir))
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		collector := metrics.NewCollector("shadowcraft")
		engine.Subscribe(collector.Observe)

		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, collector.Handler())
		metricsServer = &http.Server{Addr: cfg.Metrics.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("starting metrics server", zap.String("address", cfg.Metrics.Address))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	hub := server.NewHub(engine, cfg.Server.WebSocket, logger)
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Server.WebSocket.Path, hub.ServeWS)
	wsServer := &http.Server{Addr: cfg.Server.WebSocket.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("starting websocket server",
			zap.String("address", cfg.Server.WebSocket.Address),
			zap.String("path", cfg.Server.WebSocket.Path),
		)
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("websocket server error", zap.Error(err))
		}
	}()

	// Wait for termination signal
	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("websocket server shutdown", zap.Error(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}
	for _, id := range engine.Games() {
		if err := engine.EndGame(id); err != nil {
			logger.Warn("failed to end game", zap.String("game_id", id), zap.Error(err))
		}
	}

	logger.Info("shadowcraft server stopped")
}
