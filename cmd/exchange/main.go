package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cofleet/exchange/internal/config"
	"github.com/cofleet/exchange/internal/domain"
	"github.com/cofleet/exchange/internal/engine"
	"github.com/cofleet/exchange/internal/handler"
	"github.com/cofleet/exchange/internal/service"
	"github.com/cofleet/exchange/internal/snapshot"
	"github.com/cofleet/exchange/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load .env if present, then configuration from the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Instantiate stores.
	orders := store.NewOrderStore()
	ledger := store.NewTradeLedger()
	volumes := store.NewVolumeCache()

	directory := store.NewDirectory()
	if err := directory.LoadFile(filepath.Join(cfg.DataDir, "participants.json")); err != nil {
		logger.Error("failed to load participant directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Instruments. Unregistered symbols land on the ETS desk.
	instruments := domain.NewInstrumentRegistry("ETS")
	instruments.Register(domain.Instrument{Symbol: "EUA", Desk: "ETS"})
	instruments.Register(domain.Instrument{Symbol: "FEM", Desk: "FuelEU", Negotiated: true})

	// Replay the persisted snapshot: orders back into the store and
	// the books, the ledger as-is, the volume cache from the ledger.
	books := engine.NewBookManager()
	snap, err := snapshot.Load(cfg.DataDir)
	if err != nil {
		logger.Error("failed to load snapshot", slog.String("error", err.Error()))
		os.Exit(1)
	}
	orders.LoadAll(snap.Orders)
	ledger.LoadAll(snap.Trades)
	volumes.Rebuild(ledger.All())
	for _, o := range snap.Orders {
		books.GetOrCreate(o.Symbol).Insert(o)
	}

	// Persistence collaborator (write-behind).
	snapshots := snapshot.NewFileWriter(cfg.DataDir, logger)
	snapshots.Start()

	// Engine and services.
	matcher := engine.NewMatcher(books, orders, ledger, volumes)
	notifier := service.NewGatewayNotifier(cfg.NotifyURL, cfg.NotifyTimeout, logger)

	tradingSvc := service.NewTradingService(books, matcher, orders, ledger, volumes, directory, instruments, notifier, snapshots, logger)
	rfqSvc := service.NewRFQService(books, orders, ledger, volumes, directory, instruments, notifier, snapshots, logger)
	negotiationSvc := service.NewNegotiationService(books, orders, ledger, volumes, directory, instruments, notifier, snapshots, logger)
	marketSvc := service.NewMarketService(books, ledger, volumes, cfg.VWAPWindow, cfg.DepthLevels)

	// Router.
	router := handler.NewRouter(tradingSvc, rfqSvc, negotiationSvc, marketSvc, logger)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, then flush the snapshot writer.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	snapshots.Stop()

	logger.Info("server stopped")
}
