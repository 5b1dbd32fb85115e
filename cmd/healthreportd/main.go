package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/health-reports/internal/async"
	"github.com/joseph-ayodele/health-reports/internal/common"
	"github.com/joseph-ayodele/health-reports/internal/export"
	"github.com/joseph-ayodele/health-reports/internal/ingest"
	"github.com/joseph-ayodele/health-reports/internal/pipeline"
	repo "github.com/joseph-ayodele/health-reports/internal/repository"
	"github.com/joseph-ayodele/health-reports/internal/server"
)

func main() {
	_ = godotenv.Load()
	cfg := common.LoadConfig()

	// Drop time from text output, keep level and attributes
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if cfg.Provider.APIKey == "" {
		logger.Warn("OPENROUTER_API_KEY is not set; requests must carry X-OpenRouter-Key")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer server.CloseDB(db, logger)

	if err := server.PingDB(ctx, db, logger, 5*time.Second); err != nil {
		os.Exit(1)
	}

	reports := repo.NewReportRepository(db, logger)
	comps, err := pipeline.Build(cfg, reports, logger)
	if err != nil {
		logger.Error("failed to wire pipeline", "error", err)
		os.Exit(1)
	}
	svc := server.NewReportService(
		comps.Processor,
		reports,
		export.NewService(reports, logger),
		comps.Directory,
		cfg.Provider.APIKey,
		logger,
	)

	// gRPC
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := server.NewServer(svc, int(cfg.Server.MaxUploadBytes), logger)
	go func() {
		logger.Info("health-reports gRPC listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	// HTTP
	httpServer := &http.Server{
		Addr: cfg.Server.HTTPAddr,
		Handler: server.NewHTTPHandler(svc, func(ctx context.Context) error {
			return db.HealthCheck(ctx, 2*time.Second)
		}, cfg.Server.MaxUploadBytes, logger),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("health-reports HTTP listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP serve error", "error", err)
			stop()
		}
	}()

	// Inbox watcher
	var queue *async.ProcessorQueue
	if cfg.Inbox.Dir != "" {
		queue = async.NewProcessorQueue(comps.Processor,
			func() string { return cfg.Provider.APIKey },
			logger,
			async.WithProcessTimeout(cfg.Inbox.ProcessTimeout),
		)
		if err := startInbox(ctx, cfg.Inbox, queue, logger); err != nil {
			logger.Error("failed to start inbox watcher", "dir", cfg.Inbox.Dir, "error", err)
			os.Exit(1)
		}
	}

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if queue != nil {
		queue.Shutdown(shutdownCtx)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("stopped")
}

func startInbox(ctx context.Context, cfg common.InboxConfig, queue async.Queue, logger *slog.Logger) error {
	paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Dir},
		InitialScan: true,
		SkipHidden:  true,
		Debounce:    cfg.Debounce,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	logger.Info("inbox watching", "dir", cfg.Dir)

	go func() {
		for {
			select {
			case p, ok := <-paths:
				if !ok {
					return
				}
				job := async.Job{Path: p, SubmittedAt: time.Now()}
				if err := queue.Enqueue(ctx, job); err != nil {
					logger.Warn("inbox enqueue failed", "path", p, "error", err)
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				logger.Warn("inbox watcher error", "error", err)
			}
		}
	}()
	return nil
}
