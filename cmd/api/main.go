package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"thumbnail-service/internal/config"
	"thumbnail-service/internal/domain"
	"thumbnail-service/internal/history"
	"thumbnail-service/internal/metrics"
	"thumbnail-service/internal/repository"
	"thumbnail-service/internal/router"
	"thumbnail-service/internal/server"
	"thumbnail-service/internal/telemetry"
	"thumbnail-service/internal/thumbnail"
	"thumbnail-service/internal/util"
)

func LoggerInitialize(cfg config.LoggingConfig) (*util.ServiceLogger, error) {

	logger := &util.ServiceLogger{}

	ConstructAndCreateLogFolder(cfg)

	err := logger.Init(util.LogOptions{
		FileName:   cfg.File,
		Stderr:     cfg.Stderr,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
	})
	if err != nil {
		fmt.Println("Failed to initialize logger:", err)
		return nil, err
	}

	logger.LogEvent(util.LOG_LEVEL_INFO, "Service started")

	currentTime := time.Now().Format(time.RFC3339)

	fmt.Fprintf(os.Stderr, "\n%s: Thumbnail service started \n", currentTime)

	return logger, nil
}

func main() {

	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to load .env.local:", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error while loading the configuration..", err)
		os.Exit(1)
	}

	logger, err := LoggerInitialize(cfg.Logging)
	if err != nil {
		fmt.Println("Error while initializing the logger..", err)
		os.Exit(1)
	}

	err = run(cfg, logger)
	if err != nil {
		logger.LogEvent(util.LOG_LEVEL_ERROR, "Service stopped with error. Err -", err)
		fmt.Fprintln(os.Stderr, "Thumbnail service failed:", err)
	}
	logger.DeInit()

	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *util.ServiceLogger) error {

	tm := telemetry.New()

	processor, err := thumbnail.NewProcessor(thumbnail.ProcessorConfig{
		Concurrency: cfg.Thumbnail.Concurrency,
		JPEGQuality: cfg.Thumbnail.JPEGQuality,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create image processor: %w", err)
	}
	defer processor.Close()

	var transformer thumbnail.Transformer = processor
	if cfg.Thumbnail.CacheEntries > 0 {
		cached, err := thumbnail.NewCachedTransformer(processor, cfg.Thumbnail.CacheEntries, tm)
		if err != nil {
			return fmt.Errorf("failed to create thumbnail cache: %w", err)
		}
		transformer = cached
	}

	collector := metrics.NewCollector()

	var store domain.SnapshotStore
	if cfg.History.Enabled {
		util.CheckAndCreateLogFolder(filepath.Dir(cfg.History.DBPath))

		sqliteStore := repository.NewSQLiteStore(cfg.History.DBPath)
		if err := sqliteStore.Init(); err != nil {
			return fmt.Errorf("failed to initialize snapshot store: %w", err)
		}
		defer sqliteStore.Close()
		store = sqliteStore
	}

	r := router.NewRouter(router.Dependencies{
		Transformer: transformer,
		Collector:   collector,
		Store:       store,
		Telemetry:   tm,
		Logger:      logger,
	})

	session := server.NewSession(r, server.SessionConfig{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, logger, tm)

	acceptor := server.NewAcceptor(session, server.AcceptorConfig{MaxSessions: cfg.Server.MaxSessions}, logger, tm)
	if err := acceptor.Start(cfg.Server.Host, cfg.Server.Port); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Thumbnail service listening on %s\n", acceptor.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	var recorder *history.Recorder
	if store != nil {
		recorder = history.NewRecorder(collector, store, cfg.History.Interval, logger)
		g.Go(func() error {
			return recorder.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.LogEvent(util.LOG_LEVEL_INFO, "Shutdown requested. grace period -", cfg.Server.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := acceptor.Stop(shutdownCtx); err != nil {
			logger.LogEvent(util.LOG_LEVEL_WARN, "Shutdown incomplete. Err -", err)
		}
		return nil
	})

	err = g.Wait()

	if recorder != nil {
		recorder.RecordOnce(context.Background())
	}

	return err
}

func ConstructAndCreateLogFolder(cfg config.LoggingConfig) {
	util.SetLoggerPath(cfg.Dir)
	util.CheckAndCreateLogFolder(cfg.Dir)
	util.SetCommonLoggerAttributes(util.ParseLogLevel(cfg.Level))
}
