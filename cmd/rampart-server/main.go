package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/triage-ai/rampart/internal/api"
	"github.com/triage-ai/rampart/internal/audit"
	"github.com/triage-ai/rampart/internal/config"
	"github.com/triage-ai/rampart/internal/policy"
	"github.com/triage-ai/rampart/internal/registry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	// Logger
	logger := mustBuildLogger(envOrDefault("RAMPART_LOG_LEVEL", "info"))
	defer logger.Sync() //nolint:errcheck // best-effort flush

	// Config from env
	httpPort := envOrDefault("RAMPART_HTTP_PORT", "8080")
	policyFile := envOrDefault("RAMPART_POLICY_FILE", "policy.yaml")
	registryFile := envOrDefault("RAMPART_REGISTRY_FILE", "registry.json")
	cacheTTL := envOrDefaultInt("RAMPART_CONFIG_TTL_S", 30)
	defaultPreset := os.Getenv("RAMPART_DEFAULT_PRESET")
	compatMode := envOrDefault("RAMPART_COMPAT_MODE", "block")
	pinTimeout := envOrDefaultInt("RAMPART_PIN_TIMEOUT_S", 30)
	adminKey := os.Getenv("RAMPART_ADMIN_KEY")
	adminKeyHash := os.Getenv("RAMPART_ADMIN_KEY_HASH")
	clickhouseDSN := os.Getenv("CLICKHOUSE_DSN")

	logger.Info("starting rampart server",
		zap.String("http_port", httpPort),
		zap.String("policy_file", policyFile),
		zap.String("registry_file", registryFile),
		zap.Int("config_ttl_s", cacheTTL),
		zap.String("compat_mode", compatMode),
	)

	if adminKey == "" && adminKeyHash == "" {
		logger.Warn("no RAMPART_ADMIN_KEY or RAMPART_ADMIN_KEY_HASH set, registry API will reject all requests")
	}

	// Shared config cache + fsnotify invalidation. Watch blocks until its
	// context is cancelled, so it gets its own goroutine.
	cfgStore := config.NewStore(time.Duration(cacheTTL)*time.Second, logger)
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go func() {
		err := cfgStore.Watch(watchCtx, policyFile, registryFile)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("config file watch unavailable, relying on TTL expiry", zap.Error(err))
		}
	}()

	presets := config.NewPresetSource(cfgStore, policyFile)
	regStore := registry.NewStore(registryFile, cfgStore, logger)

	// Decision-event sink — ClickHouse or LogWriter fallback
	var writer audit.EventWriter
	if clickhouseDSN != "" {
		chWriter, err := audit.NewClickHouseWriter(clickhouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer", zap.Error(err))
			writer = audit.NewLogWriter(logger)
		} else {
			writer = chWriter
			logger.Info("clickhouse writer connected")
		}
	} else {
		writer = audit.NewLogWriter(logger)
		logger.Info("no CLICKHOUSE_DSN set, using log writer")
	}
	defer writer.Close()

	// Policy engine
	engine := policy.NewEngine(policy.EngineConfig{
		Presets:       presets,
		DefaultPreset: defaultPreset,
		DefaultMode:   policy.ParseMode(compatMode),
		Catalog:       regStore,
		Writer:        writer,
		Logger:        logger,
	})

	// Registry pinner
	fetcher := registry.NewMCPFetcher(logger)
	pinner := registry.NewPinner(regStore, fetcher, presets, time.Duration(pinTimeout)*time.Second, logger)

	// HTTP server
	deps := &api.Dependencies{
		Registry:     regStore,
		Pinner:       pinner,
		Engine:       engine,
		Logger:       logger,
		AdminKey:     adminKey,
		AdminKeyHash: adminKeyHash,
	}
	httpServer := &http.Server{
		Addr:         ":" + httpPort,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Block until shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("rampart server stopped")
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
