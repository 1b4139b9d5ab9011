package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomchatgo/internal/audit"
	"roomchatgo/internal/config"
	"roomchatgo/internal/database/db_client"
	"roomchatgo/internal/http/http_server"
	"roomchatgo/internal/metrics"
	"roomchatgo/internal/ratelimit"
	"roomchatgo/internal/redis/redis_client"
	"roomchatgo/internal/redis/redis_functions"
	"roomchatgo/internal/ws"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Log, _ = zap.NewDevelopment()
)

// @title		WebSocket Chat API
// @version	1.0
// @BasePath	/
func main() {
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// 2. Logger for the configured environment
	if Log, err = newLogger(cfg); err != nil {
		zap.L().Fatal("Failed to build logger", zap.Error(err))
	}
	defer Log.Sync()
	zap.ReplaceGlobals(Log)
	Log.Debug("Configuration loaded successfully", zap.String("app", cfg.AppName), zap.String("env", cfg.AppEnv))

	// 3. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 4. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	chatMetrics := metrics.New(reg)

	// 5. Rate limiter: Redis when shared across instances, in-memory otherwise
	var limiter ratelimit.Limiter = ratelimit.NewBuckets(cfg.RateLimitBurst, cfg.RateLimitInterval)
	if cfg.RedisEnabled {
		redisClient, err := redis_client.NewRedisClient(ctx, cfg.RedisHost, cfg.RedisPort, cfg.RedisDb)
		if err != nil {
			Log.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()

		if err := redis_functions.LoadAll(ctx, redisClient, ratelimit.Scripts()...); err != nil {
			Log.Fatal("load-redis-scripts", zap.Error(err))
		}
		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimitBurst, cfg.RateLimitInterval)
		Log.Debug("Redis rate limiter enabled")
	}

	// 6. Membership audit log
	var recorder audit.Recorder = audit.Nop{}
	var auditWriter *audit.Writer
	auditCtx, stopAudit := context.WithCancel(context.Background())
	defer stopAudit()
	if cfg.AuditEnabled {
		var pgDb *sql.DB
		pgDb, err = db_client.Open(ctx, cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
		if err != nil {
			Log.Fatal("pg-open", zap.Error(err))
		}
		defer pgDb.Close()

		store := audit.NewPostgresStore(pgDb)
		if err := store.EnsureSchema(ctx); err != nil {
			Log.Fatal("audit-schema", zap.Error(err))
		}
		auditWriter = audit.NewWriter(store, cfg.AuditBatchSize, cfg.AuditFlushInterval)
		go auditWriter.Run(auditCtx)
		recorder = auditWriter
	}

	// 7. Room registry + websocket sessions
	hub := ws.NewHub(ws.WithMetrics(chatMetrics), ws.WithAudit(recorder))
	wsSrv := ws.NewWsServer(hub, limiter, ws.Options{
		DefaultRoom:    cfg.DefaultRoom,
		AllowedOrigins: cfg.CorsOrigins,
		ReadLimit:      cfg.WsReadLimit,
		WriteWait:      cfg.WsWriteWait,
		PongWait:       cfg.WsPongWait,
		PingPeriod:     cfg.WsPingPeriod,
	})

	// 8. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg, wsSrv, hub, reg)
	serveErr := make(chan error, 1)
	go func() { serveErr <- httpServer.Start() }()

	select {
	case <-ctx.Done():
		Log.Info("shutdown_signal")
	case err := <-serveErr:
		if err != nil {
			Log.Error("Failed to start HTTP server", zap.Error(err))
		}
	}

	// 9. Graceful shutdown: sessions first, then HTTP, then the audit tail
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := wsSrv.Shutdown(shutdownCtx); err != nil {
		Log.Warn("ws_shutdown", zap.Error(err))
	}
	_ = httpServer.Dispose()

	if auditWriter != nil {
		stopAudit()
		select {
		case <-auditWriter.Done():
		case <-time.After(cfg.ShutdownTimeout):
			Log.Warn("audit_flush_timeout")
		}
	}
	Log.Info("bye")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if cfg.AppEnv == "dev" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build(zap.Fields(zap.String("app", cfg.AppName)))
}
