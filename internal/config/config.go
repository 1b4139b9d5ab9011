package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	AppName  string `env:"APP_NAME"  envDefault:"WebSocket Chat API" validate:"required"`
	AppEnv   string `env:"APP_ENV"   envDefault:"dev"                validate:"oneof=dev prod"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"               validate:"oneof=debug info warn error"`

	HttpHost       string   `env:"HTTP_HOST"        envDefault:"0.0.0.0"`
	HttpServerPort uint16   `env:"HTTP_SERVER_PORT" envDefault:"8004" validate:"min=1000,max=65535"`
	CorsOrigins    []string `env:"CORS_ORIGINS"     envDefault:"http://localhost:8004,http://127.0.0.1:8004" envSeparator:","`
	StaticDir      string   `env:"STATIC_DIR"       envDefault:"static"`

	DefaultRoom string `env:"DEFAULT_ROOM" envDefault:"lobby" validate:"required,max=64"`

	WsReadLimit  int64         `env:"WS_READ_LIMIT"  envDefault:"32768" validate:"min=32768"`
	WsWriteWait  time.Duration `env:"WS_WRITE_WAIT"  envDefault:"10s"   validate:"gt=0"`
	WsPongWait   time.Duration `env:"WS_PONG_WAIT"   envDefault:"60s"   validate:"gt=0"`
	WsPingPeriod time.Duration `env:"WS_PING_PERIOD" envDefault:"54s"   validate:"gt=0,ltfield=WsPongWait"`

	RateLimitBurst    int           `env:"RATE_LIMIT_BURST"    envDefault:"5"  validate:"min=1"`
	RateLimitInterval time.Duration `env:"RATE_LIMIT_INTERVAL" envDefault:"1s" validate:"gt=0"`

	RedisEnabled bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost    string `env:"REDIS_HOST"    envDefault:"localhost"`
	RedisPort    uint16 `env:"REDIS_PORT"    envDefault:"6379" validate:"min=1000,max=65535"`
	RedisDb      int    `env:"REDIS_DB"      envDefault:"0"    validate:"min=0"`

	AuditEnabled       bool          `env:"AUDIT_ENABLED"        envDefault:"false"`
	AuditBatchSize     int           `env:"AUDIT_BATCH_SIZE"     envDefault:"100" validate:"min=1"`
	AuditFlushInterval time.Duration `env:"AUDIT_FLUSH_INTERVAL" envDefault:"2s"  validate:"gt=0"`

	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"chat_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"chat_password"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"chat_db"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s" validate:"gt=0"`
}

// ListenAddr is the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.HttpHost, c.HttpServerPort)
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	// Validate the config
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
