package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full runtime configuration, loaded from SURATDESA_*
// environment variables so main stays lean.
type Config struct {
	Env  string `default:"development"`
	Addr string `default:":8080"`

	// PostgresDSN switches persistence from in-memory to postgres when set.
	PostgresDSN string `envconfig:"POSTGRES_DSN"`

	// RedisURL switches reference numbering to the shared redis sequence
	// when set.
	RedisURL string `envconfig:"REDIS_URL"`

	// KafkaBrokers switches lifecycle notification from log-only to the
	// broker when set.
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"letter.lifecycle"`

	JWTSigningKey string `envconfig:"JWT_SIGNING_KEY" default:"dev-secret-key-change-in-production"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// FromEnv loads configuration from the environment.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("suratdesa", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
