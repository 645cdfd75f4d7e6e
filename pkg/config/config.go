package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/hammerline/paddle/pkg/errs"
)

// Config holds all runtime configuration, populated from environment variables.
type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	RabbitMQURL string `envconfig:"RABBITMQ_URL" required:"true"`
	RedisURL    string `envconfig:"REDIS_URL"`

	LockTimeout   time.Duration `envconfig:"DB_LOCK_TIMEOUT" default:"3s"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	RelayInterval time.Duration `envconfig:"RELAY_INTERVAL" default:"1s"`
	RelayBatch    int           `envconfig:"RELAY_BATCH_SIZE" default:"10"`

	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errs.Wrap(err, "failed to process config")
	}
	return &cfg, nil
}
