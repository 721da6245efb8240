package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// Dataset handling.
	DataDir        string `envconfig:"DATA_DIR"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"268435456"`
	DatasetLimit   int    `envconfig:"DATASET_LIMIT" default:"16"`

	// Chart rendering defaults.
	ChartFormat         string  `envconfig:"CHART_FORMAT" default:"svg"`
	ChartWidthCM        float64 `envconfig:"CHART_WIDTH_CM" default:"24"`
	ChartHeightCM       float64 `envconfig:"CHART_HEIGHT_CM" default:"14"`
	TimeSeriesMaxPoints int     `envconfig:"TIMESERIES_MAX_POINTS" default:"5000"`

	// Analysis event publishing.
	KafkaEnabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"solar-eda-events"`
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.KafkaBrokers = trimBrokers(cfg.KafkaBrokers)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ShutdownTimeout <= 0 {
		return errors.New("invalid SHUTDOWN_TIMEOUT: must be positive")
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q: must be json or text", c.LogFormat)
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("invalid MAX_UPLOAD_BYTES: must be positive")
	}
	if c.DatasetLimit <= 0 {
		return errors.New("invalid DATASET_LIMIT: must be positive")
	}
	switch c.ChartFormat {
	case "svg", "png":
	default:
		return fmt.Errorf("invalid CHART_FORMAT %q: must be svg or png", c.ChartFormat)
	}
	if c.ChartWidthCM <= 0 {
		return errors.New("invalid CHART_WIDTH_CM: must be positive")
	}
	if c.ChartHeightCM <= 0 {
		return errors.New("invalid CHART_HEIGHT_CM: must be positive")
	}
	if c.TimeSeriesMaxPoints < 100 {
		return errors.New("invalid TIMESERIES_MAX_POINTS: must be at least 100")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if c.KafkaTopic == "" {
			return errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	return nil
}

func trimBrokers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, b := range in {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
