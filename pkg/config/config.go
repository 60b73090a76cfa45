package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development" validate:"required"`
	Market      MarketConfig     `yaml:"market"`
	Logging     LoggingConfig    `yaml:"logging"`
	Indicators  IndicatorsConfig `yaml:"indicators"`
	GapFill     GapFillConfig    `yaml:"gapfill"`
	Pool        PoolConfig       `yaml:"pool"`
	Scoring     ScoringConfig    `yaml:"scoring"`
	Cache       CacheConfig      `yaml:"cache"`
	Sink        SinkConfig       `yaml:"sink"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	Metrics     MetricsConfig    `yaml:"metrics"`
}

type MarketConfig struct {
	Name        string `yaml:"name" default:"SSE"`
	Environment string `yaml:"environment" default:"normal" validate:"oneof=bull bear volatile normal"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error fatal panic"`
	Format string `yaml:"format" default:"json" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout"`
}

type IndicatorsConfig struct {
	// Names computed by default when a caller does not ask for a
	// specific set; empty means every registered indicator.
	DefaultSet        []string `yaml:"default_set"`
	VolumeRatioWindow int      `yaml:"volume_ratio_window" default:"10" validate:"gte=2"`
	BollWindow        int      `yaml:"boll_window" default:"20" validate:"gte=2"`
	BollMultiplier    float64  `yaml:"boll_multiplier" default:"2" validate:"gt=0"`
	PositionWindow    int      `yaml:"position_window" default:"52" validate:"gte=2"`
	AngleScale        float64  `yaml:"angle_scale" default:"100" validate:"gt=0"`
}

type GapFillConfig struct {
	Strategy         string  `yaml:"strategy" default:"forward" validate:"oneof=forward backward linear"`
	MaxFillDays      int     `yaml:"max_fill_days" default:"5" validate:"gte=1"`
	QualityThreshold float64 `yaml:"quality_threshold" default:"0.6" validate:"gte=0,lte=1"`
}

type PoolConfig struct {
	Workers      int           `yaml:"workers" default:"4" validate:"gte=1"`
	ChunkSize    int           `yaml:"chunk_size" default:"10000" validate:"gte=1"`
	WaveSize     int           `yaml:"wave_size" default:"50" validate:"gte=1"`
	ChunkTimeout time.Duration `yaml:"chunk_timeout" default:"300s"`
	ErrorPolicy  string        `yaml:"error_policy" default:"continue" validate:"oneof=continue stop retry"`
	RetryMax     int           `yaml:"retry_max" default:"2" validate:"gte=0"`
	RetryBackoff time.Duration `yaml:"retry_backoff" default:"1s"`
}

type ScoringConfig struct {
	Weights struct {
		Trend     float64 `yaml:"trend" default:"0.45" validate:"gte=0,lte=1"`
		Capital   float64 `yaml:"capital" default:"0.20" validate:"gte=0,lte=1"`
		Technical float64 `yaml:"technical" default:"0.20" validate:"gte=0,lte=1"`
		Risk      float64 `yaml:"risk" default:"0.15" validate:"gte=0,lte=1"`
	} `yaml:"weights"`
	DowntrendAngle   float64            `yaml:"downtrend_angle" default:"-10"`
	NullRatioWarn    float64            `yaml:"null_ratio_warn" default:"0.2" validate:"gte=0,lte=1"`
	IndustryFactors  map[string]float64 `yaml:"industry_factors"`
	CapBucketFactors map[string]float64 `yaml:"cap_bucket_factors"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled" default:"true"`
	MaxSize int           `yaml:"max_size" default:"1024" validate:"gte=1"`
	TTL     time.Duration `yaml:"ttl" default:"1h"`
	Redis   struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

type SinkConfig struct {
	// Type selects the persistence adapter; "none" keeps results
	// in-memory for the caller.
	Type        string `yaml:"type" default:"none" validate:"oneof=none clickhouse kafka parquet"`
	Destination string `yaml:"destination"`
}

type ClickHouseConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port" default:"9000"`
	Database     string        `yaml:"database" default:"finrank"`
	User         string        `yaml:"user" default:"default"`
	Password     string        `yaml:"password"`
	DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
}

type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic" default:"finrank.scores"`
	RequiredAcks int           `yaml:"required_acks" default:"1"`
	BatchTimeout time.Duration `yaml:"batch_timeout" default:"100ms"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" default:"true"`
}

// Load reads a YAML configuration file, applies struct defaults and
// validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Default returns a configuration with every default applied and no file
// involved.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("MARKET_ENV"); v != "" {
		c.Market.Environment = v
	}
	if v := os.Getenv("SINK"); v != "" {
		c.Sink.Type = v
	}
	if v := os.Getenv("SINK_DESTINATION"); v != "" {
		c.Sink.Destination = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Enabled = true
		c.Cache.Redis.Addr = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks field constraints and cross-field requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	switch c.Sink.Type {
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required for the clickhouse sink")
		}
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required for the kafka sink")
		}
	case "parquet":
		if c.Sink.Destination == "" {
			return fmt.Errorf("sink.destination is required for the parquet sink")
		}
	}
	if c.Cache.Redis.Enabled && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required when redis is enabled")
	}
	return nil
}
