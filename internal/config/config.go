package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// PathEnv names the optional YAML file read before environment overrides.
const PathEnv = "SOUNDSCAPE_CONFIG_PATH"

// Config holds all service settings. Values come from defaults, then the
// optional YAML file, then environment variables.
type Config struct {
	HTTPAddr        string        `yaml:"http_addr" env:"HTTP_ADDR" validate:"required"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	LogFormat       string        `yaml:"log_format" env:"LOG_FORMAT" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" validate:"gt=0"`

	// Asset source. A base URL selects the HTTP store over the directory.
	AssetDir     string        `yaml:"asset_dir" env:"ASSET_DIR" validate:"required_without=AssetBaseURL"`
	AssetBaseURL string        `yaml:"asset_base_url" env:"ASSET_BASE_URL" validate:"omitempty,url"`
	AssetTimeout time.Duration `yaml:"asset_timeout" env:"ASSET_TIMEOUT" validate:"gt=0"`

	// Startup loading.
	WarmOnStart    bool          `yaml:"warm_on_start" env:"WARM_ON_START"`
	PreloadTrips   bool          `yaml:"preload_trips" env:"PRELOAD_TRIPS"`
	TripsIdleDelay time.Duration `yaml:"trips_idle_delay" env:"TRIPS_IDLE_DELAY" validate:"gte=0"`

	// Load notifications are published only when brokers are configured.
	KafkaBrokers     []string `yaml:"kafka_brokers" env:"KAFKA_BROKERS" validate:"omitempty,dive,hostname_port"`
	KafkaNotifyTopic string   `yaml:"kafka_notify_topic" env:"KAFKA_NOTIFY_TOPIC" validate:"required"`
}

// NotificationsEnabled reports whether load events should be published to Kafka.
func (c *Config) NotificationsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func defaults() Config {
	return Config{
		HTTPAddr:         ":8080",
		LogLevel:         "info",
		LogFormat:        "json",
		ShutdownTimeout:  10 * time.Second,
		AssetDir:         "assets",
		AssetTimeout:     10 * time.Second,
		WarmOnStart:      true,
		PreloadTrips:     true,
		TripsIdleDelay:   2 * time.Second,
		KafkaNotifyTopic: "soundscape-dataset-loads",
	}
}

// Load reads configuration, applying defaults where unset, and validates it.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv(PathEnv); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.HTTPAddr = sharedcfg.EnvOrDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = sharedcfg.EnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = sharedcfg.EnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.AssetDir = sharedcfg.EnvOrDefault("ASSET_DIR", cfg.AssetDir)
	cfg.AssetBaseURL = sharedcfg.EnvOrDefault("ASSET_BASE_URL", cfg.AssetBaseURL)
	cfg.KafkaNotifyTopic = sharedcfg.EnvOrDefault("KAFKA_NOTIFY_TOPIC", cfg.KafkaNotifyTopic)
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(v)
	}

	if os.Getenv("SHUTDOWN_TIMEOUT") != "" {
		d, err := sharedcfg.ParseShutdownTimeout()
		if err != nil {
			return err
		}
		cfg.ShutdownTimeout = d
	}

	var err error
	if cfg.AssetTimeout, err = envDuration("ASSET_TIMEOUT", cfg.AssetTimeout); err != nil {
		return err
	}
	if cfg.TripsIdleDelay, err = envDuration("TRIPS_IDLE_DELAY", cfg.TripsIdleDelay); err != nil {
		return err
	}
	if cfg.WarmOnStart, err = envBool("WARM_ON_START", cfg.WarmOnStart); err != nil {
		return err
	}
	if cfg.PreloadTrips, err = envBool("PRELOAD_TRIPS", cfg.PreloadTrips); err != nil {
		return err
	}
	return nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// validate checks struct tags and reports failures by environment variable name.
func validate(cfg *Config) error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})

	err := v.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if i := strings.IndexByte(name, '['); i >= 0 {
			name = name[:i]
		}
		msgs = append(msgs, fmt.Sprintf("invalid %s: failed %q", name, fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
