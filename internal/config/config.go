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
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir         string `env:"DATA_DIR" validate:"required"`
	FiresCSV        string `env:"FIRES_CSV"`
	LoadConcurrency int    `env:"LOAD_CONCURRENCY" validate:"min=1,max=64"`
	SkipUnreadable  bool   `env:"DATA_SKIP_UNREADABLE"`

	// Climatology window for monthly historical averages.
	HistoricalStartYear int `env:"HISTORICAL_START_YEAR" validate:"min=1940"`
	HistoricalEndYear   int `env:"HISTORICAL_END_YEAR" validate:"gtefield=HistoricalStartYear"`

	HTTPAddr        string        `env:"HTTP_ADDR" validate:"required"`
	LogLevel        string        `env:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	LogFormat       string        `env:"LOG_FORMAT" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`

	// Layer publishing to Kafka.
	PublishEnabled bool     `env:"KAFKA_ENABLED"`
	KafkaBrokers   []string `env:"KAFKA_BROKERS"`
	KafkaSinkTopic string   `env:"KAFKA_SINK_TOPIC"`
	BatchSize      int      `env:"BATCH_SIZE"`

	// Mapbox geocoding configuration.
	MapboxToken     string        `env:"MAPBOX_TOKEN"`
	MapboxEnabled   bool          `env:"MAPBOX_ENABLED"`
	MapboxTimeout   time.Duration `env:"MAPBOX_TIMEOUT"`
	MapboxCacheSize int           `env:"MAPBOX_CACHE_SIZE"`
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is read first when present; variables
// already set in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeoutStr := sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s")
	mapboxTimeout, err2 := time.ParseDuration(mapboxTimeoutStr)
	if err2 != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	ints := map[string]int{
		"LOAD_CONCURRENCY":      4,
		"HISTORICAL_START_YEAR": 2017,
		"HISTORICAL_END_YEAR":   2024,
	}
	for key, def := range ints {
		n, err := parseInt(key, def)
		if err != nil {
			return nil, err
		}
		ints[key] = n
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	brokersEnv, brokersSet := os.LookupEnv("KAFKA_BROKERS")
	publishEnabled := brokersSet && brokersEnv != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		publishEnabled = v == "true"
	}

	cfg := &Config{
		DataDir:             sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		FiresCSV:            sharedcfg.EnvOrDefault("FIRES_CSV", "data/fires-all.csv"),
		LoadConcurrency:     ints["LOAD_CONCURRENCY"],
		SkipUnreadable:      os.Getenv("DATA_SKIP_UNREADABLE") == "true",
		HistoricalStartYear: ints["HISTORICAL_START_YEAR"],
		HistoricalEndYear:   ints["HISTORICAL_END_YEAR"],
		HTTPAddr:            sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:            strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:           strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "json")),
		ShutdownTimeout:     shutdownTimeout,

		PublishEnabled: publishEnabled,
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "fire-risk-layers"),
		BatchSize:      batchSize,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	if cfg.PublishEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.PublishEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

var validate = func() func(*Config) error {
	v := validator.New()
	// Report env var names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		return fld.Name
	})
	return func(cfg *Config) error {
		err := v.Struct(cfg)
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
}()

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
