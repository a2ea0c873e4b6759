package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/fire-index-etl/internal/domain"
	"github.com/couchcryptid/fire-index-etl/internal/raster"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Composite processing.
	OutputDir   string
	Params      domain.Params
	ProfilePath string

	// Scene loading.
	SceneCacheSize    int
	SceneFetchTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	params, err := parseParams()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("SCENE_FETCH_TIMEOUT", "30s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid SCENE_FETCH_TIMEOUT")
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "fire-scene-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "fire-composites"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "fire-index-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		OutputDir:   sharedcfg.EnvOrDefault("OUTPUT_DIR", "out"),
		Params:      params,
		ProfilePath: os.Getenv("PROFILE_PATH"),

		SceneCacheSize:    parseSceneCacheSize(),
		SceneFetchTimeout: fetchTimeout,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}

	return cfg, nil
}

// parseParams builds the default processing parameters from BIT_DEPTH,
// COMPOSITE_MODE and INDEX_GAMMA.
func parseParams() (domain.Params, error) {
	p := domain.DefaultParams()

	depth, err := strconv.Atoi(sharedcfg.EnvOrDefault("BIT_DEPTH", "16"))
	if err != nil {
		return p, fmt.Errorf("invalid BIT_DEPTH: %w", err)
	}
	if p.BitDepth, err = raster.ParseBitDepth(depth); err != nil {
		return p, fmt.Errorf("invalid BIT_DEPTH: %w", err)
	}

	if p.Mode, err = domain.ParseMode(sharedcfg.EnvOrDefault("COMPOSITE_MODE", "day")); err != nil {
		return p, fmt.Errorf("invalid COMPOSITE_MODE: %w", err)
	}

	if s := os.Getenv("INDEX_GAMMA"); s != "" {
		if p.Gamma, err = strconv.ParseFloat(s, 64); err != nil {
			return p, fmt.Errorf("invalid INDEX_GAMMA: %w", err)
		}
	}

	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("invalid INDEX_GAMMA: %w", err)
	}
	return p, nil
}

func parseSceneCacheSize() int {
	if s := os.Getenv("SCENE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 8
}
