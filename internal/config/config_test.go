package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/fire-index-etl/internal/domain"
	"github.com/couchcryptid/fire-index-etl/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "fire-scene-requests", cfg.KafkaSourceTopic)
	assert.Equal(t, "fire-composites", cfg.KafkaSinkTopic)
	assert.Equal(t, "fire-index-etl", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, domain.DefaultParams(), cfg.Params)
	assert.Empty(t, cfg.ProfilePath)
	assert.Equal(t, 8, cfg.SceneCacheSize)
	assert.Equal(t, 30*time.Second, cfg.SceneFetchTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("OUTPUT_DIR", "/var/lib/composites")
	t.Setenv("BIT_DEPTH", "8")
	t.Setenv("COMPOSITE_MODE", "night")
	t.Setenv("INDEX_GAMMA", "0.5")
	t.Setenv("PROFILE_PATH", "/etc/fire/profile.yaml")
	t.Setenv("SCENE_CACHE_SIZE", "2")
	t.Setenv("SCENE_FETCH_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, "/var/lib/composites", cfg.OutputDir)
	assert.Equal(t, domain.Params{Gamma: 0.5, BitDepth: raster.Depth8, Mode: domain.ModeNight}, cfg.Params)
	assert.Equal(t, "/etc/fire/profile.yaml", cfg.ProfilePath)
	assert.Equal(t, 2, cfg.SceneCacheSize)
	assert.Equal(t, 5*time.Second, cfg.SceneFetchTimeout)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidProcessingParams(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bit depth not a number", "BIT_DEPTH", "sixteen"},
		{"unsupported bit depth", "BIT_DEPTH", "12"},
		{"unknown mode", "COMPOSITE_MODE", "dusk"},
		{"gamma not a number", "INDEX_GAMMA", "abc"},
		{"non-positive gamma", "INDEX_GAMMA", "0"},
		{"bad fetch timeout", "SCENE_FETCH_TIMEOUT", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_InvalidSceneCacheSizeFallsBack(t *testing.T) {
	t.Setenv("SCENE_CACHE_SIZE", "-3")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.SceneCacheSize)
}

func TestLoadProfile(t *testing.T) {
	t.Run("default without path", func(t *testing.T) {
		p, err := LoadProfile("")
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultProfile(), p)
	})

	t.Run("overlay from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profile.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
channels:
  VIS_016: {min: 0, max: 60}
  VIS_022: {min: 5, max: 95, gamma: 0.8, floor: 1, ceiling: 60000}
`), 0o600))

		p, err := LoadProfile(path)
		require.NoError(t, err)

		assert.Equal(t, domain.ChannelRange{InputMax: 60}, p[domain.BandVIS016])
		vis022 := p[domain.BandVIS022]
		assert.Equal(t, 5.0, vis022.InputMin)
		assert.Equal(t, 0.8, vis022.Gamma)
		assert.Equal(t, 1.0, vis022.Floor)
		require.NotNil(t, vis022.Ceiling)
		assert.Equal(t, 60000.0, *vis022.Ceiling)
		assert.Equal(t, domain.DefaultProfile()[domain.BandVIS008], p[domain.BandVIS008], "untouched channels keep defaults")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadProfile(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read profile")
	})
}

func TestParseProfile_Errors(t *testing.T) {
	_, err := ParseProfile([]byte("channels:\n  VIS_004: {min: 0}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max is required")

	_, err = ParseProfile([]byte("channels:\n  VIS_004: {max: 100, gamma: -1}\n"))
	require.ErrorIs(t, err, domain.ErrInvalidGamma)

	_, err = ParseProfile([]byte("chanels: {}\n"))
	require.Error(t, err, "unknown keys are rejected")
}
