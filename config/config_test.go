package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{EnvDriver, EnvFramesPerBuffer, EnvChunkFrames, EnvLoops, EnvStopTimeout}

// unsetEnv clears keys for the test and restores them afterwards, so values
// godotenv loads do not leak between tests.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.Equal(t, "portaudio", cfg.Driver)
	assert.Equal(t, 1024, cfg.FramesPerBuffer)
	assert.Equal(t, 1024, cfg.ChunkFrames)
	assert.Equal(t, 1, cfg.Loops)
	assert.Zero(t, cfg.StopTimeout)
}

func TestLoadConfig_FromFile(t *testing.T) {
	unsetEnv(t, allKeys...)

	path := writeEnv(t, `
WAVEPLAYER_DRIVER=oto
WAVEPLAYER_FRAMES_PER_BUFFER=512
WAVEPLAYER_CHUNK_FRAMES=256
WAVEPLAYER_LOOPS=-1
WAVEPLAYER_STOP_TIMEOUT=2s
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "oto", cfg.Driver)
	assert.Equal(t, 512, cfg.FramesPerBuffer)
	assert.Equal(t, 256, cfg.ChunkFrames)
	assert.Equal(t, -1, cfg.Loops)
	assert.Equal(t, 2*time.Second, cfg.StopTimeout)
}

func TestLoadConfig_EnvironmentWinsOverFile(t *testing.T) {
	unsetEnv(t, allKeys...)
	t.Setenv(EnvDriver, "portaudio")

	path := writeEnv(t, "WAVEPLAYER_DRIVER=oto\nWAVEPLAYER_LOOPS=3\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "portaudio", cfg.Driver)
	assert.Equal(t, 3, cfg.Loops)
}

func TestLoadConfig_DefaultsWithoutDotEnv(t *testing.T) {
	unsetEnv(t, allKeys...)
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), *cfg)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	unsetEnv(t, allKeys...)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric frames", EnvFramesPerBuffer, "lots"},
		{"zero frames", EnvFramesPerBuffer, "0"},
		{"negative chunk", EnvChunkFrames, "-8"},
		{"zero loops", EnvLoops, "0"},
		{"loops below forever", EnvLoops, "-2"},
		{"bad duration", EnvStopTimeout, "soon"},
		{"negative duration", EnvStopTimeout, "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetEnv(t, allKeys...)
			t.Setenv(tt.key, tt.value)
			t.Chdir(t.TempDir())

			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
