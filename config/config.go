package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDriver          = "WAVEPLAYER_DRIVER"
	EnvFramesPerBuffer = "WAVEPLAYER_FRAMES_PER_BUFFER"
	EnvChunkFrames     = "WAVEPLAYER_CHUNK_FRAMES"
	EnvLoops           = "WAVEPLAYER_LOOPS"
	EnvStopTimeout     = "WAVEPLAYER_STOP_TIMEOUT"
)

type Config struct {
	// Driver names the audio backend: "portaudio" or "oto"
	Driver          string
	FramesPerBuffer int
	ChunkFrames     int
	Loops           int
	StopTimeout     time.Duration
}

func GetDefaultConfig() Config {
	return Config{
		Driver:          "portaudio",
		FramesPerBuffer: 1024,
		ChunkFrames:     1024,
		Loops:           1,
	}
}

// LoadConfig loads files into the environment and reads the WAVEPLAYER_*
// variables over the defaults. With no files it reads .env when present.
// Variables already set in the environment win over file values.
func LoadConfig(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		if len(files) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg := GetDefaultConfig()

	if v := os.Getenv(EnvDriver); v != "" {
		cfg.Driver = v
	}

	var err error
	if cfg.FramesPerBuffer, err = positiveInt(EnvFramesPerBuffer, cfg.FramesPerBuffer); err != nil {
		return nil, err
	}
	if cfg.ChunkFrames, err = positiveInt(EnvChunkFrames, cfg.ChunkFrames); err != nil {
		return nil, err
	}
	if cfg.Loops, err = loops(cfg.Loops); err != nil {
		return nil, err
	}
	if cfg.StopTimeout, err = duration(EnvStopTimeout, cfg.StopTimeout); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func positiveInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

// loops accepts a positive count or -1 for endless looping.
func loops(def int) (int, error) {
	v := os.Getenv(EnvLoops)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || (n <= 0 && n != -1) {
		return 0, fmt.Errorf("%s must be a positive integer or -1, got %q", EnvLoops, v)
	}
	return n, nil
}

func duration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s must be a non-negative duration, got %q", key, v)
	}
	return d, nil
}
