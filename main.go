package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/d1nch8g/waveplayer/audio"
	"github.com/d1nch8g/waveplayer/config"
	"github.com/d1nch8g/waveplayer/sound"
)

// Plays every file given on the command line. All but the last play in the
// background while the last one blocks, so they overlap.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: waveplayer FILE [FILE...]")
		fmt.Println("Settings are read from .env and WAVEPLAYER_* variables:")
		fmt.Println("WAVEPLAYER_DRIVER=portaudio  # or oto")
		fmt.Println("WAVEPLAYER_LOOPS=1           # -1 loops until Ctrl-C")
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if err := run(logger, os.Args[1:]); err != nil {
		logger.Error("playback failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, paths []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	driver, err := audio.NewDriver(cfg.Driver, cfg.FramesPerBuffer)
	if err != nil {
		return err
	}
	if err := audio.UseDriver(driver); err != nil {
		return err
	}
	defer func() {
		if err := audio.Shutdown(); err != nil {
			logger.Error("failed to shut down audio", "error", err)
		}
	}()

	// Setup signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	soundConfig := sound.GetDefaultConfig()
	soundConfig.Logger = logger
	soundConfig.StopTimeout = cfg.StopTimeout

	opts := sound.GetDefaultPlayOptions()
	opts.Loops = cfg.Loops
	opts.ChunkFrames = cfg.ChunkFrames

	var sounds []*sound.Sound
	defer func() {
		for _, s := range sounds {
			if err := s.Close(); err != nil {
				logger.Error("failed to close sound", "path", s.FilePath(), "error", err)
			}
		}
	}()

	for _, path := range paths {
		s, err := sound.New(path, soundConfig)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		sounds = append(sounds, s)
		fmt.Printf("Loaded %s (%s)\n", path, s.Format())
	}

	for _, s := range sounds[:len(sounds)-1] {
		if err := s.PlayBackground(ctx, opts); err != nil {
			return fmt.Errorf("failed to play %s: %w", s.FilePath(), err)
		}
	}

	err = sounds[len(sounds)-1].Play(ctx, opts)
	if errors.Is(err, context.Canceled) {
		fmt.Println("\nStopping...")
		return nil
	}
	return err
}
