package sound

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/d1nch8g/waveplayer/audio"
)

// LoopForever makes Play repeat the file until stopped.
const LoopForever = -1

// Player defines the interface for looped file playback
type Player interface {
	// Play blocks until every loop has played, Stop is called or ctx is done
	Play(ctx context.Context, opts PlayOptions) error

	// PlayBackground enters Playing, then runs the rest of Play on its own
	// goroutine and returns at once
	PlayBackground(ctx context.Context, opts PlayOptions) error

	// Stop asks a running Play to return and waits until it has
	Stop(ctx context.Context) error

	// Stopped reports whether no playback loop is running
	Stopped() bool

	FilePath() string

	// Close stops playback and releases the output stream
	Close() error
}

var _ Player = (*Sound)(nil)

type Config struct {
	// Device opens the output stream. Nil means audio.Instance().
	Device *audio.Device
	Logger *slog.Logger
	// StopTimeout bounds the wait in Close. Zero waits forever.
	StopTimeout time.Duration
	// OnError receives failures of PlayBackground that happen after launch.
	OnError func(error)
}

func GetDefaultConfig() Config {
	return Config{
		Logger: slog.Default(),
	}
}

type PlayOptions struct {
	// Loops is the number of passes over the file, or LoopForever
	Loops int
	// ChunkFrames is the number of frames moved per write
	ChunkFrames int
	// Delay is waited in the Playing state before the first write
	Delay time.Duration
}

func GetDefaultPlayOptions() PlayOptions {
	return PlayOptions{
		Loops:       1,
		ChunkFrames: 1024,
	}
}

func (o PlayOptions) validate() error {
	if o.Loops <= 0 && o.Loops != LoopForever {
		return fmt.Errorf("%w: loops must be positive or LoopForever, got %d", ErrInvalidArgument, o.Loops)
	}
	if o.ChunkFrames <= 0 {
		return fmt.Errorf("%w: chunk frames must be positive, got %d", ErrInvalidArgument, o.ChunkFrames)
	}
	if o.Delay < 0 {
		return fmt.Errorf("%w: negative delay %s", ErrInvalidArgument, o.Delay)
	}
	return nil
}

type State int32

const (
	StateStopped State = iota
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
