package sound

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/d1nch8g/waveplayer/audio"
	"github.com/d1nch8g/waveplayer/decode"
)

// Sound plays one audio file through its own output stream.
type Sound struct {
	path   string
	file   decode.File
	format audio.Format
	stream audio.Stream
	logger *slog.Logger
	config Config

	// mu orders run hand-over between Play, Stop and Close
	mu       sync.Mutex
	current  *run // latest run, nil before the first
	closed   bool // no new runs may begin
	released bool // stream and file are closed

	state atomic.Int32
}

// run is one Play invocation, from entering Playing until the loop exits.
type run struct {
	stop     chan struct{} // closed by Stop
	stopOnce sync.Once
	done     chan struct{} // closed when the run is over
}

func newRun() *run {
	return &run{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (r *run) requestStop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *run) stopping(ctx context.Context) bool {
	select {
	case <-r.stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// New opens path and acquires an output stream matching its format.
// On error nothing is left open.
func New(path string, config Config) (*Sound, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileNotFound, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrFileNotFound, path)
	}

	file, err := decode.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrFileNotFound, err)
		}
		return nil, err
	}

	device := config.Device
	if device == nil {
		device, err = audio.Instance()
		if err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	stream, err := device.OpenStream(file.Format())
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	config.Logger.Debug("sound opened", "path", path, "format", file.Format().String())

	return &Sound{
		path:   path,
		file:   file,
		format: file.Format(),
		stream: stream,
		logger: config.Logger,
		config: config,
	}, nil
}

func (s *Sound) FilePath() string {
	return s.path
}

func (s *Sound) Format() audio.Format {
	return s.format
}

func (s *Sound) State() State {
	return State(s.state.Load())
}

func (s *Sound) Stopped() bool {
	return s.State() == StateStopped
}

// Play enters Playing, waits opts.Delay, then writes the file to the stream
// opts.Loops times, rewinding after each pass, and drains the stream. A Stop
// or a done ctx ends playback during the delay or between two chunk writes.
// Only one Play may run at a time; a concurrent call fails with
// ErrAlreadyPlaying.
func (s *Sound) Play(ctx context.Context, opts PlayOptions) error {
	r, err := s.begin(opts)
	if err != nil {
		return err
	}
	return s.play(ctx, opts, r)
}

// PlayBackground enters Playing and returns, leaving the rest of Play to a
// new goroutine. A Stop issued as soon as it returns ends that playback.
// Launch errors are returned; later failures are logged and handed to
// Config.OnError.
func (s *Sound) PlayBackground(ctx context.Context, opts PlayOptions) error {
	r, err := s.begin(opts)
	if err != nil {
		return err
	}

	go func() {
		err := s.play(ctx, opts, r)
		if err == nil || (ctx.Err() != nil && errors.Is(err, ctx.Err())) {
			return
		}

		s.logger.Error("background playback failed", "path", s.path, "error", err)
		if s.config.OnError != nil {
			s.config.OnError(err)
		}
	}()
	return nil
}

func (s *Sound) begin(opts PlayOptions) (*run, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.State() == StatePlaying {
		return nil, ErrAlreadyPlaying
	}

	r := newRun()
	s.current = r
	s.state.Store(int32(StatePlaying))
	return r, nil
}

// play executes a run begun by begin. Every exit path ends in Stopped, so
// waiters in Stop and Close are always released.
func (s *Sound) play(ctx context.Context, opts PlayOptions, r *run) error {
	defer func() {
		s.state.Store(int32(StateStopped))
		close(r.done)
	}()

	if opts.Delay > 0 {
		timer := time.NewTimer(opts.Delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.stop:
			return nil
		case <-timer.C:
		}
	}

	s.logger.Debug("playback started", "path", s.path, "loops", opts.Loops, "chunk_frames", opts.ChunkFrames)
	err := s.loop(ctx, opts, r)
	s.logger.Debug("playback stopped", "path", s.path, "error", err)
	return err
}

// loop starts the stream and stops it again on every exit. After the last
// pass it drains the stream, so a completed Play has reached the device.
func (s *Sound) loop(ctx context.Context, opts PlayOptions, r *run) (err error) {
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("%w: failed to start stream: %w", ErrPlaybackIO, err)
	}
	defer func() {
		if serr := s.stream.Stop(); serr != nil && err == nil {
			err = fmt.Errorf("%w: failed to stop stream: %w", ErrPlaybackIO, serr)
		}
	}()

	buf := make([]byte, opts.ChunkFrames*s.format.FrameSize())

	for remaining := opts.Loops; remaining != 0 && !r.stopping(ctx); {
		if remaining > 0 {
			remaining--
		}
		if err := s.pass(ctx, r, buf); err != nil {
			return err
		}
	}
	if r.stopping(ctx) {
		return ctx.Err()
	}

	if err := s.stream.Drain(); err != nil {
		return fmt.Errorf("%w: failed to drain stream: %w", ErrPlaybackIO, err)
	}
	return nil
}

// pass plays the file once from its current position and rewinds it,
// whether the pass completed, was stopped or failed.
func (s *Sound) pass(ctx context.Context, r *run, buf []byte) (err error) {
	defer func() {
		if rerr := s.file.Rewind(); rerr != nil && err == nil {
			err = fmt.Errorf("%w: failed to rewind: %w", ErrPlaybackIO, rerr)
		}
	}()

	for !r.stopping(ctx) {
		n, err := s.file.Read(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: failed to read frames: %w", ErrPlaybackIO, err)
		}
		if n == 0 {
			return nil
		}
		if err := s.stream.Write(buf[:n]); err != nil {
			return fmt.Errorf("%w: failed to write frames: %w", ErrPlaybackIO, err)
		}
	}
	return nil
}

// Stop ends the current run, including one still waiting out its delay, and
// waits until it is over. The run stops the stream on its way out. On a
// stopped Sound Stop returns at once. If ctx ends first, Stop returns
// ErrShutdownTimeout and playback may still be running.
func (s *Sound) Stop(ctx context.Context) error {
	s.mu.Lock()
	r := s.current
	if r != nil {
		r.requestStop()
	}
	s.mu.Unlock()

	if r == nil {
		return nil
	}

	select {
	case <-r.done:
		return nil
	default:
	}

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
}

// Close stops playback, waiting at most Config.StopTimeout when set, then
// closes the stream and the file. If the wait times out nothing is
// released and Close may be called again.
func (s *Sound) Close() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	ctx := context.Background()
	if s.config.StopTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.StopTimeout)
		defer cancel()
	}

	if err := s.Stop(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}
	s.released = true
	s.mu.Unlock()

	var errs []error
	if err := s.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close stream: %w", err))
	}
	if err := s.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close file: %w", err))
	}

	s.logger.Debug("sound closed", "path", s.path)
	return errors.Join(errs...)
}
