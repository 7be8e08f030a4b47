package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process and fixes its format at creation,
// so the context is shared by every Oto driver.
var (
	otoMu     sync.Mutex
	otoCtx    *oto.Context
	otoFormat Format
)

// Oto drives output through an ebitengine/oto context. Every stream must
// share the format of the first stream opened.
type Oto struct{}

var _ Driver = (*Oto)(nil)

func NewOto() *Oto {
	return &Oto{}
}

// Initialize resumes a suspended context. The context itself is created by
// the first OpenOutput, once the format is known.
func (o *Oto) Initialize() error {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx == nil {
		return nil
	}
	return otoCtx.Resume()
}

func (o *Oto) Terminate() error {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx == nil {
		return nil
	}
	return otoCtx.Suspend()
}

func (o *Oto) OpenOutput(f Format) (Stream, error) {
	sampleFormat, err := otoSampleFormat(f)
	if err != nil {
		return nil, err
	}

	ctx, err := otoContext(f, sampleFormat)
	if err != nil {
		return nil, err
	}

	src := newOtoSource()
	return newOtoStream(ctx.NewPlayer(src), src, f.FrameSize()), nil
}

func otoContext(f Format, sampleFormat oto.Format) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoFormat != f {
			return nil, fmt.Errorf("%w: oto context is fixed to %s, got %s", ErrInvalidFormat, otoFormat, f)
		}
		return otoCtx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   f.FrameRate,
		ChannelCount: f.Channels,
		Format:       sampleFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	otoCtx = ctx
	otoFormat = f
	return ctx, nil
}

func otoSampleFormat(f Format) (oto.Format, error) {
	switch {
	case f.Float && f.SampleWidth == 4:
		return oto.FormatFloat32LE, nil
	case f.SampleWidth == 1:
		return oto.FormatUnsignedInt8, nil
	case f.SampleWidth == 2:
		return oto.FormatSignedInt16LE, nil
	default:
		return 0, fmt.Errorf("%w: oto cannot play %s", ErrInvalidFormat, f)
	}
}

// otoDrainPoll is how often Drain checks the player buffer.
const otoDrainPoll = 5 * time.Millisecond

// otoPlayer is the part of *oto.Player a stream drives.
type otoPlayer interface {
	Play()
	Pause()
	BufferedSize() int
	Close() error
}

type otoStream struct {
	mu        sync.Mutex
	player    otoPlayer
	src       *otoSource
	frameSize int
	playing   bool
	closed    bool
}

func newOtoStream(player otoPlayer, src *otoSource, frameSize int) *otoStream {
	return &otoStream{
		player:    player,
		src:       src,
		frameSize: frameSize,
	}
}

func (s *otoStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	s.player.Play()
	s.playing = true
	return nil
}

// Write blocks until the player has pulled all of p. A paused player pulls
// nothing, so writing to a stopped stream fails instead.
func (s *otoStream) Write(p []byte) error {
	s.mu.Lock()
	closed, playing := s.closed, s.playing
	s.mu.Unlock()

	switch {
	case closed:
		return ErrStreamClosed
	case !playing:
		return ErrStreamStopped
	case len(p)%s.frameSize != 0:
		return ErrPartialFrame
	}
	return s.src.write(p)
}

// Drain waits until the player has handed its buffer to the device.
func (s *otoStream) Drain() error {
	for {
		s.mu.Lock()
		closed, playing := s.closed, s.playing
		s.mu.Unlock()

		if closed {
			return ErrStreamClosed
		}
		if !playing || s.player.BufferedSize() == 0 {
			return nil
		}
		time.Sleep(otoDrainPoll)
	}
}

func (s *otoStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.playing {
		return nil
	}
	s.player.Pause()
	s.playing = false
	return nil
}

func (s *otoStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.playing = false

	s.src.close()
	if err := s.player.Close(); err != nil {
		return fmt.Errorf("failed to close oto player: %w", err)
	}
	return nil
}

// otoSource queues written bytes for an oto player. One mux goroutine reads
// every playing player of the context, so Read never waits for data.
type otoSource struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []byte
	closed bool
}

func newOtoSource() *otoSource {
	s := &otoSource{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Read hands out queued bytes. An empty queue yields 0, nil and keeps the
// player alive.
func (s *otoSource) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, io.EOF
	}

	n := copy(p, s.queue)
	s.queue = s.queue[n:]
	if n > 0 {
		s.cond.Broadcast()
	}
	return n, nil
}

// write queues p and waits until it has all been read.
func (s *otoSource) write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	s.queue = append(s.queue, p...)
	for len(s.queue) > 0 && !s.closed {
		s.cond.Wait()
	}
	if s.closed {
		return ErrStreamClosed
	}
	return nil
}

func (s *otoSource) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.queue = nil
	s.cond.Broadcast()
}
