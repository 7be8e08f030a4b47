package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudio drives output through PortAudio's blocking stream API.
type PortAudio struct {
	framesPerBuffer int
}

var _ Driver = (*PortAudio)(nil)

func NewPortAudio(framesPerBuffer int) *PortAudio {
	if framesPerBuffer <= 0 {
		framesPerBuffer = DefaultFramesPerBuffer
	}
	return &PortAudio{framesPerBuffer: framesPerBuffer}
}

func (p *PortAudio) Initialize() error {
	return portaudio.Initialize()
}

func (p *PortAudio) Terminate() error {
	return portaudio.Terminate()
}

func (p *PortAudio) OpenOutput(f Format) (Stream, error) {
	buf, err := newFrameBuffer(f, p.framesPerBuffer)
	if err != nil {
		return nil, err
	}

	stream, err := portaudio.OpenDefaultStream(
		0,
		f.Channels,
		float64(f.FrameRate),
		p.framesPerBuffer,
		buf.samples(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	return newPortAudioStream(stream, buf), nil
}

// nativeStream is the part of *portaudio.Stream used for blocking output.
// Write sends the whole buffer the stream was opened with.
type nativeStream interface {
	Start() error
	Write() error
	Stop() error
	Abort() error
	Close() error
}

type portAudioStream struct {
	mu     sync.Mutex
	stream nativeStream
	buf    *frameBuffer
	active bool
	closed bool
}

func newPortAudioStream(stream nativeStream, buf *frameBuffer) *portAudioStream {
	return &portAudioStream{stream: stream, buf: buf}
}

func (s *portAudioStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	return s.start()
}

func (s *portAudioStream) start() error {
	if s.active {
		return nil
	}
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}
	s.active = true
	return nil
}

// Write fills the native buffer and flushes it each time it is full.
// Frames that do not fill a whole buffer stay pending until the next
// Write, Drain or Stop, so consecutive chunks play without gaps.
func (s *portAudioStream) Write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	if len(p)%s.buf.format.FrameSize() != 0 {
		return ErrPartialFrame
	}
	if err := s.start(); err != nil {
		return err
	}

	for len(p) > 0 {
		n := s.buf.fill(p)
		p = p[n:]
		if s.buf.full() {
			if err := s.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *portAudioStream) flush() error {
	err := s.stream.Write()
	s.buf.reset()
	if err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
		return fmt.Errorf("failed to write to stream: %w", err)
	}
	return nil
}

// Drain sends pending frames padded with silence. PortAudio's blocking
// write returns once the device has taken the buffer.
func (s *portAudioStream) Drain() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	return s.drain()
}

func (s *portAudioStream) drain() error {
	if s.buf.pending == 0 {
		return nil
	}
	if err := s.start(); err != nil {
		return err
	}
	s.buf.pad()
	return s.flush()
}

// Stop drains pending frames, then waits for the device to play out what
// it holds.
func (s *portAudioStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.active {
		return nil
	}

	drainErr := s.drain()

	s.active = false
	if err := s.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop stream: %w", err)
	}
	return drainErr
}

func (s *portAudioStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.active {
		s.active = false
		_ = s.stream.Abort()
	}
	return s.stream.Close()
}

// frameBuffer holds the typed samples PortAudio reads on each blocking write.
// Exactly one of the sample slices is allocated, chosen by the format.
type frameBuffer struct {
	format  Format
	frames  int
	pending int

	u8  []uint8
	i16 []int16
	i32 []int32
	f32 []float32
}

func newFrameBuffer(f Format, frames int) (*frameBuffer, error) {
	b := &frameBuffer{format: f, frames: frames}
	n := frames * f.Channels

	switch {
	case f.Float && f.SampleWidth == 4:
		b.f32 = make([]float32, n)
	case f.SampleWidth == 1:
		b.u8 = make([]uint8, n)
	case f.SampleWidth == 2:
		b.i16 = make([]int16, n)
	case f.SampleWidth == 4:
		b.i32 = make([]int32, n)
	default:
		return nil, fmt.Errorf("%w: portaudio cannot play %s", ErrInvalidFormat, f)
	}
	return b, nil
}

func (b *frameBuffer) samples() any {
	switch {
	case b.u8 != nil:
		return b.u8
	case b.i16 != nil:
		return b.i16
	case b.i32 != nil:
		return b.i32
	default:
		return b.f32
	}
}

// fill decodes as many whole frames of p as fit and returns the bytes consumed.
func (b *frameBuffer) fill(p []byte) int {
	frames := min(len(p)/b.format.FrameSize(), b.frames-b.pending)
	start := b.pending * b.format.Channels
	count := frames * b.format.Channels

	switch {
	case b.u8 != nil:
		copy(b.u8[start:start+count], p)
	case b.i16 != nil:
		for i := range count {
			b.i16[start+i] = int16(binary.LittleEndian.Uint16(p[i*2:]))
		}
	case b.i32 != nil:
		for i := range count {
			b.i32[start+i] = int32(binary.LittleEndian.Uint32(p[i*4:]))
		}
	default:
		for i := range count {
			b.f32[start+i] = math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		}
	}

	b.pending += frames
	return frames * b.format.FrameSize()
}

func (b *frameBuffer) full() bool {
	return b.pending == b.frames
}

// pad fills the unused tail with silence. Unsigned 8-bit silence is 128.
func (b *frameBuffer) pad() {
	start := b.pending * b.format.Channels

	switch {
	case b.u8 != nil:
		for i := start; i < len(b.u8); i++ {
			b.u8[i] = 128
		}
	case b.i16 != nil:
		clear(b.i16[start:])
	case b.i32 != nil:
		clear(b.i32[start:])
	default:
		clear(b.f32[start:])
	}
	b.pending = b.frames
}

func (b *frameBuffer) reset() {
	b.pending = 0
}
