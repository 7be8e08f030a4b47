// Package audiotest provides audio test doubles and fixtures.
package audiotest

import (
	"errors"
	"sync"
	"time"

	"github.com/d1nch8g/waveplayer/audio"
)

// ErrInjected is returned by streams told to fail.
var ErrInjected = errors.New("injected stream failure")

// Driver is an in-memory audio.Driver that records every call.
// Set the exported fields before the driver is used.
type Driver struct {
	InitErr error
	OpenErr error

	// WriteDelay is applied to every write of streams opened afterwards
	WriteDelay time.Duration
	// FailOnWrite makes the n-th write attempt (1-based) of new streams fail
	FailOnWrite int

	mu          sync.Mutex
	initialized int
	terminated  int
	streams     []*Stream
}

var _ audio.Driver = (*Driver)(nil)

func NewDriver() *Driver {
	return &Driver{}
}

func (d *Driver) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized++
	return d.InitErr
}

func (d *Driver) Terminate() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.terminated++
	return nil
}

func (d *Driver) OpenOutput(f audio.Format) (audio.Stream, error) {
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}

	s := &Stream{
		format:      f,
		writeDelay:  d.WriteDelay,
		failOnWrite: d.FailOnWrite,
	}

	d.mu.Lock()
	d.streams = append(d.streams, s)
	d.mu.Unlock()
	return s, nil
}

// Initialized returns how many times Initialize was called.
func (d *Driver) Initialized() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized
}

// Terminated returns how many times Terminate was called.
func (d *Driver) Terminated() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.terminated
}

// Streams returns the streams opened so far.
func (d *Driver) Streams() []*Stream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Stream(nil), d.streams...)
}

// Stream records what a player writes to it.
type Stream struct {
	format      audio.Format
	writeDelay  time.Duration
	failOnWrite int

	mu               sync.Mutex
	attempts         int
	writes           []int
	data             []byte
	starts           int
	drains           int
	drained          int
	stops            int
	closes           int
	writesAfterClose int
	started          bool
}

var _ audio.Stream = (*Stream)(nil)

func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
	s.started = true
	return nil
}

func (s *Stream) Write(p []byte) error {
	if s.writeDelay > 0 {
		time.Sleep(s.writeDelay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts++
	if s.closes > 0 {
		s.writesAfterClose++
		return audio.ErrStreamClosed
	}
	if !s.started {
		return audio.ErrStreamStopped
	}
	if len(p)%s.format.FrameSize() != 0 {
		return audio.ErrPartialFrame
	}
	if s.attempts == s.failOnWrite {
		return ErrInjected
	}

	s.writes = append(s.writes, len(p))
	s.data = append(s.data, p...)
	return nil
}

func (s *Stream) Drain() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closes > 0 {
		return audio.ErrStreamClosed
	}
	s.drains++
	s.drained = len(s.data)
	return nil
}

func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	s.started = false
	return nil
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// Format returns the format the stream was opened with.
func (s *Stream) Format() audio.Format {
	return s.format
}

// Writes returns the byte length of each successful write.
func (s *Stream) Writes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.writes...)
}

// BytesWritten returns the total bytes accepted.
func (s *Stream) BytesWritten() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Data returns a copy of every byte accepted, in order.
func (s *Stream) Data() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}

func (s *Stream) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

func (s *Stream) Drains() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drains
}

// Drained returns how many bytes had been written at the last Drain.
func (s *Stream) Drained() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drained
}

func (s *Stream) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

func (s *Stream) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

func (s *Stream) WritesAfterClose() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writesAfterClose
}

// Started reports whether the stream is currently started.
func (s *Stream) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}
