package audio

import "fmt"

// Format describes the PCM layout of an output stream, as read from a file header.
type Format struct {
	SampleWidth int // bytes per sample
	Channels    int
	FrameRate   int // frames per second
	Float       bool
}

// FrameSize returns the byte length of one frame.
func (f Format) FrameSize() int {
	return f.SampleWidth * f.Channels
}

// Validate reports ErrInvalidFormat when f cannot describe a PCM stream.
func (f Format) Validate() error {
	if f.SampleWidth <= 0 || f.Channels <= 0 || f.FrameRate <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidFormat, f)
	}
	if f.SampleWidth > 4 {
		return fmt.Errorf("%w: sample width %d", ErrInvalidFormat, f.SampleWidth)
	}
	if f.Float && f.SampleWidth != 4 {
		return fmt.Errorf("%w: float samples must be 4 bytes wide, got %d", ErrInvalidFormat, f.SampleWidth)
	}
	return nil
}

func (f Format) String() string {
	kind := "int"
	if f.Float {
		kind = "float"
	}
	return fmt.Sprintf("%dHz %dch %d-bit %s", f.FrameRate, f.Channels, f.SampleWidth*8, kind)
}

// Stream is an open audio output bound to one Format for its lifetime.
type Stream interface {
	// Start resumes device consumption. Starting a started stream is a no-op.
	Start() error

	// Write queues p for playback and blocks until the device has taken it.
	// p must hold whole frames.
	Write(p []byte) error

	// Drain blocks until every frame written so far has reached the device.
	// Frames held back to fill a native buffer are padded with silence.
	Drain() error

	// Stop pauses device consumption without releasing the stream.
	// A stopped stream must be started again before the next Write.
	Stop() error

	// Close releases the native stream
	Close() error
}

// Driver is the native audio subsystem a Device owns
type Driver interface {
	// Initialize acquires the subsystem handle
	Initialize() error

	// Terminate releases the subsystem handle
	Terminate() error

	// OpenOutput opens an output-only stream matching f
	OpenOutput(f Format) (Stream, error)
}
