package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// DefaultFramesPerBuffer is the native buffer size used when none is configured.
const DefaultFramesPerBuffer = 1024

// Device owns the native audio subsystem handle and opens output streams on it.
type Device struct {
	mu     sync.Mutex
	driver Driver
	logger *slog.Logger
	ready  bool
}

var (
	instanceMu    sync.Mutex
	instance      *Device
	defaultDriver Driver
)

// NewDevice initializes driver and returns a Device owning it.
// Most callers want the shared Instance instead.
func NewDevice(driver Driver, logger *slog.Logger) (*Device, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if driver == nil {
		return nil, fmt.Errorf("%w: no driver", ErrDeviceUnavailable)
	}

	if err := driver.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize driver: %w", ErrDeviceUnavailable, err)
	}
	logger.Debug("audio device initialized", "driver", fmt.Sprintf("%T", driver))

	return &Device{
		driver: driver,
		logger: logger,
		ready:  true,
	}, nil
}

// Instance returns the process-wide Device, initializing it on first use.
// Concurrent first calls initialize the driver once. A failed initialization
// is not cached.
func Instance() (*Device, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		return instance, nil
	}

	driver := defaultDriver
	if driver == nil {
		driver = NewPortAudio(DefaultFramesPerBuffer)
	}

	d, err := NewDevice(driver, nil)
	if err != nil {
		return nil, err
	}
	instance = d
	return d, nil
}

// UseDriver sets the driver Instance will initialize. It must be called
// before the first Instance call.
func UseDriver(driver Driver) error {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		return ErrDeviceInitialized
	}
	defaultDriver = driver
	return nil
}

// Shutdown tears down the process-wide Device if it was ever created.
func Shutdown() error {
	instanceMu.Lock()
	d := instance
	instanceMu.Unlock()

	if d == nil {
		return nil
	}
	return d.Shutdown()
}

// NewDriver returns the driver registered under name.
func NewDriver(name string, framesPerBuffer int) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "portaudio":
		return NewPortAudio(framesPerBuffer), nil
	case "oto":
		return NewOto(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, name)
	}
}

// OpenStream opens an output stream for f. Closing it is the caller's job.
func (d *Device) OpenStream(f Format) (Stream, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.ready {
		return nil, fmt.Errorf("%w: device is shut down", ErrDeviceUnavailable)
	}

	s, err := d.driver.OpenOutput(f)
	if err != nil {
		if errors.Is(err, ErrInvalidFormat) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to open stream: %w", ErrDeviceUnavailable, err)
	}

	d.logger.Debug("audio stream opened", "format", f.String())
	return s, nil
}

// Ready reports whether the device still holds the subsystem handle.
func (d *Device) Ready() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ready
}

// Shutdown releases the subsystem handle. Only the first call reaches the driver.
func (d *Device) Shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.ready {
		return nil
	}
	d.ready = false

	if err := d.driver.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate audio driver: %w", err)
	}
	d.logger.Debug("audio device terminated")
	return nil
}
