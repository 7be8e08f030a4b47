package audio

import "errors"

var (
	ErrInvalidFormat     = errors.New("invalid audio format")
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	ErrDeviceInitialized = errors.New("audio device already initialized")
	ErrUnknownDriver     = errors.New("unknown audio driver")
	ErrStreamClosed      = errors.New("audio stream closed")
	ErrPartialFrame      = errors.New("buffer does not hold whole frames")
	ErrStreamStopped     = errors.New("audio stream not started")
)
