package sound

import (
	"errors"

	"github.com/d1nch8g/waveplayer/audio"
	"github.com/d1nch8g/waveplayer/decode"
)

var (
	ErrFileNotFound    = errors.New("audio file not found")
	ErrPlaybackIO      = errors.New("playback I/O failure")
	ErrShutdownTimeout = errors.New("timed out waiting for playback to stop")
	ErrInvalidArgument = errors.New("invalid playback argument")
	ErrAlreadyPlaying  = errors.New("sound is already playing")
	ErrClosed          = errors.New("sound is closed")
)

// Construction errors raised by the packages Sound delegates to.
var (
	ErrDecode            = decode.ErrDecode
	ErrInvalidFormat     = audio.ErrInvalidFormat
	ErrDeviceUnavailable = audio.ErrDeviceUnavailable
)
