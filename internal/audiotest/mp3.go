package audiotest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	// MP3SampleRate is the rate of the frames WriteSilentMP3 produces.
	MP3SampleRate = 44100
	// MP3FrameBytes is the decoded size of one MPEG-1 Layer III frame:
	// 1152 stereo 16-bit samples.
	MP3FrameBytes = 1152 * 2 * 2

	// 128 kbit/s at 44.1 kHz without padding: 144*128000/44100
	mp3FrameLen = 417
)

// mp3Header is MPEG-1 Layer III, no CRC, 128 kbit/s, 44.1 kHz, stereo.
var mp3Header = []byte{0xFF, 0xFB, 0x90, 0x00}

// WriteSilentMP3 writes frames MP3 frames of digital silence into dir and
// returns the path. All side information is zero, so every frame decodes
// to zero samples without any bit reservoir.
func WriteSilentMP3(t testing.TB, dir, name string, frames int) string {
	t.Helper()

	frame := make([]byte, mp3FrameLen)
	copy(frame, mp3Header)

	data := make([]byte, 0, frames*mp3FrameLen)
	for range frames {
		data = append(data, frame...)
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}
