package audiotest

import (
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

// WriteWAV writes a PCM WAV file named name into dir and returns its path.
// Sample values ramp so that any two positions within 256 samples differ.
func WriteWAV(t testing.TB, dir, name string, sampleRate, channels, bitDepth, frames int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)

	data := make([]int, frames*channels)
	for i := range data {
		data[i] = i%256 - 128
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	return path
}

// PCMLen returns the byte length of the data chunk WriteWAV produces.
func PCMLen(channels, bitDepth, frames int) int {
	return frames * channels * bitDepth / 8
}
