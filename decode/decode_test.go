package decode

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d1nch8g/waveplayer/audio"
	"github.com/d1nch8g/waveplayer/internal/audiotest"
)

// readAll drains f in chunks of chunkBytes and returns the data and the
// number of non-empty reads.
func readAll(t *testing.T, f File, chunkBytes int) ([]byte, int) {
	t.Helper()

	var data []byte
	reads := 0
	buf := make([]byte, chunkBytes)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			reads++
			data = append(data, buf[:n]...)
		}
		if err == io.EOF {
			return data, reads
		}
		require.NoError(t, err)
		require.NotZero(t, n)
	}
}

func TestOpen_WAVMono16(t *testing.T) {
	t.Parallel()

	path := audiotest.WriteWAV(t, t.TempDir(), "tone.wav", 8000, 1, 16, 8000)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, audio.Format{SampleWidth: 2, Channels: 1, FrameRate: 8000}, f.Format())

	data, reads := readAll(t, f, 1024*2)
	assert.Len(t, data, audiotest.PCMLen(1, 16, 8000))
	assert.Equal(t, 8, reads)

	n, err := f.Read(make([]byte, 64))
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
}

func TestOpen_WAVStereo8(t *testing.T) {
	t.Parallel()

	path := audiotest.WriteWAV(t, t.TempDir(), "stereo.wav", 22050, 2, 8, 1000)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, audio.Format{SampleWidth: 1, Channels: 2, FrameRate: 22050}, f.Format())

	data, _ := readAll(t, f, 300)
	assert.Len(t, data, audiotest.PCMLen(2, 8, 1000))
}

func TestWAV_Rewind(t *testing.T) {
	t.Parallel()

	path := audiotest.WriteWAV(t, t.TempDir(), "loop.wav", 8000, 1, 16, 3000)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	first, _ := readAll(t, f, 512)
	require.NoError(t, f.Rewind())
	second, _ := readAll(t, f, 700)

	assert.Equal(t, first, second)
}

func TestWAV_RewindMidway(t *testing.T) {
	t.Parallel()

	path := audiotest.WriteWAV(t, t.TempDir(), "mid.wav", 8000, 1, 16, 3000)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	head := make([]byte, 100)
	n, err := f.Read(head)
	require.NoError(t, err)
	require.Equal(t, 100, n)

	_, err = f.Read(make([]byte, 400))
	require.NoError(t, err)

	require.NoError(t, f.Rewind())
	again := make([]byte, 100)
	_, err = f.Read(again)
	require.NoError(t, err)
	assert.Equal(t, head, again)
}

func TestWAV_IgnoresChunksAfterData(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := audiotest.WriteWAV(t, dir, "tagged.wav", 8000, 1, 16, 500)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	trailer := []byte("LIST\x04\x00\x00\x00INFO")
	raw = append(raw, trailer...)
	binary.LittleEndian.PutUint32(raw[4:8], uint32(len(raw)-8))
	require.NoError(t, os.WriteFile(path, raw, 0644))

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	data, _ := readAll(t, f, 256)
	assert.Len(t, data, audiotest.PCMLen(1, 16, 500))
}

func TestOpen_NotWAV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "noise.wav")
	require.NoError(t, os.WriteFile(path, []byte("NOT A WAV FILE DATA AT ALL, JUST TEXT"), 0644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestOpen_EmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.wav")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestOpen_NotMP3(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.mp3")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestOpen_MP3(t *testing.T) {
	t.Parallel()

	path := audiotest.WriteSilentMP3(t, t.TempDir(), "silence.mp3", 10)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, audio.Format{SampleWidth: 2, Channels: 2, FrameRate: audiotest.MP3SampleRate}, f.Format())

	data, _ := readAll(t, f, 1000*4)
	assert.Len(t, data, 10*audiotest.MP3FrameBytes)
	assert.Equal(t, make([]byte, len(data)), data, "silent frames decode to zero samples")

	n, err := f.Read(make([]byte, 64))
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
}

func TestMP3_Rewind(t *testing.T) {
	t.Parallel()

	path := audiotest.WriteSilentMP3(t, t.TempDir(), "loop.mp3", 4)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	first, _ := readAll(t, f, 512)
	require.NoError(t, f.Rewind())
	second, _ := readAll(t, f, 700)

	assert.NotEmpty(t, first)
	assert.Equal(t, len(first), len(second))
}

func TestOpen_MP3ExtensionIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	path := audiotest.WriteSilentMP3(t, t.TempDir(), "LOUD.MP3", 2)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, 2, f.Format().Channels)
}

func TestOpen_Missing(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, ErrDecode)
}

func TestReadFrames(t *testing.T) {
	t.Parallel()

	t.Run("drops trailing partial frame", func(t *testing.T) {
		t.Parallel()

		r := bytes.NewReader([]byte{1, 2, 3, 4, 5})
		buf := make([]byte, 8)

		n, err := readFrames(r, buf, 2)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, []byte{1, 2, 3, 4}, buf[:n])

		n, err = readFrames(r, buf, 2)
		assert.Zero(t, n)
		assert.Equal(t, io.EOF, err)
	})

	t.Run("rounds buffer down to whole frames", func(t *testing.T) {
		t.Parallel()

		r := bytes.NewReader(make([]byte, 12))
		n, err := readFrames(r, make([]byte, 7), 4)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("buffer smaller than a frame", func(t *testing.T) {
		t.Parallel()

		_, err := readFrames(bytes.NewReader(make([]byte, 8)), make([]byte, 3), 4)
		assert.ErrorIs(t, err, io.ErrShortBuffer)
	})

	t.Run("propagates reader failure", func(t *testing.T) {
		t.Parallel()

		_, err := readFrames(failingReader{}, make([]byte, 8), 2)
		assert.ErrorIs(t, err, io.ErrClosedPipe)
	})
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}
