package decode

import (
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"

	"github.com/d1nch8g/waveplayer/audio"
)

// go-mp3 always decodes to 16-bit little-endian stereo
const (
	mp3SampleWidth = 2
	mp3Channels    = 2
)

type mp3File struct {
	f      *os.File
	dec    *mp3.Decoder
	format audio.Format
}

var _ File = (*mp3File)(nil)

func newMP3File(f *os.File) (*mp3File, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return &mp3File{
		f:   f,
		dec: dec,
		format: audio.Format{
			SampleWidth: mp3SampleWidth,
			Channels:    mp3Channels,
			FrameRate:   dec.SampleRate(),
		},
	}, nil
}

func (m *mp3File) Format() audio.Format {
	return m.format
}

func (m *mp3File) Read(p []byte) (int, error) {
	return readFrames(m.dec, p, m.format.FrameSize())
}

func (m *mp3File) Rewind() error {
	if _, err := m.dec.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind MP3 file: %w", err)
	}
	return nil
}

func (m *mp3File) Close() error {
	return m.f.Close()
}
