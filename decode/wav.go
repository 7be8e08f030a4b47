package decode

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"

	"github.com/d1nch8g/waveplayer/audio"
)

const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
)

type wavFile struct {
	f      *os.File
	dec    *wav.Decoder
	pcm    io.Reader
	format audio.Format
}

var _ File = (*wavFile)(nil)

func newWAVFile(f *os.File) (*wavFile, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid WAV file", ErrDecode, f.Name())
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: failed to find PCM data: %w", ErrDecode, err)
	}

	format, err := wavFormat(dec)
	if err != nil {
		return nil, err
	}

	w := &wavFile{f: f, dec: dec, format: format}
	w.resetPCM()
	return w, nil
}

func wavFormat(dec *wav.Decoder) (audio.Format, error) {
	if dec.BitDepth == 0 || dec.BitDepth%8 != 0 {
		return audio.Format{}, fmt.Errorf("%w: %w: %d-bit samples", ErrDecode, ErrUnsupportedEncoding, dec.BitDepth)
	}

	format := audio.Format{
		SampleWidth: int(dec.BitDepth) / 8,
		Channels:    int(dec.NumChans),
		FrameRate:   int(dec.SampleRate),
	}

	switch dec.WavAudioFormat {
	case wavFormatPCM, wavFormatExtensible:
	case wavFormatFloat:
		format.Float = true
	default:
		return audio.Format{}, fmt.Errorf("%w: %w: WAV format tag %#x", ErrDecode, ErrUnsupportedEncoding, dec.WavAudioFormat)
	}
	return format, nil
}

// resetPCM bounds reads to the data chunk so trailing chunks are never played.
func (w *wavFile) resetPCM() {
	w.pcm = io.LimitReader(w.dec.PCMChunk.R, int64(w.dec.PCMChunk.Size))
}

func (w *wavFile) Format() audio.Format {
	return w.format
}

func (w *wavFile) Read(p []byte) (int, error) {
	return readFrames(w.pcm, p, w.format.FrameSize())
}

func (w *wavFile) Rewind() error {
	if err := w.dec.Rewind(); err != nil {
		return fmt.Errorf("failed to rewind WAV file: %w", err)
	}
	w.resetPCM()
	return nil
}

func (w *wavFile) Close() error {
	return w.f.Close()
}
