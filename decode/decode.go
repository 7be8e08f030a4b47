// Package decode opens audio files as sequential sources of raw PCM frames.
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/d1nch8g/waveplayer/audio"
)

// File is an opened audio file positioned somewhere in its PCM data.
type File interface {
	// Format returns the parameters read from the file header
	Format() audio.Format

	// Read fills p with whole frames of little-endian PCM. The last read of
	// a pass may be short; after it Read returns 0, io.EOF.
	Read(p []byte) (int, error)

	// Rewind moves back to the first frame
	Rewind() error

	Close() error
}

// Open decodes the file at path, choosing the container by extension.
// Files without a known extension are read as WAV.
func Open(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}

	var file File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		file, err = newMP3File(f)
	default:
		file, err = newWAVFile(f)
	}
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return file, nil
}

// readFrames reads as many whole frames as fit in p. A trailing partial
// frame at the end of the data is dropped.
func readFrames(r io.Reader, p []byte, frameSize int) (int, error) {
	p = p[:len(p)-len(p)%frameSize]
	if len(p) == 0 {
		return 0, io.ErrShortBuffer
	}

	n, err := io.ReadFull(r, p)
	n -= n % frameSize

	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	default:
		return n, err
	}
}
