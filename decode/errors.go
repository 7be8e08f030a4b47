package decode

import "errors"

var (
	ErrDecode              = errors.New("cannot decode audio file")
	ErrUnsupportedEncoding = errors.New("unsupported sample encoding")
)
