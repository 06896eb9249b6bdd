package wire

import "errors"

var (
	ErrStringTooLong = errors.New("string-too-long")
)
