package protocol

import "errors"

var (
	ErrUnknownMessageCode = errors.New("unknown-message-code")
	ErrUnknownEventCode   = errors.New("unknown-event-code")
	ErrBadDirection       = errors.New("bad-direction")
)
