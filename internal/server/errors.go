package server

import "errors"

var (
	ErrSendBufferFull   = errors.New("send-buffer-full")
	ErrSessionClosed    = errors.New("session-closed")
	ErrSchedulerStopped = errors.New("scheduler-stopped")
)
