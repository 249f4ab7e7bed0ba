package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrStopped      = errors.New("service already stopped")
	ErrQueueFull    = errors.New("classification queue full")
	ErrInvalidLimit = errors.New("history limit out of range")
)
