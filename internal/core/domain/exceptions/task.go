package exceptions

import "errors"

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrAlreadyCompleted = errors.New("task already completed")
	ErrInvalidCode      = errors.New("invalid code")
	ErrNotConfigured    = errors.New("task verification is not configured")
	ErrNotSupported     = errors.New("verification type is not supported here")
	ErrInvalidPayload   = errors.New("invalid verification payload")
)
