package domain

import "errors"

var (
	ErrNoDocument      = errors.New("no document loaded")
	ErrSessionActive   = errors.New("a document is already loaded")
	ErrItemOutOfRange  = errors.New("item index out of range")
	ErrEmptyUnit       = errors.New("unit must not be empty")
	ErrEmptyScope      = errors.New("no items in scope")
	ErrInvalidScope    = errors.New("invalid bulk scope")
	ErrConfirmRequired = errors.New("export requires confirmation")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrMissingFile     = errors.New("file field is required")
)
