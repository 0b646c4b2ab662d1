package app

import "errors"

// ErrUnsupportedFormat and related errors describe service-level failures.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrEmptyPayload      = errors.New("empty import payload")
)
