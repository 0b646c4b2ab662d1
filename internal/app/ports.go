package app

import (
	"context"
	"time"
)

// KeyValueStore persists opaque blobs by string key.
type KeyValueStore interface {
	Get(context.Context, string) ([]byte, bool, error)
	Set(context.Context, string, []byte) error
	Clear(context.Context, string) error
}

// Logger receives service diagnostics. *log.Logger from charmbracelet/log satisfies it.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

type nopLogger struct{}

func (nopLogger) Debug(any, ...any) {}
func (nopLogger) Warn(any, ...any)  {}
