// Package interfaces holds the contracts shared by stagecms packages and
// host applications.
package interfaces

import "context"

// Logger is the leveled logger every service writes to. Its method set
// matches github.com/goliatone/go-logger, so that package plugs in through
// internal/logging/gologger without glue.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// LoggerProvider hands out loggers by module name ("stagecms.staging",
// "stagecms.promotions", ...).
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// FieldsLogger is implemented by loggers that can bind structured fields to
// every later entry.
type FieldsLogger interface {
	WithFields(fields map[string]any) Logger
}
