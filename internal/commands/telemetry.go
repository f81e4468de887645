package commands

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-stagecms/internal/logging"
	"github.com/goliatone/go-stagecms/pkg/interfaces"
)

// TelemetryStatus is the outcome class of one command run.
type TelemetryStatus string

const (
	TelemetryStatusSuccess TelemetryStatus = "success"
	TelemetryStatusFailed  TelemetryStatus = "failed"
	// TelemetryStatusWriteDisabled marks a write rejected because the store
	// is read-only. The command did nothing.
	TelemetryStatusWriteDisabled TelemetryStatus = "write_disabled"
	TelemetryStatusContextError  TelemetryStatus = "context_error"
)

// TelemetryInfo is handed to telemetry callbacks after every run.
type TelemetryInfo struct {
	Command   string
	Operation string
	Actor     string
	Fields    map[string]any
	Duration  time.Duration
	Error     error
	Status    TelemetryStatus
	Logger    interfaces.Logger
}

// Telemetry observes finished command runs.
type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// DefaultTelemetry logs each run on logger. Read-only rejections log at warn
// level since they are expected on replicas.
func DefaultTelemetry[T command.Message](logger interfaces.Logger) Telemetry[T] {
	if logger == nil {
		logger = logging.NoOp()
	}
	return func(_ context.Context, _ T, info TelemetryInfo) {
		entry := logging.WithFields(logger, info.Fields)
		args := []any{"duration_ms", info.Duration.Milliseconds(), "actor", info.Actor}
		switch info.Status {
		case TelemetryStatusSuccess:
			entry.Info("command.execute.success", args...)
		case TelemetryStatusWriteDisabled:
			entry.Warn("command.execute.write_disabled", args...)
		case TelemetryStatusContextError:
			entry.Error("command.execute.context_error", append(args, "error", info.Error)...)
		default:
			entry.Error("command.execute.failed", append(args, "error", info.Error)...)
		}
	}
}
