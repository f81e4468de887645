package logging

import (
	"context"
	"maps"
	"strings"

	"github.com/goliatone/go-stagecms/pkg/interfaces"
)

const (
	rootModule       = "stagecms"
	schemaModule     = "stagecms.schema"
	stagingModule    = "stagecms.staging"
	promotionsModule = "stagecms.promotions"
	accessModule     = "stagecms.access"
	httpModule       = "stagecms.http"
	commandsModule   = "stagecms.commands"
)

const (
	fieldOperation  = "operation"
	fieldTitle      = "title"
	fieldCollection = "collection"
)

// ModuleLogger returns the provider logger for module tagged with a module
// field. A nil provider yields NoOp.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{"module": module})
}

// SchemaLogger returns the logger namespace reserved for schema registries.
func SchemaLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, schemaModule)
}

// StagingLogger returns the logger namespace reserved for draft workflows.
func StagingLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, stagingModule)
}

// PromotionsLogger returns the logger namespace reserved for promotions.
func PromotionsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, promotionsModule)
}

// AccessLogger returns the logger namespace reserved for accounts and the allow-list.
func AccessLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, accessModule)
}

// HTTPLogger returns the logger namespace reserved for the JSON API.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// CommandsLogger returns the logger namespace reserved for command handlers.
func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, commandsModule)
}

// WithPageContext enriches the logger with the operation, page title and
// collection. Empty values are ignored.
func WithPageContext(logger interfaces.Logger, operation, title, collection string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(operation); trimmed != "" {
		fields[fieldOperation] = trimmed
	}
	if trimmed := strings.TrimSpace(title); trimmed != "" {
		fields[fieldTitle] = trimmed
	}
	if trimmed := strings.TrimSpace(collection); trimmed != "" {
		fields[fieldCollection] = trimmed
	}
	return WithFields(logger, fields)
}

// WithFields binds fields to logger when it implements FieldsLogger. Other
// loggers, and empty field sets, come back unchanged.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	fieldsLogger, ok := logger.(interfaces.FieldsLogger)
	if !ok || len(fields) == 0 {
		return logger
	}
	return fieldsLogger.WithFields(maps.Clone(fields))
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
