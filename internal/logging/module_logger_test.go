package logging

import (
	"context"
	"maps"
	"testing"

	"github.com/goliatone/go-stagecms/pkg/interfaces"
)

type captureLogger struct {
	bound []map[string]any
	infos []string
}

func (c *captureLogger) Trace(string, ...any)     {}
func (c *captureLogger) Debug(string, ...any)     {}
func (c *captureLogger) Info(msg string, _ ...any) { c.infos = append(c.infos, msg) }
func (c *captureLogger) Warn(string, ...any)      {}
func (c *captureLogger) Error(string, ...any)     {}
func (c *captureLogger) Fatal(string, ...any)     {}

func (c *captureLogger) WithFields(fields map[string]any) interfaces.Logger {
	c.bound = append(c.bound, maps.Clone(fields))
	return c
}

func (c *captureLogger) WithContext(context.Context) interfaces.Logger {
	return c
}

// plainLogger cannot bind fields.
type plainLogger struct{}

func (plainLogger) Trace(string, ...any) {}
func (plainLogger) Debug(string, ...any) {}
func (plainLogger) Info(string, ...any)  {}
func (plainLogger) Warn(string, ...any)  {}
func (plainLogger) Error(string, ...any) {}
func (plainLogger) Fatal(string, ...any) {}

func (p plainLogger) WithContext(context.Context) interfaces.Logger { return p }

type namedProvider struct {
	names  []string
	logger interfaces.Logger
}

func (p *namedProvider) GetLogger(name string) interfaces.Logger {
	p.names = append(p.names, name)
	return p.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, promotionsModule)
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noop logger, got %T", logger)
	}
	WithFields(logger.WithContext(context.Background()), map[string]any{"title": "Servo"}).Info("dropped")

	nilLogger := &namedProvider{}
	if _, ok := ModuleLogger(nilLogger, accessModule).(noopLogger); !ok {
		t.Fatalf("expected noop logger when provider returns nil")
	}
}

func TestModuleLoggerUsesProviderAndAnnotatesFields(t *testing.T) {
	cases := []struct {
		build  func(interfaces.LoggerProvider) interfaces.Logger
		module string
	}{
		{SchemaLogger, schemaModule},
		{StagingLogger, stagingModule},
		{PromotionsLogger, promotionsModule},
		{AccessLogger, accessModule},
		{HTTPLogger, httpModule},
		{CommandsLogger, commandsModule},
	}
	for _, tc := range cases {
		capture := &captureLogger{}
		provider := &namedProvider{logger: capture}

		tc.build(provider).Info("ready")

		if len(provider.names) != 1 || provider.names[0] != tc.module {
			t.Fatalf("expected provider lookup for %s, got %v", tc.module, provider.names)
		}
		if len(capture.bound) != 1 || capture.bound[0]["module"] != tc.module {
			t.Fatalf("expected module field %s, got %v", tc.module, capture.bound)
		}
		if len(capture.infos) != 1 || capture.infos[0] != "ready" {
			t.Fatalf("expected message to reach provider logger, got %v", capture.infos)
		}
	}
}

func TestModuleLoggerDefaultsToRootModule(t *testing.T) {
	capture := &captureLogger{}
	provider := &namedProvider{logger: capture}

	ModuleLogger(provider, "")

	if provider.names[0] != rootModule || capture.bound[0]["module"] != rootModule {
		t.Fatalf("expected root module, got lookup %v fields %v", provider.names, capture.bound)
	}
}

func TestWithPageContextSkipsEmptyValues(t *testing.T) {
	capture := &captureLogger{}
	WithPageContext(capture, "promote", " Servo Arm ", "")
	if len(capture.bound) != 1 {
		t.Fatalf("expected one bind, got %d", len(capture.bound))
	}
	fields := capture.bound[0]
	if fields[fieldOperation] != "promote" || fields[fieldTitle] != "Servo Arm" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if _, ok := fields[fieldCollection]; ok {
		t.Fatalf("expected empty collection to be skipped")
	}

	WithPageContext(capture, " ", "", "")
	if len(capture.bound) != 1 {
		t.Fatalf("expected all-empty context to leave the logger unbound")
	}
}

func TestWithFieldsLeavesPlainLoggersAlone(t *testing.T) {
	plain := plainLogger{}
	if got := WithFields(plain, map[string]any{"title": "Servo"}); got != interfaces.Logger(plain) {
		t.Fatalf("expected plain logger back, got %T", got)
	}

	capture := &captureLogger{}
	fields := map[string]any{"title": "Servo"}
	WithFields(capture, fields)
	fields["title"] = "changed"
	if capture.bound[0]["title"] != "Servo" {
		t.Fatalf("expected bound fields to be copied, got %v", capture.bound[0])
	}
}
