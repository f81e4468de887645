package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-stagecms/internal/access"
	"github.com/goliatone/go-stagecms/pkg/interfaces"
)

type testMessage struct{}

func (testMessage) Type() string { return "stagecms.test.message" }

func (testMessage) Validate() error { return nil }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "stagecms.test.invalid" }

func (invalidMessage) Validate() error {
	return validationError()
}

func validationError() error {
	return errors.New("invalid")
}

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), invalidMessage{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	execErr := errors.New("boom")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return execErr
	})

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected wrapped execution error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !goerrors.HasCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category to propagate, got %v", err)
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond))

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
}

func TestHandlerAttachesOperatorClaims(t *testing.T) {
	var got access.Claims
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		got, _ = access.FromContext(ctx)
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != access.Operator() {
		t.Fatalf("expected operator claims, got %+v", got)
	}

	caller := access.Claims{UID: "alice", Admin: true}
	if err := h.Execute(access.WithClaims(context.Background(), caller), testMessage{}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != caller {
		t.Fatalf("expected caller claims preserved, got %+v", got)
	}
}

func TestHandlerTelemetryReportsStatus(t *testing.T) {
	var infos []TelemetryInfo
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return errors.New("boom")
	},
		WithOperation[testMessage]("promotions.promote"),
		WithMessageFields(func(testMessage) map[string]any { return map[string]any{"title": "Servo"} }),
		WithTelemetry(func(_ context.Context, _ testMessage, info TelemetryInfo) { infos = append(infos, info) }),
	)

	if err := h.Execute(context.Background(), testMessage{}); err == nil {
		t.Fatal("expected error")
	}
	if len(infos) != 1 {
		t.Fatalf("expected one telemetry call, got %d", len(infos))
	}
	info := infos[0]
	if info.Status != TelemetryStatusFailed || info.Operation != "promotions.promote" || info.Fields["title"] != "Servo" {
		t.Fatalf("unexpected telemetry %+v", info)
	}
}

func TestHandlerReportsWriteDisabled(t *testing.T) {
	var info TelemetryInfo
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return access.ErrWritesDisabled
	}, WithTelemetry[testMessage](func(_ context.Context, _ testMessage, got TelemetryInfo) {
		info = got
	}))

	caller := access.Claims{UID: "alice", Admin: true}
	err := h.Execute(access.WithClaims(context.Background(), caller), testMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if info.Status != TelemetryStatusWriteDisabled {
		t.Fatalf("expected write disabled status, got %q", info.Status)
	}
	if info.Actor != "alice" {
		t.Fatalf("expected actor alice, got %q", info.Actor)
	}
}

type fieldsRecorder struct {
	fields map[string]any
}

func (r *fieldsRecorder) GetLogger(string) interfaces.Logger { return r }

func (r *fieldsRecorder) Trace(string, ...any) {}
func (r *fieldsRecorder) Debug(string, ...any) {}
func (r *fieldsRecorder) Info(string, ...any)  {}
func (r *fieldsRecorder) Warn(string, ...any)  {}
func (r *fieldsRecorder) Error(string, ...any) {}
func (r *fieldsRecorder) Fatal(string, ...any) {}

func (r *fieldsRecorder) WithContext(context.Context) interfaces.Logger { return r }

func (r *fieldsRecorder) WithFields(fields map[string]any) interfaces.Logger {
	if r.fields == nil {
		r.fields = map[string]any{}
	}
	for key, value := range fields {
		r.fields[key] = value
	}
	return r
}

func TestCommandLoggerTagsGroup(t *testing.T) {
	recorder := &fieldsRecorder{}
	CommandLogger(recorder, " ")
	if recorder.fields["command_group"] != "cli" || recorder.fields["origin"] != "operator" {
		t.Fatalf("unexpected fields %v", recorder.fields)
	}
	if recorder.fields["module"] != "stagecms.commands" {
		t.Fatalf("expected commands module, got %v", recorder.fields["module"])
	}
}
