package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-stagecms/internal/validation"
	"github.com/goliatone/go-stagecms/pkg/storage"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db, err := storage.Open(context.Background(), storage.Config{
		Driver: storage.DriverSQLite,
		DSN:    "file:storage_open_test?mode=memory&cache=shared",
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var one int
	if err := db.NewSelect().ColumnExpr("1").Scan(context.Background(), &one); err != nil {
		t.Fatalf("select: %v", err)
	}
	if one != 1 {
		t.Fatalf("expected 1 got %d", one)
	}
}

func TestValidateConfig(t *testing.T) {
	if err := storage.ValidateConfig(storage.Config{Driver: storage.DriverPostgres, DSN: "postgres://localhost/cms"}); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	if err := storage.ValidateConfig(storage.Config{Driver: storage.DriverSQLite}); !errors.Is(err, storage.ErrDSNRequired) {
		t.Fatalf("expected dsn required, got %v", err)
	}
	err := storage.ValidateConfig(storage.Config{Driver: "mongo", DSN: "x"})
	if !errors.Is(err, validation.ErrSchemaValidation) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
	if issues := validation.Issues(err); len(issues) == 0 {
		t.Fatalf("expected issues for unsupported driver")
	}
	if _, err := storage.Open(context.Background(), storage.Config{Driver: "mongo", DSN: "x"}); err == nil {
		t.Fatalf("expected open to reject unsupported driver")
	}
}
