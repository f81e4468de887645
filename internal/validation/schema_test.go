package validation_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-stagecms/internal/validation"
)

const personSchema = `{
  "type": "object",
  "required": ["name"],
  "properties": {"name": {"type": "string"}, "age": {"type": "integer"}}
}`

func TestValidatorAcceptsMatchingDocument(t *testing.T) {
	v := validation.MustCompile([]byte(personSchema))
	if err := v.ValidateJSON([]byte(`{"name":"Ada","age":36}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidatorReportsIssues(t *testing.T) {
	v := validation.MustCompile([]byte(personSchema))
	err := v.ValidateJSON([]byte(`{"age":"old"}`))
	if !errors.Is(err, validation.ErrSchemaValidation) {
		t.Fatalf("expected ErrSchemaValidation got %v", err)
	}
	issues := validation.Issues(err)
	if len(issues) < 2 {
		t.Fatalf("expected at least two issues got %+v", issues)
	}
}

func TestValidatorRejectsMalformedJSON(t *testing.T) {
	v := validation.MustCompile([]byte(personSchema))
	err := v.ValidateJSON([]byte(`{"name":`))
	if err == nil || len(validation.Issues(err)) != 1 {
		t.Fatalf("expected single decode issue got %v", err)
	}
}

func TestCompileRejectsInvalidSchema(t *testing.T) {
	if _, err := validation.Compile([]byte(`{"type": 12}`)); !errors.Is(err, validation.ErrSchemaInvalid) {
		t.Fatalf("expected ErrSchemaInvalid got %v", err)
	}
}
