package promotecmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-stagecms/internal/access"
	"github.com/goliatone/go-stagecms/internal/promotions"
	"github.com/google/uuid"
)

type stubPromotions struct {
	promoted []string
	resumed  []uuid.UUID
	claims   []access.Claims
	err      error
}

func (s *stubPromotions) Promote(ctx context.Context, title string) (*promotions.Result, error) {
	claims, _ := access.FromContext(ctx)
	s.claims = append(s.claims, claims)
	s.promoted = append(s.promoted, title)
	if s.err != nil {
		return nil, s.err
	}
	return &promotions.Result{MovedImages: []string{"a.png"}}, nil
}

func (s *stubPromotions) Resume(_ context.Context, id uuid.UUID) (*promotions.Result, error) {
	s.resumed = append(s.resumed, id)
	if s.err != nil {
		return nil, s.err
	}
	return &promotions.Result{}, nil
}

func (s *stubPromotions) Pending(context.Context) ([]*promotions.Record, error) {
	return nil, nil
}

func TestPromotePageHandlerRunsAsOperator(t *testing.T) {
	svc := &stubPromotions{}
	var got *promotions.Result
	handler := NewPromotePageHandler(svc, nil, func(r *promotions.Result) { got = r })

	if err := handler.Execute(context.Background(), PromotePageCommand{Title: " Servo "}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(svc.promoted) != 1 || svc.promoted[0] != "Servo" {
		t.Fatalf("unexpected promote calls %v", svc.promoted)
	}
	if !svc.claims[0].Admin || svc.claims[0].UID != access.OperatorUID {
		t.Fatalf("expected operator claims, got %+v", svc.claims[0])
	}
	if got == nil || len(got.MovedImages) != 1 {
		t.Fatalf("expected result delivered to sink, got %+v", got)
	}
}

func TestPromotePageHandlerValidation(t *testing.T) {
	svc := &stubPromotions{}
	handler := NewPromotePageHandler(svc, nil, nil)

	err := handler.Execute(context.Background(), PromotePageCommand{Title: "  "})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(svc.promoted) != 0 {
		t.Fatalf("expected no service call")
	}
}

func TestResumePromotionHandlerWrapsFailures(t *testing.T) {
	svc := &stubPromotions{err: errors.New("store offline")}
	handler := NewResumePromotionHandler(svc, nil, nil)

	if err := handler.Execute(context.Background(), ResumePromotionCommand{}); !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error for nil id, got %v", err)
	}
	id := uuid.New()
	err := handler.Execute(context.Background(), ResumePromotionCommand{RecordID: id})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if len(svc.resumed) != 1 || svc.resumed[0] != id {
		t.Fatalf("unexpected resume calls %v", svc.resumed)
	}
}
