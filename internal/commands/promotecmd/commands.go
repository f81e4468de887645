package promotecmd

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-stagecms/internal/commands"
	"github.com/goliatone/go-stagecms/internal/promotions"
	"github.com/goliatone/go-stagecms/pkg/interfaces"
	"github.com/google/uuid"
)

const (
	promotePageMessageType     = "stagecms.promotions.promote"
	resumePromotionMessageType = "stagecms.promotions.resume"
)

// PromotePageCommand requests promotion of a staging page.
type PromotePageCommand struct {
	Title string `json:"title"`
}

// Type implements command.Message.
func (PromotePageCommand) Type() string { return promotePageMessageType }

func (m PromotePageCommand) Validate() error {
	return validation.Errors{
		"title": validation.Validate(strings.TrimSpace(m.Title),
			validation.Required.ErrorObject(validation.NewError("stagecms.promotions.title_required", "title is required"))),
	}.Filter()
}

// ResumePromotionCommand retries an interrupted promotion.
type ResumePromotionCommand struct {
	RecordID uuid.UUID `json:"record_id"`
}

// Type implements command.Message.
func (ResumePromotionCommand) Type() string { return resumePromotionMessageType }

func (m ResumePromotionCommand) Validate() error {
	errs := validation.Errors{}
	if m.RecordID == uuid.Nil {
		errs["record_id"] = validation.NewError("stagecms.promotions.record_id_required", "record_id is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ResultSink receives the outcome of a successful promotion.
type ResultSink func(*promotions.Result)

// PromotePageHandler runs PromotePageCommand through the promotion service.
type PromotePageHandler struct {
	inner *commands.Handler[PromotePageCommand]
}

func NewPromotePageHandler(service promotions.Service, logger interfaces.Logger, sink ResultSink, opts ...commands.HandlerOption[PromotePageCommand]) *PromotePageHandler {
	baseLogger := commands.EnsureLogger(logger)
	exec := func(ctx context.Context, msg PromotePageCommand) error {
		result, err := service.Promote(ctx, strings.TrimSpace(msg.Title))
		if err != nil {
			return err
		}
		if sink != nil {
			sink(result)
		}
		return nil
	}
	handlerOpts := []commands.HandlerOption[PromotePageCommand]{
		commands.WithLogger[PromotePageCommand](baseLogger),
		commands.WithOperation[PromotePageCommand]("promotions.promote"),
		commands.WithMessageFields(func(msg PromotePageCommand) map[string]any {
			return map[string]any{"title": strings.TrimSpace(msg.Title)}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[PromotePageCommand](baseLogger)),
	}
	return &PromotePageHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[PromotePageCommand].
func (h *PromotePageHandler) Execute(ctx context.Context, msg PromotePageCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ResumePromotionHandler runs ResumePromotionCommand through the promotion
// service.
type ResumePromotionHandler struct {
	inner *commands.Handler[ResumePromotionCommand]
}

func NewResumePromotionHandler(service promotions.Service, logger interfaces.Logger, sink ResultSink, opts ...commands.HandlerOption[ResumePromotionCommand]) *ResumePromotionHandler {
	baseLogger := commands.EnsureLogger(logger)
	exec := func(ctx context.Context, msg ResumePromotionCommand) error {
		result, err := service.Resume(ctx, msg.RecordID)
		if err != nil {
			return err
		}
		if sink != nil {
			sink(result)
		}
		return nil
	}
	handlerOpts := []commands.HandlerOption[ResumePromotionCommand]{
		commands.WithLogger[ResumePromotionCommand](baseLogger),
		commands.WithOperation[ResumePromotionCommand]("promotions.resume"),
		commands.WithMessageFields(func(msg ResumePromotionCommand) map[string]any {
			return map[string]any{"record_id": msg.RecordID}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ResumePromotionCommand](baseLogger)),
	}
	return &ResumePromotionHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

func (h *ResumePromotionHandler) Execute(ctx context.Context, msg ResumePromotionCommand) error {
	return h.inner.Execute(ctx, msg)
}
