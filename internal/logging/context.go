package logging

import (
	"context"
	"log/slog"

	"timelines/internal/services"
)

// Structured keys shared by every component.
const (
	FieldComponent     = "component"
	FieldVideoID       = "video_id"
	FieldStage         = "stage"
	FieldEvent         = "event" // "<sentence>.<event>" within a video
	FieldCorrelationID = "correlation_id"
	FieldEventType     = "event_type" // machine-readable classification, e.g. "page_fetch_retry"
	FieldErrorHint     = "error_hint"
	FieldImpact        = "impact"
)

// ContextFields returns the video, stage, event and run id stored in ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if id, ok := services.VideoIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldVideoID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if ref, ok := services.EventFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldEvent, ref))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext adds ContextFields(ctx) to logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
