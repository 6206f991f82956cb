package services

import (
	"context"
	"strings"
)

// ctxKey is unexported so no other package can collide with these values.
type ctxKey int

const (
	videoIDKey ctxKey = iota
	stageKey
	eventKey
	runIDKey
)

func withValue(ctx context.Context, key ctxKey, value string) context.Context {
	value = strings.TrimSpace(value)
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func valueOf(ctx context.Context, key ctxKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}

// WithVideoID records the video being processed. Blank ids leave ctx as is.
func WithVideoID(ctx context.Context, id string) context.Context {
	return withValue(ctx, videoIDKey, id)
}

func VideoIDFromContext(ctx context.Context) (string, bool) { return valueOf(ctx, videoIDKey) }

// WithStage records the pipeline stage (analyze, align, tag, match).
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) { return valueOf(ctx, stageKey) }

// WithEvent records an event position formatted "<sentence>.<event>".
func WithEvent(ctx context.Context, ref string) context.Context {
	return withValue(ctx, eventKey, ref)
}

func EventFromContext(ctx context.Context) (string, bool) { return valueOf(ctx, eventKey) }

// WithRequestID records the run id that correlates every log line of one
// pipeline run.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, runIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) { return valueOf(ctx, runIDKey) }
