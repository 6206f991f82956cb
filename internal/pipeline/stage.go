package pipeline

import (
	"context"
	"log/slog"
	"time"

	"timelines/internal/logging"
	"timelines/internal/services"
)

const (
	stageAnalyze = "analyze"
	stageAlign   = "align"
	stageTag     = "tag"
	stageMatch   = "match"
)

// runStage executes fn with the stage stamped on the context and logs its
// start, completion and failure.
func (p *Pipeline) runStage(ctx context.Context, stage string, fn func(context.Context, *slog.Logger) error) error {
	stageCtx := services.WithStage(ctx, stage)
	logger := logging.WithContext(stageCtx, p.logger)
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	started := p.now()
	if err := fn(stageCtx, logger); err != nil {
		logging.ErrorWithContext(logger, "stage failed", "stage_failure",
			logging.String("error_kind", services.Kind(err)),
			logging.Error(err),
		)
		return err
	}
	logger.Debug("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}
