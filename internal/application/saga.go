package application

import (
	"context"
	"log/slog"

	"github.com/ericfisherdev/volt/internal/domain/model"
)

// failurePolicy decides what a completed step means once a later step fails.
type failurePolicy int

const (
	// compensate undoes the step. If the undo fails the stores may disagree
	// and the saga reports an OrphanRiskError.
	compensate failurePolicy = iota
	// orphanRisk marks a step that cannot be undone and whose effect leaves
	// the stores disagreeing, e.g. a secret deleted before its record.
	orphanRisk
	// accept marks a step whose effect may stand on its own. The later
	// failure is returned unchanged and logged as a warning.
	accept
)

// sagaStep is one store call in an ordered cross-store operation.
type sagaStep struct {
	name     string
	run      func(ctx context.Context) error
	onLater  failurePolicy
	rollback func(ctx context.Context) error
}

// saga runs steps in order and applies the completed steps' policies when a
// step fails. It never retries.
type saga struct {
	log       *slog.Logger
	secretKey string
	recordID  int64
}

func (s saga) run(ctx context.Context, steps ...sagaStep) error {
	for i, step := range steps {
		err := step.run(ctx)
		if err == nil {
			continue
		}
		return s.unwind(ctx, steps[:i], step.name, err)
	}
	return nil
}

// unwind walks completed steps newest first.
func (s saga) unwind(ctx context.Context, done []sagaStep, failed string, cause error) error {
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		switch step.onLater {
		case compensate:
			if step.rollback == nil {
				continue
			}
			if cerr := step.rollback(ctx); cerr != nil {
				s.log.ErrorContext(ctx, "compensation failed, stores may disagree",
					slog.String("step", step.name),
					slog.String("failed_step", failed),
					slog.String("secret_key", s.secretKey),
					slog.Any("error", cerr),
				)
				return &model.OrphanRiskError{
					SecretKey:       s.secretKey,
					RecordID:        s.recordID,
					Cause:           cause,
					CompensationErr: cerr,
				}
			}
		case orphanRisk:
			s.log.ErrorContext(ctx, "step failed after irreversible step, stores disagree",
				slog.String("step", step.name),
				slog.String("failed_step", failed),
				slog.String("secret_key", s.secretKey),
				slog.Int64("record_id", s.recordID),
				slog.Any("error", cause),
			)
			return &model.OrphanRiskError{
				SecretKey: s.secretKey,
				RecordID:  s.recordID,
				Cause:     cause,
			}
		case accept:
			s.log.WarnContext(ctx, "step failed after accepted step, partial update kept",
				slog.String("step", step.name),
				slog.String("failed_step", failed),
				slog.String("secret_key", s.secretKey),
				slog.Int64("record_id", s.recordID),
				slog.Any("error", cause),
			)
		}
	}
	return cause
}
