package provisioning

import (
	"context"
	"log/slog"
)

type compensation struct {
	step string
	undo func(ctx context.Context) error
}

// saga records how to undo each side effect of a provisioning run.
type saga struct {
	steps  []compensation
	report func(step string, err error)
}

func (s *saga) push(step string, undo func(ctx context.Context) error) {
	s.steps = append(s.steps, compensation{step: step, undo: undo})
}

// rollback undoes the recorded steps newest first. It runs even when ctx
// is already cancelled.
func (s *saga) rollback(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for i := len(s.steps) - 1; i >= 0; i-- {
		c := s.steps[i]
		err := c.undo(ctx)
		if err != nil {
			slog.Error("Failed to roll back provisioning step", "step", c.step, "error", err)
		} else {
			slog.Info("Rolled back provisioning step", "step", c.step)
		}
		if s.report != nil {
			s.report(c.step, err)
		}
	}
	s.steps = nil
}
