package audit

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Multi fans an entry out to several sinks concurrently
type Multi struct {
	sinks  []Sink
	logger *zap.Logger
}

// NewMulti creates a fan-out sink. Nil sinks are skipped.
func NewMulti(logger *zap.Logger, sinks ...Sink) *Multi {
	m := &Multi{logger: logger}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len returns the number of configured sinks
func (m *Multi) Len() int {
	return len(m.sinks)
}

// Append writes to every sink and returns the first error. Each failure is logged.
func (m *Multi) Append(ctx context.Context, entry *Entry) error {
	var g errgroup.Group
	for _, s := range m.sinks {
		g.Go(func() error {
			if err := s.Append(ctx, entry); err != nil {
				m.logger.Warn("audit sink failed",
					zap.String("audit_id", entry.ID),
					zap.Error(err),
				)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
