package audit

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes entries to the structured log
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink backed by logger
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Append logs successes at info and failures at error, with the raw output attached
func (s *LogSink) Append(_ context.Context, entry *Entry) error {
	fields := []zap.Field{
		zap.String("audit_id", entry.ID),
		zap.String("request_id", entry.RequestID),
		zap.String("provider", entry.Provider),
		zap.String("model", entry.Model),
		zap.String("outcome", entry.Outcome),
		zap.Int64("duration_ms", entry.DurationMS),
	}

	if !entry.Failed() {
		s.logger.Info("recipe generation succeeded", fields...)
		return nil
	}

	fields = append(fields, zap.String("error", entry.Error))
	if entry.Fields != "" {
		fields = append(fields, zap.String("fields", entry.Fields))
	}
	if entry.RawResponse != "" {
		fields = append(fields, zap.String("raw_response", entry.RawResponse))
	}
	s.logger.Error("recipe generation failed", fields...)
	return nil
}
