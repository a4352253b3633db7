// Package sink delivers the result of a sensor tick to its consumers.
package sink

import (
	"context"
	"fmt"

	"github.com/telhawk-systems/runbridge/internal/logging"
	"github.com/telhawk-systems/runbridge/internal/sensor"
)

// Sink receives every successful tick result before the cursor is saved.
// A returned error fails the tick, so the same result is produced again on
// the next tick.
type Sink interface {
	Name() string
	Emit(ctx context.Context, result *sensor.Result) error
}

// Multi emits to each sink in order and stops at the first failure.
type Multi []Sink

func (m Multi) Name() string {
	return "multi"
}

func (m Multi) Emit(ctx context.Context, result *sensor.Result) error {
	for _, s := range m {
		if err := s.Emit(ctx, result); err != nil {
			return fmt.Errorf("sink %s: %w", s.Name(), err)
		}
	}
	return nil
}

// LogSink writes a summary of each tick, and each event at debug level.
type LogSink struct {
	logger *logging.Logger
}

func NewLogSink(logger *logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string {
	return "log"
}

func (s *LogSink) Emit(ctx context.Context, result *sensor.Result) error {
	log := s.logger.WithContext(ctx)
	for _, e := range result.Events {
		log.Debug("asset materialized",
			logging.AssetKey(e.AssetKey.String()),
			"event_id", e.ID,
			"timestamp", e.Timestamp)
	}
	if len(result.CheckRequest) > 0 {
		names := make([]string, 0, len(result.CheckRequest))
		for _, c := range result.CheckRequest {
			names = append(names, c.String())
		}
		log.Info("asset checks requested", "checks", names)
	}
	log.Info("tick result",
		logging.Count(len(result.Events)),
		"exhausted", result.Exhausted,
		"runs", result.Stats.RunsProcessed)
	return nil
}
