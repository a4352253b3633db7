package sensor

import (
	"context"
	"fmt"

	"github.com/telhawk-systems/runbridge/internal/cursor"
	"github.com/telhawk-systems/runbridge/internal/logging"
	"github.com/telhawk-systems/runbridge/internal/models"
)

// Stats counts what one tick did.
type Stats struct {
	RunsProcessed    int  `json:"runs_processed" yaml:"runs_processed"`
	DirectEvents     int  `json:"direct_events" yaml:"direct_events"`
	SyntheticEvents  int  `json:"synthetic_events" yaml:"synthetic_events"`
	TranslatedEvents int  `json:"translated_events" yaml:"translated_events"`
	CursorReset      bool `json:"cursor_reset" yaml:"cursor_reset"`
}

// Result is the output of one tick.
type Result struct {
	Events []models.Event `json:"events" yaml:"events"`
	// CheckRequest is nil when no materialized asset has checks.
	CheckRequest []models.AssetCheckKey `json:"check_request,omitempty" yaml:"check_request,omitempty"`
	Cursor       string                 `json:"cursor" yaml:"cursor"`
	// Exhausted is true when the window was fully drained and slid forward.
	Exhausted bool  `json:"exhausted" yaml:"exhausted"`
	Stats     Stats `json:"stats" yaml:"stats"`
}

// Evaluate runs one tick starting from rawCursor. A malformed or empty cursor
// starts a fresh lookback window. Any upstream or downstream error aborts the
// tick and the caller should keep its previous cursor.
func (s *Sensor) Evaluate(ctx context.Context, rawCursor string) (*Result, error) {
	log := s.logger.WithContext(ctx).With(logging.Sensor(s.cfg.Name))
	started := s.now()

	var stats Stats
	c, err := cursor.DecodeOrDefault(rawCursor, started, s.cfg.Lookback)
	if err != nil {
		log.Warn("failed to interpret cursor, starting from scratch", logging.Error(err))
		stats.CursorReset = true
	}

	windowStart, windowEnd, offset := c.Bounds(started, s.cfg.Lookback)
	log.Debug("evaluating window",
		"window_start", cursor.Time(windowStart),
		"window_end", cursor.Time(windowEnd),
		logging.Offset(offset))

	it := s.newBatchIterator(ctx, windowStart, windowEnd, offset)

	var events []models.Event
	materialized := models.AssetKeySet{}
	lastIndex := offset - 1
	exhausted := false

	for s.now().Sub(started) < s.cfg.Timeout {
		batch, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			exhausted = true
			break
		}
		lastIndex = batch.Index
		if batch.NoEvents {
			continue
		}
		events = append(events, batch.Events...)
		for key := range batch.AssetsMaterialized {
			materialized.Add(key)
		}
	}

	var next cursor.Cursor
	if exhausted {
		next = cursor.Advance(windowEnd)
	} else {
		next = cursor.Resume(windowStart, windowEnd, lastIndex+1)
		log.Info("time budget spent, resuming mid-window next tick", logging.Offset(lastIndex+1))
	}
	encoded, err := cursor.Encode(next)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cursor: %w", err)
	}

	stats.RunsProcessed = it.stats.RunsProcessed
	stats.DirectEvents = it.stats.DirectEvents
	stats.SyntheticEvents = it.stats.SyntheticEvents
	stats.TranslatedEvents = it.stats.TranslatedEvents

	result := &Result{
		Events:    s.sortEvents(events),
		Cursor:    encoded,
		Exhausted: exhausted,
		Stats:     stats,
	}
	if checks := s.graph.ChecksForKeys(materialized); len(checks) > 0 {
		result.CheckRequest = checks
	}

	log.Info("sensor tick evaluated",
		logging.Count(len(result.Events)),
		"runs", stats.RunsProcessed,
		"checks", len(result.CheckRequest),
		"exhausted", exhausted,
		logging.Duration(s.now().Sub(started)))
	return result, nil
}
