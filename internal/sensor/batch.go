package sensor

import (
	"context"
	"fmt"

	"github.com/telhawk-systems/runbridge/internal/cursor"
	"github.com/telhawk-systems/runbridge/internal/logging"
	"github.com/telhawk-systems/runbridge/internal/models"
)

// batchIterator lazily pages through the runs of one window, producing one
// BatchResult per run. It lives for a single tick; the next tick rebuilds it
// from the cursor.
type batchIterator struct {
	s      *Sensor
	ctx    context.Context
	dagIDs []string
	start  float64
	end    float64

	nextOffset int
	pageOffset int
	page       []models.Run
	pos        int
	done       bool

	stats Stats
}

func (s *Sensor) newBatchIterator(ctx context.Context, start, end float64, offset int) *batchIterator {
	dagIDs := s.graph.DagIDs()
	return &batchIterator{
		s:          s,
		ctx:        ctx,
		dagIDs:     dagIDs,
		start:      start,
		end:        end,
		nextOffset: offset,
		done:       len(dagIDs) == 0,
	}
}

// Next returns the result for the next run. ok is false once the window has
// no more runs. A run that yields no events still returns ok with NoEvents set.
func (it *batchIterator) Next() (models.BatchResult, bool, error) {
	if it.pos >= len(it.page) {
		if it.done {
			return models.BatchResult{}, false, nil
		}
		if err := it.fetchPage(); err != nil {
			return models.BatchResult{}, false, err
		}
		if len(it.page) == 0 {
			return models.BatchResult{}, false, nil
		}
	}

	run := it.page[it.pos]
	index := it.pageOffset + it.pos
	it.pos++

	result, err := it.process(run, index)
	if err != nil {
		return models.BatchResult{}, false, err
	}
	it.stats.RunsProcessed++
	return result, true, nil
}

func (it *batchIterator) fetchPage() error {
	s := it.s
	runs, err := s.runLog.ListRuns(it.ctx, it.dagIDs,
		cursor.Time(it.start), cursor.Time(it.end), it.nextOffset, s.cfg.PageSize)
	if err != nil {
		return fmt.Errorf("failed to list runs at offset %d: %w", it.nextOffset, err)
	}

	s.logger.WithContext(it.ctx).Debug("fetched run page",
		logging.Offset(it.nextOffset), logging.Count(len(runs)))

	it.page = runs
	it.pageOffset = it.nextOffset
	it.pos = 0
	it.nextOffset += len(runs)
	if len(runs) < s.cfg.PageSize {
		it.done = true
	}
	return nil
}

func (it *batchIterator) process(run models.Run, index int) (models.BatchResult, error) {
	s := it.s
	var events []models.Event

	if s.translator != nil {
		translated, err := s.translator.Translate(it.ctx, run)
		if err != nil {
			return models.BatchResult{}, fmt.Errorf("failed to translate run %s/%s: %w", run.DagID, run.RunID, err)
		}
		events = translated
		it.stats.TranslatedEvents += len(translated)
	} else {
		direct := s.directEvents(run)
		synthetic, err := s.synthesize(it.ctx, run)
		if err != nil {
			return models.BatchResult{}, err
		}
		events = append(direct, synthetic...)
		it.stats.DirectEvents += len(direct)
		it.stats.SyntheticEvents += len(synthetic)
	}

	s.logger.WithContext(it.ctx).Debug("processed run",
		logging.DagID(run.DagID), logging.RunID(run.RunID), logging.Count(len(events)))

	if len(events) == 0 {
		return models.BatchResult{Index: index, NoEvents: true}, nil
	}

	keys := models.AssetKeySet{}
	for _, e := range events {
		keys.Add(e.AssetKey)
	}
	return models.BatchResult{Index: index, Events: events, AssetsMaterialized: keys}, nil
}

// directEvents reports one event per asset mapped to the run's DAG as a whole.
func (s *Sensor) directEvents(run models.Run) []models.Event {
	keys := s.graph.AssetsForDag(run.DagID)
	if len(keys) == 0 {
		return nil
	}

	events := make([]models.Event, 0, len(keys))
	for _, key := range keys {
		events = append(events, models.Event{
			ID:        models.EventID(run.DagID, run.RunID, "", key),
			AssetKey:  key,
			Timestamp: run.EndDate,
			Metadata:  s.runMetadata(run),
		})
	}
	return events
}

func (s *Sensor) runMetadata(run models.Run) map[string]any {
	meta := map[string]any{
		"dag_id":     run.DagID,
		"run_id":     run.RunID,
		"start_date": run.StartDate,
		"end_date":   run.EndDate,
	}
	if linker, ok := s.runLog.(RunLinker); ok {
		meta["run_details_url"] = linker.RunDetailsURL(run.DagID, run.RunID)
	}
	return meta
}
