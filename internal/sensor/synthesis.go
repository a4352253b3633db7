package sensor

import (
	"context"
	"fmt"

	"github.com/telhawk-systems/runbridge/internal/logging"
	"github.com/telhawk-systems/runbridge/internal/models"
)

// synthesize builds events for successful tasks that did not run downstream.
// A task with no downstream run gets an event for every mapped asset. A
// proxied task still gets events for its always-emit assets.
func (s *Sensor) synthesize(ctx context.Context, run models.Run) ([]models.Event, error) {
	log := s.logger.WithContext(ctx).With(logging.DagID(run.DagID), logging.RunID(run.RunID))

	taskIDs := s.graph.TaskIDsInDag(run.DagID)
	if len(taskIDs) == 0 {
		return nil, nil
	}

	instances, err := s.runLog.ListTaskInstances(ctx, run.DagID, run.RunID, taskIDs, []string{models.TaskStateSuccess})
	if err != nil {
		return nil, fmt.Errorf("failed to list task instances for %s/%s: %w", run.DagID, run.RunID, err)
	}
	if len(instances) == 0 {
		return nil, nil
	}
	if err := checkOneInstancePerTask(run, instances); err != nil {
		return nil, err
	}

	// Results past the limit are dropped; there is no pagination here.
	downstream, err := s.runStore.FindRuns(ctx, map[string]string{models.TagDagRunID: run.RunID}, s.cfg.DownstreamRunLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to find downstream runs for %s: %w", run.RunID, err)
	}
	proxied := proxiedTasks(downstream)

	var events []models.Event
	for _, ti := range instances {
		keys := s.graph.AssetsForTask(run.DagID, ti.TaskID)
		downstreamRunID, wasProxied := proxied[ti.TaskID]
		if wasProxied {
			log.Debug("task was proxied downstream",
				logging.TaskID(ti.TaskID), "downstream_run_id", downstreamRunID)
		}

		for _, key := range keys {
			if wasProxied && !s.graph.AlwaysEmit(key) {
				continue
			}
			events = append(events, s.syntheticEvent(run, ti, key))
		}
	}
	return events, nil
}

func checkOneInstancePerTask(run models.Run, instances []models.TaskInstance) error {
	seen := make(map[string]struct{}, len(instances))
	for _, ti := range instances {
		if _, dup := seen[ti.TaskID]; dup {
			return fmt.Errorf("%w: dag %s run %s task %s", ErrDuplicateTaskInstance, run.DagID, run.RunID, ti.TaskID)
		}
		seen[ti.TaskID] = struct{}{}
	}
	return nil
}

// proxiedTasks maps task IDs to the downstream run that executed them.
// Runs without a task tag are not task proxies and are ignored.
func proxiedTasks(runs []*models.DownstreamRun) map[string]string {
	out := make(map[string]string, len(runs))
	for _, r := range runs {
		taskID, ok := r.Tags[models.TagTaskID]
		if !ok || taskID == "" {
			continue
		}
		out[taskID] = r.ID
	}
	return out
}

func (s *Sensor) syntheticEvent(run models.Run, ti models.TaskInstance, key models.AssetKey) models.Event {
	meta := s.runMetadata(run)
	meta["task_id"] = ti.TaskID
	meta["start_date"] = ti.StartDate
	meta["end_date"] = ti.EndDate
	meta["try_number"] = ti.TryNumber
	meta["synthetic"] = true

	return models.Event{
		ID:        models.EventID(run.DagID, run.RunID, ti.TaskID, key),
		AssetKey:  key,
		Timestamp: ti.EndDate,
		Metadata:  meta,
	}
}
