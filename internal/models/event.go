package models

import (
	"time"

	"github.com/google/uuid"
)

// eventNamespace scopes deterministic event IDs.
var eventNamespace = uuid.MustParse("6f1c9a7e-2b1d-4d0e-9a55-5a3c1f0b7d21")

// Event is an asset materialization produced by the sensor.
type Event struct {
	ID        string         `json:"id" yaml:"id"`
	AssetKey  AssetKey       `json:"asset_key" yaml:"asset_key"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// EventID derives a stable ID from the upstream identity of a materialization.
// taskID is empty for DAG-level events.
func EventID(dagID, runID, taskID string, key AssetKey) string {
	name := dagID + "/" + runID + "/" + taskID + "/" + string(key)
	return uuid.NewSHA1(eventNamespace, []byte(name)).String()
}

// BatchResult is the outcome of processing one run at a given page index.
// NoEvents marks a run that was processed but yielded nothing.
type BatchResult struct {
	Index              int
	Events             []Event
	AssetsMaterialized AssetKeySet
	NoEvents           bool
}
