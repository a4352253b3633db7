package logging

import (
	"log/slog"
	"time"
)

// Common field names for consistent logging across the service.
const (
	FieldService  = "service"
	FieldSensor   = "sensor"
	FieldTickID   = "tick_id"
	FieldDagID    = "dag_id"
	FieldRunID    = "run_id"
	FieldTaskID   = "task_id"
	FieldAssetKey = "asset_key"
	FieldOffset   = "offset"
	FieldCount    = "count"
	FieldDuration = "duration_ms"
	FieldError    = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Sensor returns a slog attribute for the sensor name.
func Sensor(name string) slog.Attr {
	return slog.String(FieldSensor, name)
}

// TickID returns a slog attribute for the tick ID.
func TickID(id string) slog.Attr {
	return slog.String(FieldTickID, id)
}

// DagID returns a slog attribute for an upstream DAG ID.
func DagID(id string) slog.Attr {
	return slog.String(FieldDagID, id)
}

// RunID returns a slog attribute for an upstream run ID.
func RunID(id string) slog.Attr {
	return slog.String(FieldRunID, id)
}

// TaskID returns a slog attribute for an upstream task ID.
func TaskID(id string) slog.Attr {
	return slog.String(FieldTaskID, id)
}

// AssetKey returns a slog attribute for an asset key.
func AssetKey(key string) slog.Attr {
	return slog.String(FieldAssetKey, key)
}

// Offset returns a slog attribute for a pagination offset.
func Offset(offset int) slog.Attr {
	return slog.Int(FieldOffset, offset)
}

// Count returns a slog attribute for a count of items.
func Count(n int) slog.Attr {
	return slog.Int(FieldCount, n)
}

// Duration returns a slog attribute for a duration in milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Int64(FieldDuration, d.Milliseconds())
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
