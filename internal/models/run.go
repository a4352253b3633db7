package models

import "time"

// TaskStateSuccess is the only task instance state the sensor consumes.
const TaskStateSuccess = "success"

// Run is a single execution of an upstream DAG.
type Run struct {
	DagID     string    `json:"dag_id"`
	RunID     string    `json:"dag_run_id"`
	State     string    `json:"state"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// TaskInstance is one execution of a task within a Run.
type TaskInstance struct {
	DagID     string    `json:"dag_id"`
	RunID     string    `json:"dag_run_id"`
	TaskID    string    `json:"task_id"`
	State     string    `json:"state"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	TryNumber int       `json:"try_number"`
}

// Downstream run tags linking a proxied execution back to the upstream task.
const (
	TagDagRunID = "runbridge/dag_run_id"
	TagTaskID   = "runbridge/task_id"
)

// DownstreamRun is a run recorded by the downstream orchestrator.
type DownstreamRun struct {
	ID        string            `json:"id"`
	JobName   string            `json:"job_name"`
	Status    string            `json:"status"`
	Tags      map[string]string `json:"tags"`
	CreatedAt time.Time         `json:"created_at"`
}
