package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kosha-admin/kosha/internal/dictapi"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDBLogsWarm reloads one month of DB operation logs into the cache.
	TaskDBLogsWarm = "dblogs:warm"
)

// DBLogsWarmPayload names the month to reload. An empty month means the
// current month at the time the task runs.
type DBLogsWarmPayload struct {
	Month string `json:"month,omitempty"`
}

// NewDBLogsWarmTask constructs an Asynq task.
func NewDBLogsWarmTask(month dictapi.Month) (*asynq.Task, error) {
	data, err := json.Marshal(DBLogsWarmPayload{Month: string(month)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDBLogsWarm, data, asynq.MaxRetry(3), asynq.Timeout(time.Minute)), nil
}
