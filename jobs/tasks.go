package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOptionsWarmup reloads the sales-by-location filter options into the cache.
	TaskOptionsWarmup = "salesloc:options_warmup"
)

// Warmup reasons carried in the payload.
const (
	ReasonSchedule = "schedule"
	ReasonImport   = "import"
)

// OptionsWarmupPayload describes why a warmup was requested.
type OptionsWarmupPayload struct {
	Reason string `json:"reason"`
}

// NewOptionsWarmupTask constructs an Asynq task.
func NewOptionsWarmupTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(OptionsWarmupPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOptionsWarmup, data), nil
}
