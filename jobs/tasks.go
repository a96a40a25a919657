package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockReorderScan is the task type for the reorder-point sweep.
	TaskStockReorderScan = "stock:reorder_scan"
)

// ReorderScanPayload tunes a reorder-point sweep.
type ReorderScanPayload struct {
	WarehouseID int64 `json:"warehouse_id,omitempty"`
	Limit       int   `json:"limit,omitempty"`
}

// NewReorderScanTask constructs an Asynq task.
func NewReorderScanTask(payload ReorderScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockReorderScan, data), nil
}
