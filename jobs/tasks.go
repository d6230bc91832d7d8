package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskFBRSubmit files a finalized sale with the tax authority.
	TaskFBRSubmit = "fbr:submit"
	// TaskLowStockScan flags products at or under their restock threshold.
	TaskLowStockScan = "inventory:lowstock_scan"
)

// FBRSubmitPayload identifies the sale to file.
type FBRSubmitPayload struct {
	SaleID int64 `json:"sale_id"`
}

// NewFBRSubmitTask constructs an Asynq task.
func NewFBRSubmitTask(payload FBRSubmitPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFBRSubmit, data), nil
}

// NewLowStockScanTask constructs the periodic scan task. It carries no
// payload.
func NewLowStockScanTask() *asynq.Task {
	return asynq.NewTask(TaskLowStockScan, nil)
}
