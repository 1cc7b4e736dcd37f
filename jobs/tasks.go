package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity scans journal entries for debit/credit imbalance.
	TaskLedgerIntegrity = "ledger:integrity_scan"
	// TaskUnpostedScan reconciles finance documents against journal links.
	TaskUnpostedScan = "finance:unposted_scan"
	// TaskStockRecount recomputes batch and product stock counters.
	TaskStockRecount = "inventory:stock_recount"
	// TaskReallocateContainers re-runs landed cost allocation for all containers.
	TaskReallocateContainers = "importcost:reallocate"
)

// StockRecountPayload optionally narrows the recount to one product.
type StockRecountPayload struct {
	ProductID int64 `json:"product_id,omitempty"`
}

// NewLedgerIntegrityTask constructs the nightly integrity scan task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil, asynq.Queue(QueueDefault))
}

// NewUnpostedScanTask constructs the posting reconciliation task.
func NewUnpostedScanTask() *asynq.Task {
	return asynq.NewTask(TaskUnpostedScan, nil, asynq.Queue(QueueDefault))
}

// NewStockRecountTask constructs a stock recount task. A zero productID means
// every active product.
func NewStockRecountTask(productID int64) (*asynq.Task, error) {
	body, err := json.Marshal(StockRecountPayload{ProductID: productID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockRecount, body, asynq.Queue(QueueDefault)), nil
}

// NewReallocateContainersTask constructs the landed cost reallocation task.
func NewReallocateContainersTask() *asynq.Task {
	return asynq.NewTask(TaskReallocateContainers, nil, asynq.Queue(QueueDefault))
}

// DefaultCron returns the standing schedule for maintenance jobs.
func DefaultCron() ([]CronRegistration, error) {
	recount, err := NewStockRecountTask(0)
	if err != nil {
		return nil, err
	}
	return []CronRegistration{
		{Spec: "0 1 * * *", Task: NewLedgerIntegrityTask()},
		{Spec: "30 1 * * *", Task: NewUnpostedScanTask()},
		{Spec: "0 2 * * *", Task: recount},
		{Spec: "30 2 * * *", Task: NewReallocateContainersTask()},
	}, nil
}
