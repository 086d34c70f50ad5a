// internal/common/camunda/worker.go
package camunda

import (
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// WorkerOptions describes one job worker subscription.
type WorkerOptions struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
	Handler       worker.JobHandler
}

func (o WorkerOptions) Validate() error {
	if o.TaskType == "" {
		return fmt.Errorf("task type is required")
	}
	if o.Handler == nil {
		return fmt.Errorf("handler is required for %s", o.TaskType)
	}
	if o.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// OpenWorker starts polling for jobs of opts.TaskType. Close the returned
// worker to stop.
func OpenWorker(client zbc.Client, opts WorkerOptions) (worker.JobWorker, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(opts.Handler).
		MaxJobsActive(opts.MaxJobsActive).
		Timeout(opts.Timeout).
		Name(fmt.Sprintf("%s-worker", opts.TaskType)).
		Open(), nil
}
