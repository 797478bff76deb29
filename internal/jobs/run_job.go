package job

import (
	"log/slog"

	"github.com/robfig/cron"

	"github.com/maheshrc27/postpipe/internal/queue"
)

// RunJob turns cron ticks into queued scheduling and publishing runs. A tick
// that finds the same kind of run already queued is dropped.
type RunJob struct {
	client queue.Enqueuer
}

func NewRunJob(client queue.Enqueuer) *RunJob {
	return &RunJob{client: client}
}

func (j *RunJob) EnqueueScheduling() {
	if err := queue.EnqueueRun(j.client, queue.TaskTypeRunScheduling); err != nil {
		slog.Info(err.Error())
	}
}

func (j *RunJob) EnqueuePublishing() {
	if err := queue.EnqueueRun(j.client, queue.TaskTypeRunPublishing); err != nil {
		slog.Info(err.Error())
	}
}

// Register adds the periodic runs to c. An empty spec disables that run.
func (j *RunJob) Register(c *cron.Cron, scheduleSpec, publishSpec string) error {
	if scheduleSpec != "" {
		if err := c.AddFunc(scheduleSpec, j.EnqueueScheduling); err != nil {
			return err
		}
	}
	if publishSpec != "" {
		if err := c.AddFunc(publishSpec, j.EnqueuePublishing); err != nil {
			return err
		}
	}
	return nil
}
