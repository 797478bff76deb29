package queue

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

// runLock keeps a second scheduling or publishing run from being queued while
// one is still pending or active.
const runLock = 10 * time.Minute

// Enqueuer is the part of *asynq.Client the producers need.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func EnqueueStartWorkflow(client Enqueuer, payload StartWorkflowPayload) (string, error) {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	task := asynq.NewTask(TaskTypeStartWorkflow, taskPayload)
	info, err := client.Enqueue(task, asynq.MaxRetry(0), asynq.Timeout(30*time.Minute))
	if err != nil {
		return "", err
	}

	log.Printf("Task queued: %s %s", task.Type(), payload.ArticleURL)
	return info.ID, nil
}

// EnqueueRun queues a scheduling or publishing run. A run that is already
// queued is not an error.
func EnqueueRun(client Enqueuer, taskType string) error {
	if taskType != TaskTypeRunScheduling && taskType != TaskTypeRunPublishing {
		return errors.New("unknown run task type " + taskType)
	}

	task := asynq.NewTask(taskType, nil)
	_, err := client.Enqueue(task, asynq.MaxRetry(0), asynq.Unique(runLock))
	if errors.Is(err, asynq.ErrDuplicateTask) {
		log.Printf("Task %s already queued", taskType)
		return nil
	}
	if err != nil {
		return err
	}

	log.Printf("Task queued: %s", taskType)
	return nil
}
