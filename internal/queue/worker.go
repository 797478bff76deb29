package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/maheshrc27/postpipe/internal/transfer"
)

// Register binds every workflow task type on mux.
func (j *Queue) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypeStartWorkflow, j.HandleStartWorkflowTask)
	mux.HandleFunc(TaskTypeRunScheduling, j.HandleRunSchedulingTask)
	mux.HandleFunc(TaskTypeRunPublishing, j.HandleRunPublishingTask)
}

func (j *Queue) HandleStartWorkflowTask(ctx context.Context, task *asynq.Task) error {
	var payload StartWorkflowPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", task.Type(), err, asynq.SkipRetry)
	}

	result, err := j.ws.StartWorkflow(ctx, payload.ArticleURL, payload.Platforms, payload.ApproverEmails)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	log.Printf("Workflow for %s created %d records (%d failed)", result.ArticleURL, result.Created, result.Failed)
	return nil
}

func (j *Queue) HandleRunSchedulingTask(ctx context.Context, task *asynq.Task) error {
	logRuns(task.Type(), j.ws.RunScheduling(ctx))
	return nil
}

func (j *Queue) HandleRunPublishingTask(ctx context.Context, task *asynq.Task) error {
	logRuns(task.Type(), j.ws.RunPublishing(ctx))
	return nil
}

// logRuns reports per-platform results. Platform failures never fail the
// task; the next run retries them.
func logRuns(taskType string, runs []transfer.PlatformRun) {
	for _, run := range runs {
		if run.Error != "" {
			slog.Error("platform run failed", "task", taskType, "platform", run.Platform, "error", run.Error)
			continue
		}
		log.Printf("%s: %s processed %d", taskType, run.Platform, run.Processed)
	}
}
