package queue

import (
	"github.com/maheshrc27/postpipe/internal/service"
)

type Queue struct {
	ws service.WorkflowService
}

func NewQueue(ws service.WorkflowService) *Queue {
	return &Queue{ws: ws}
}

const (
	TaskTypeStartWorkflow = "workflow:start"
	TaskTypeRunScheduling = "workflow:schedule"
	TaskTypeRunPublishing = "workflow:publish"
)

type StartWorkflowPayload struct {
	ArticleURL     string   `json:"article_url"`
	Platforms      []string `json:"platforms"`
	ApproverEmails []string `json:"approver_emails"`
}
