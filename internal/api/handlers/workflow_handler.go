package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/postpipe/internal/queue"
	"github.com/maheshrc27/postpipe/internal/service"
	"github.com/maheshrc27/postpipe/internal/transfer"
)

type WorkflowHandler struct {
	s           service.WorkflowService
	AsynqClient queue.Enqueuer
}

// NewWorkflowHandler runs work on the queue when asynqClient is set, and
// inline otherwise. ?wait=true always runs inline.
func NewWorkflowHandler(service service.WorkflowService, asynqClient queue.Enqueuer) *WorkflowHandler {
	return &WorkflowHandler{s: service, AsynqClient: asynqClient}
}

func (h *WorkflowHandler) inline(c *fiber.Ctx) bool {
	return h.AsynqClient == nil || c.QueryBool("wait", false)
}

func (h *WorkflowHandler) Index(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service":   "postpipe",
		"status":    "ok",
		"platforms": h.s.Platforms(),
	})
}

func (h *WorkflowHandler) StartWorkflow(c *fiber.Ctx) error {
	var req transfer.StartWorkflowRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if !validArticleURL(req.ArticleURL) {
		return errorResponse(c, fiber.StatusBadRequest, errors.New("article_url must be an absolute http(s) URL"))
	}
	if len(req.Platforms) == 0 {
		return errorResponse(c, fiber.StatusBadRequest, errors.New("select at least one platform"))
	}
	known := make(map[string]string)
	for _, name := range h.s.Platforms() {
		known[strings.ToLower(name)] = name
	}
	for i, name := range req.Platforms {
		canonical, ok := known[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return errorResponse(c, fiber.StatusBadRequest, fmt.Errorf("%w: %q", service.ErrUnknownPlatform, name))
		}
		req.Platforms[i] = canonical
	}
	emails := splitEmails(req.ApproverEmails)

	if !h.inline(c) {
		taskID, err := queue.EnqueueStartWorkflow(h.AsynqClient, queue.StartWorkflowPayload{
			ArticleURL:     strings.TrimSpace(req.ArticleURL),
			Platforms:      req.Platforms,
			ApproverEmails: emails,
		})
		if err != nil {
			slog.Error(err.Error())
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Error queueing workflow",
			})
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"message": "Workflow queued",
			"task_id": taskID,
		})
	}

	result, err := h.s.StartWorkflow(c.Context(), strings.TrimSpace(req.ArticleURL), req.Platforms, emails)
	if err != nil {
		return errorResponse(c, statusFor(err), err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *WorkflowHandler) RunScheduling(c *fiber.Ctx) error {
	if !h.inline(c) {
		return h.enqueueRun(c, queue.TaskTypeRunScheduling)
	}
	return c.JSON(fiber.Map{"runs": h.s.RunScheduling(c.Context())})
}

func (h *WorkflowHandler) RunPublishing(c *fiber.Ctx) error {
	if !h.inline(c) {
		return h.enqueueRun(c, queue.TaskTypeRunPublishing)
	}
	return c.JSON(fiber.Map{"runs": h.s.RunPublishing(c.Context())})
}

func (h *WorkflowHandler) enqueueRun(c *fiber.Ctx, taskType string) error {
	if err := queue.EnqueueRun(h.AsynqClient, taskType); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Error queueing run",
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Run queued",
		"task":    taskType,
	})
}
