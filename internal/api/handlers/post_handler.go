package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/postpipe/internal/models"
	"github.com/maheshrc27/postpipe/internal/service"
	"github.com/maheshrc27/postpipe/internal/transfer"
)

const defaultHistoryLimit = 50

type PostHandler struct {
	s service.WorkflowService
}

func NewPostHandler(service service.WorkflowService) *PostHandler {
	return &PostHandler{s: service}
}

func (h *PostHandler) ListAwaitingApproval(c *fiber.Ctx) error {
	records, err := h.s.ListAwaitingApproval(c.Context())
	if err != nil {
		return errorResponse(c, statusFor(err), err)
	}
	if records == nil {
		records = []*models.PostRecord{}
	}
	return c.JSON(records)
}

func (h *PostHandler) ListScheduled(c *fiber.Ctx) error {
	entries, err := h.s.ListScheduled(c.Context())
	if err != nil {
		return errorResponse(c, statusFor(err), err)
	}
	if entries == nil {
		entries = []*models.ScheduleEntry{}
	}
	return c.JSON(entries)
}

func (h *PostHandler) ListPosted(c *fiber.Ctx) error {
	entries, err := h.s.ListPosted(c.Context())
	if err != nil {
		return errorResponse(c, statusFor(err), err)
	}
	if entries == nil {
		entries = []*models.ScheduleEntry{}
	}
	return c.JSON(entries)
}

func (h *PostHandler) ListHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultHistoryLimit)
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	history, err := h.s.ListHistory(c.Context(), strings.TrimSpace(c.Query("platform")), uint64(limit))
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list posting history",
		})
	}
	if history == nil {
		history = []*models.PostingHistory{}
	}
	return c.JSON(history)
}

func (h *PostHandler) Approve(c *fiber.Ctx) error {
	return h.setApproval(c, models.ApprovalYes)
}

func (h *PostHandler) Reject(c *fiber.Ctx) error {
	return h.setApproval(c, models.ApprovalNo)
}

func (h *PostHandler) setApproval(c *fiber.Ctx, value string) error {
	var req transfer.ApprovalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}
	if strings.TrimSpace(req.Platform) == "" || strings.TrimSpace(req.PostID) == "" {
		return errorResponse(c, fiber.StatusBadRequest, errors.New("platform and post_id are required"))
	}

	if err := h.s.SetApproval(c.Context(), req.Platform, strings.TrimSpace(req.PostID), value); err != nil {
		return errorResponse(c, statusFor(err), err)
	}
	return c.JSON(fiber.Map{
		"platform":          req.Platform,
		"post_id":           req.PostID,
		"approved_by_human": value,
	})
}
