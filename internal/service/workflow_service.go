package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/postpipe/internal/models"
	"github.com/maheshrc27/postpipe/internal/repository"
	"github.com/maheshrc27/postpipe/internal/transfer"
)

// WorkflowService is the control surface used by the HTTP handlers, the
// queue worker and the CLI.
type WorkflowService interface {
	StartWorkflow(ctx context.Context, articleURL string, platforms []string, approverEmails []string) (*transfer.StartWorkflowResult, error)
	RunScheduling(ctx context.Context) []transfer.PlatformRun
	RunPublishing(ctx context.Context) []transfer.PlatformRun
	ListAwaitingApproval(ctx context.Context) ([]*models.PostRecord, error)
	ListScheduled(ctx context.Context) ([]*models.ScheduleEntry, error)
	ListPosted(ctx context.Context) ([]*models.ScheduleEntry, error)
	SetApproval(ctx context.Context, platform, postID, value string) error
	ListHistory(ctx context.Context, platform string, limit uint64) ([]*models.PostingHistory, error)
	Platforms() []string
}

type workflowService struct {
	is        IngestionService
	ss        SchedulingService
	ps        PublishingService
	pr        repository.PostRepository
	ph        repository.PostingHistoryRepository
	platforms []models.PlatformConfig
	loc       *time.Location
	runs      *runLocks
}

func NewWorkflowService(
	is IngestionService,
	ss SchedulingService,
	ps PublishingService,
	pr repository.PostRepository,
	ph repository.PostingHistoryRepository,
	platforms []models.PlatformConfig,
	loc *time.Location) WorkflowService {
	return &workflowService{
		is:        is,
		ss:        ss,
		ps:        ps,
		pr:        pr,
		ph:        ph,
		platforms: platforms,
		loc:       loc,
		runs:      newRunLocks(),
	}
}

func (s *workflowService) StartWorkflow(ctx context.Context, articleURL string, platforms []string, approverEmails []string) (*transfer.StartWorkflowResult, error) {
	return s.is.StartWorkflow(ctx, articleURL, platforms, approverEmails)
}

// RunScheduling reschedules every platform. A failing platform is reported in
// its PlatformRun and does not stop the others.
func (s *workflowService) RunScheduling(ctx context.Context) []transfer.PlatformRun {
	return s.runEach(ctx, "scheduling", func(ctx context.Context, p models.PlatformConfig) (int, error) {
		entries, err := s.ss.SchedulePlatform(ctx, p)
		return len(entries), err
	})
}

func (s *workflowService) RunPublishing(ctx context.Context) []transfer.PlatformRun {
	return s.runEach(ctx, "publishing", s.ps.PublishPlatform)
}

// runEach holds the platform's run lock around fn, so a scheduling and a
// publishing run never touch the same platform concurrently.
func (s *workflowService) runEach(ctx context.Context, kind string, fn func(context.Context, models.PlatformConfig) (int, error)) []transfer.PlatformRun {
	runs := make([]transfer.PlatformRun, 0, len(s.platforms))
	for _, p := range s.platforms {
		run := transfer.PlatformRun{Platform: p.Name}

		unlock := s.runs.lock(p.Name)
		n, err := fn(ctx, p)
		unlock()

		if err != nil {
			slog.Error(kind+" run failed", "platform", p.Name, "error", err)
			run.Error = err.Error()
		}
		run.Processed = n
		runs = append(runs, run)
	}
	return runs
}

// ListAwaitingApproval skips platforms whose store cannot be read.
func (s *workflowService) ListAwaitingApproval(ctx context.Context) ([]*models.PostRecord, error) {
	var out []*models.PostRecord
	for _, p := range s.platforms {
		records, _, err := s.pr.ListRecords(ctx, p)
		if err != nil {
			slog.Error("could not read fan-out stage", "platform", p.Name, "error", err)
			continue
		}
		out = append(out, AwaitingApproval(records)...)
	}
	return out, nil
}

func (s *workflowService) ListScheduled(ctx context.Context) ([]*models.ScheduleEntry, error) {
	out := s.allScheduled(ctx)
	sortByScheduledTime(out, false)
	return out, nil
}

func (s *workflowService) ListPosted(ctx context.Context) ([]*models.ScheduleEntry, error) {
	var out []*models.ScheduleEntry
	for _, e := range s.allScheduled(ctx) {
		if e.IsPosted() {
			out = append(out, e)
		}
	}
	sortByScheduledTime(out, true)
	return out, nil
}

func (s *workflowService) allScheduled(ctx context.Context) []*models.ScheduleEntry {
	var out []*models.ScheduleEntry
	for _, p := range s.platforms {
		entries, err := s.pr.ListScheduled(ctx, p, s.loc)
		if err != nil {
			slog.Error("could not read schedule stage", "platform", p.Name, "error", err)
			continue
		}
		out = append(out, entries...)
	}
	return out
}

func (s *workflowService) SetApproval(ctx context.Context, platform, postID, value string) error {
	p, ok := findPlatform(s.platforms, platform)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}
	value = strings.ToLower(strings.TrimSpace(value))
	if value != models.ApprovalYes && value != models.ApprovalNo {
		return fmt.Errorf("%w: must be %q or %q, got %q", ErrInvalidApproval, models.ApprovalYes, models.ApprovalNo, value)
	}

	if err := s.pr.SetApproval(ctx, p, postID, value); err != nil {
		return err
	}
	slog.Info("approval recorded", "platform", p.Name, "post_id", postID, "value", value)
	return nil
}

func (s *workflowService) ListHistory(ctx context.Context, platform string, limit uint64) ([]*models.PostingHistory, error) {
	if s.ph == nil {
		return nil, nil
	}
	return s.ph.List(ctx, platform, limit)
}

func (s *workflowService) Platforms() []string {
	names := make([]string, len(s.platforms))
	for i, p := range s.platforms {
		names[i] = p.Name
	}
	return names
}
