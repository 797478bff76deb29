package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/postpipe/internal/models"
	"github.com/maheshrc27/postpipe/internal/repository"
)

type PublishingService interface {
	PublishPlatform(ctx context.Context, p models.PlatformConfig) (int, error)
}

type publishingService struct {
	pr        repository.PostRepository
	ph        repository.PostingHistoryRepository
	ds        Dispatcher
	platforms []models.PlatformConfig
	loc       *time.Location
	maxDue    int
	now       func() time.Time
}

// NewPublishingService publishes at most maxDue due entries per platform per
// run. ph may be nil when no history database is configured.
func NewPublishingService(
	pr repository.PostRepository,
	ph repository.PostingHistoryRepository,
	ds Dispatcher,
	platforms []models.PlatformConfig,
	loc *time.Location,
	maxDue int,
	now func() time.Time) PublishingService {
	if maxDue <= 0 {
		maxDue = 1
	}
	if now == nil {
		now = time.Now
	}
	return &publishingService{pr: pr, ph: ph, ds: ds, platforms: platforms, loc: loc, maxDue: maxDue, now: now}
}

// PublishPlatform walks the schedule in stored order and returns how many
// publish attempts were made.
func (s *publishingService) PublishPlatform(ctx context.Context, p models.PlatformConfig) (int, error) {
	entries, err := s.pr.ListScheduled(ctx, p, s.loc)
	if err != nil {
		return 0, fmt.Errorf("read schedule for %s: %w", p.Name, err)
	}

	now := s.now().In(s.loc)
	attempts := 0
	for _, entry := range entries {
		if attempts >= s.maxDue {
			break
		}
		if !entry.IsPending() {
			continue
		}
		if entry.ScheduledTime.IsZero() {
			slog.Error("unreadable scheduled time", "platform", p.Name, "row", entry.RowRef, "value", entry.ScheduledTimeRaw)
			continue
		}
		if !entry.IsDue(now) {
			continue
		}

		attempts++
		ok, result := s.ds.Publish(ctx, p.Name, &entry.PostRecord)
		status, link := models.PostedStatusPosted, result
		if !ok {
			status, link = models.ErrorStatus(result), ""
		}

		if err := s.pr.UpdatePublishResult(ctx, p, entry.RowRef, entry.PostID, status, link); err != nil {
			return attempts, fmt.Errorf("record publish result for %s row %d: %w", p.Name, entry.RowRef, err)
		}
		slog.Info("publish recorded", "platform", p.Name, "post_id", entry.PostID, "status", status)
		s.recordHistory(ctx, p, entry, ok, result)
	}
	return attempts, nil
}

func (s *publishingService) recordHistory(ctx context.Context, p models.PlatformConfig, entry *models.ScheduleEntry, ok bool, result string) {
	if s.ph == nil {
		return
	}
	_, err := s.ph.Create(ctx, &models.PostingHistory{
		Platform:      p.Name,
		PostID:        entry.PostID,
		ScheduledTime: entry.ScheduledTimeRaw,
		Success:       ok,
		Result:        result,
	})
	if err != nil {
		slog.Error("could not write posting history", "platform", p.Name, "post_id", entry.PostID, "error", err)
	}
}
