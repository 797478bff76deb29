package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/maheshrc27/postpipe/internal/models"
	"github.com/maheshrc27/postpipe/internal/repository"
)

// ComputeSlots assigns n slots starting from now. Every slot lies in
// [w.Start, w.End) local time and consecutive slots are w.Interval apart
// unless the next one had to move to the following day's start.
func ComputeSlots(now time.Time, n int, w models.Window) []time.Time {
	if n <= 0 {
		return nil
	}

	now = now.In(w.Location).Truncate(time.Second)
	var cursor time.Time
	switch tod := timeOfDay(now); {
	case tod >= w.End:
		cursor = clockOn(now.AddDate(0, 0, 1), w.Start)
	case tod < w.Start:
		cursor = clockOn(now, w.Start)
	default:
		cursor = now
	}

	slots := make([]time.Time, 0, n)
	for range n {
		switch tod := timeOfDay(cursor); {
		case tod >= w.End:
			cursor = clockOn(cursor.AddDate(0, 0, 1), w.Start)
		case tod < w.Start:
			cursor = clockOn(cursor, w.Start)
		}
		slots = append(slots, cursor)
		cursor = cursor.Add(w.Interval)
	}
	return slots
}

// BuildSchedule turns approved records into fresh schedule entries.
func BuildSchedule(approved []*models.PostRecord, now time.Time, w models.Window) []*models.ScheduleEntry {
	slots := ComputeSlots(now, len(approved), w)
	entries := make([]*models.ScheduleEntry, len(approved))
	for i, rec := range approved {
		entries[i] = &models.ScheduleEntry{
			PostRecord:       *rec,
			ScheduledTime:    slots[i],
			ScheduledTimeRaw: slots[i].Format(models.ScheduledTimeLayout),
		}
	}
	return entries
}

func timeOfDay(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}

func clockOn(day time.Time, offset time.Duration) time.Time {
	y, mo, d := day.Date()
	h := int(offset / time.Hour)
	m := int((offset % time.Hour) / time.Minute)
	return time.Date(y, mo, d, h, m, 0, 0, day.Location())
}

type SchedulingService interface {
	SchedulePlatform(ctx context.Context, p models.PlatformConfig) ([]*models.ScheduleEntry, error)
}

type schedulingService struct {
	pr        repository.PostRepository
	platforms []models.PlatformConfig
	window    models.Window
	now       func() time.Time
}

func NewSchedulingService(pr repository.PostRepository, platforms []models.PlatformConfig, window models.Window, now func() time.Time) SchedulingService {
	if now == nil {
		now = time.Now
	}
	return &schedulingService{pr: pr, platforms: platforms, window: window, now: now}
}

// SchedulePlatform recomputes the platform's whole schedule stage from its
// approved fan-out records. Previous slots and publish results are replaced.
func (s *schedulingService) SchedulePlatform(ctx context.Context, p models.PlatformConfig) ([]*models.ScheduleEntry, error) {
	records, header, err := s.pr.ListRecords(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrScheduling, p.Name, err)
	}
	if len(header) == 0 {
		header = p.FanoutHeader()
	}

	approved := FilterApproved(records)
	entries := BuildSchedule(approved, s.now(), s.window)

	if err := s.pr.ReplaceSchedule(ctx, p, models.ScheduleHeader(header), entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrScheduling, p.Name, err)
	}

	slog.Info("schedule written", "platform", p.Name, "approved", len(approved), "total", len(records))
	return entries, nil
}

// sortByScheduledTime orders entries by slot; desc reverses the order.
func sortByScheduledTime(entries []*models.ScheduleEntry, desc bool) {
	slices.SortStableFunc(entries, func(a, b *models.ScheduleEntry) int {
		c := a.ScheduledTime.Compare(b.ScheduledTime)
		if desc {
			return -c
		}
		return c
	})
}
