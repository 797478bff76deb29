package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/postpipe/internal/models"
	"github.com/maheshrc27/postpipe/internal/repository"
)

type fakeHistory struct {
	created []*models.PostingHistory
	err     error
}

func (f *fakeHistory) Create(ctx context.Context, ph *models.PostingHistory) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.created = append(f.created, ph)
	return int64(len(f.created)), nil
}

func (f *fakeHistory) List(ctx context.Context, platform string, limit uint64) ([]*models.PostingHistory, error) {
	return f.created, f.err
}

var scheduleHeader = []string{"post_id", "Facebook_Post_Text", "Scheduled_Time", "Posted_Status", "Post_Link"}

func seedSchedule(o *repository.MemoryOpener, storeID string, rows ...[]string) {
	o.Seed(storeID, "Step 4", append([][]string{scheduleHeader}, rows...))
}

func TestPublishPlatformOnlyDueEntry(t *testing.T) {
	loc := berlin(t)
	fb := testPlatforms()[0]
	o := repository.NewMemoryOpener()
	seedSchedule(o, fb.StoreID,
		[]string{"p1", "one", "2024-03-01 10:00:00 CET", "", ""},
		[]string{"p2", "two", "2024-03-01 14:00:00 CET", "", ""},
	)
	ds := &fakeDispatcher{ok: true, result: "https://www.facebook.com/123_456"}
	now := time.Date(2024, 3, 1, 10, 5, 0, 0, loc)

	svc := NewPublishingService(repository.NewPostRepository(o), nil, ds, []models.PlatformConfig{fb}, loc, 1, fixedClock(now))
	n, err := svc.PublishPlatform(context.Background(), fb)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"facebook/p1"}, ds.calls)

	grid := o.Grid(fb.StoreID, "Step 4")
	assert.Equal(t, []string{"p1", "one", "2024-03-01 10:00:00 CET", "Posted", "https://www.facebook.com/123_456"}, grid[1])
	assert.Equal(t, []string{"p2", "two", "2024-03-01 14:00:00 CET", "", ""}, grid[2])
}

func TestPublishPlatformMaxDuePerRun(t *testing.T) {
	loc := berlin(t)
	fb := testPlatforms()[0]
	rows := [][]string{
		{"p1", "one", "2024-03-01 09:00:00 CET", "Posted", "link"},
		{"p2", "two", "2024-03-01 10:00:00 CET", "", ""},
		{"p3", "three", "2024-03-01 11:00:00 CET", "", ""},
		{"p4", "four", "2024-03-01 12:00:00 CET", "", ""},
	}
	now := time.Date(2024, 3, 1, 18, 0, 0, 0, loc)

	for _, tc := range []struct {
		maxDue int
		want   []string
	}{
		{maxDue: 0, want: []string{"facebook/p2"}},
		{maxDue: 1, want: []string{"facebook/p2"}},
		{maxDue: 2, want: []string{"facebook/p2", "facebook/p3"}},
		{maxDue: 10, want: []string{"facebook/p2", "facebook/p3", "facebook/p4"}},
	} {
		o := repository.NewMemoryOpener()
		seedSchedule(o, fb.StoreID, rows...)
		ds := &fakeDispatcher{ok: true, result: "link"}

		svc := NewPublishingService(repository.NewPostRepository(o), nil, ds, []models.PlatformConfig{fb}, loc, tc.maxDue, fixedClock(now))
		n, err := svc.PublishPlatform(context.Background(), fb)
		require.NoError(t, err)
		assert.Equal(t, len(tc.want), n, "maxDue %d", tc.maxDue)
		assert.Equal(t, tc.want, ds.calls, "maxDue %d", tc.maxDue)
	}
}

func TestPublishPlatformRecordsError(t *testing.T) {
	loc := berlin(t)
	fb := testPlatforms()[0]
	o := repository.NewMemoryOpener()
	seedSchedule(o, fb.StoreID, []string{"p1", "one", "2024-03-01 10:00:00 CET", "", "stale"})
	ds := &fakeDispatcher{ok: false, result: "graph error 400 Bad Request: bad token"}
	hist := &fakeHistory{}
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, loc)

	svc := NewPublishingService(repository.NewPostRepository(o), hist, ds, []models.PlatformConfig{fb}, loc, 1, fixedClock(now))
	n, err := svc.PublishPlatform(context.Background(), fb)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	row := o.Grid(fb.StoreID, "Step 4")[1]
	assert.Equal(t, "Error: graph error 400 Bad Request: bad token", row[3])
	assert.Equal(t, "", row[4])

	require.Len(t, hist.created, 1)
	assert.Equal(t, "facebook", hist.created[0].Platform)
	assert.Equal(t, "p1", hist.created[0].PostID)
	assert.Equal(t, "2024-03-01 10:00:00 CET", hist.created[0].ScheduledTime)
	assert.False(t, hist.created[0].Success)
}

func TestPublishPlatformSkipsUnreadableTime(t *testing.T) {
	loc := berlin(t)
	fb := testPlatforms()[0]
	o := repository.NewMemoryOpener()
	seedSchedule(o, fb.StoreID,
		[]string{"p1", "one", "tomorrow morning", "", ""},
		[]string{"p2", "two", "2024-03-01 09:00:00 CET", "", ""},
	)
	ds := &fakeDispatcher{ok: true, result: "link"}
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, loc)

	svc := NewPublishingService(repository.NewPostRepository(o), nil, ds, []models.PlatformConfig{fb}, loc, 1, fixedClock(now))
	n, err := svc.PublishPlatform(context.Background(), fb)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"facebook/p2"}, ds.calls)
	assert.Equal(t, "", o.Grid(fb.StoreID, "Step 4")[1][3])
}

func TestPublishPlatformHistoryFailureDoesNotAbort(t *testing.T) {
	loc := berlin(t)
	fb := testPlatforms()[0]
	o := repository.NewMemoryOpener()
	seedSchedule(o, fb.StoreID, []string{"p1", "one", "2024-03-01 09:00:00 CET", "", ""})
	ds := &fakeDispatcher{ok: true, result: "link"}
	hist := &fakeHistory{err: errors.New("db down")}

	svc := NewPublishingService(repository.NewPostRepository(o), hist, ds, []models.PlatformConfig{fb}, loc, 1,
		fixedClock(time.Date(2024, 3, 1, 9, 30, 0, 0, loc)))
	n, err := svc.PublishPlatform(context.Background(), fb)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Posted", o.Grid(fb.StoreID, "Step 4")[1][3])
}

func TestRunPublishingIsolatesPlatformFailures(t *testing.T) {
	loc := berlin(t)
	platforms := testPlatforms()
	mem := repository.NewMemoryOpener()
	mem.Seed("tw-book", "Step 4", [][]string{
		{"post_id", "Tweet", "Scheduled_Time", "Posted_Status", "Post_Link"},
		{"t1", "hello", "2024-03-01 09:00:00 CET", "", ""},
	})
	opener := routedOpener{failing: map[string]bool{"fb-book": true}, mem: mem}
	ds := &fakeDispatcher{ok: true, result: "https://twitter.com/anyuser/status/1"}

	ps := NewPublishingService(repository.NewPostRepository(opener), nil, ds, platforms, loc, 1,
		fixedClock(time.Date(2024, 3, 1, 9, 30, 0, 0, loc)))
	runs := NewWorkflowService(nil, nil, ps, nil, nil, platforms, loc).RunPublishing(context.Background())

	require.Len(t, runs, 3)
	assert.NotEmpty(t, runs[0].Error)
	assert.Empty(t, runs[1].Error)
	assert.Equal(t, 0, runs[1].Processed)
	assert.Equal(t, 1, runs[2].Processed)
	assert.Equal(t, []string{"twitter/t1"}, ds.calls)
	assert.Equal(t, "Posted", mem.Grid("tw-book", "Step 4")[1][3])
}
