package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/postpipe/internal/models"
)

type capturePublisher struct {
	got []PublishRequest
}

func (c *capturePublisher) Publish(ctx context.Context, req PublishRequest) (bool, string) {
	c.got = append(c.got, req)
	return true, "https://example.com/" + req.PostID
}

type panicPublisher struct{}

func (panicPublisher) Publish(ctx context.Context, req PublishRequest) (bool, string) {
	panic("nil map")
}

var captionRecord = &models.PostRecord{
	PostID:           "p1",
	ArticleURL:       "https://news.example.com/a",
	Text:             "Rates fell.",
	Hashtags:         "#rates #economy",
	MatchedImagePath: " https://cdn.example.com/c.png ",
}

func TestBuildCaption(t *testing.T) {
	platforms := testPlatforms()

	assert.Equal(t,
		"Rates fell.\n\n#rates #economy\n\nRead the full article here:\nhttps://news.example.com/a",
		BuildCaption(platforms[0], captionRecord))
	assert.Equal(t, "Rates fell.\n\n#rates #economy", BuildCaption(platforms[1], captionRecord))
	assert.Equal(t, "Rates fell.", BuildCaption(platforms[2], captionRecord))
}

func TestDispatcherRoutesByAdapter(t *testing.T) {
	feed := &capturePublisher{}
	short := &capturePublisher{}
	d := NewDispatcher(testPlatforms(), map[models.AdapterKind]Publisher{
		models.AdapterPhotoFeed: feed,
		models.AdapterShortText: short,
	})

	ok, result := d.Publish(context.Background(), "Facebook", captionRecord)
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/p1", result)
	require.Len(t, feed.got, 1)
	assert.Equal(t, "https://cdn.example.com/c.png", feed.got[0].ImageURL)
	assert.Contains(t, feed.got[0].Caption, "Read the full article here:")

	ok, _ = d.Publish(context.Background(), "twitter", captionRecord)
	assert.True(t, ok)
	require.Len(t, short.got, 1)
	assert.Equal(t, "Rates fell.", short.got[0].Caption)
}

func TestDispatcherUnknownPlatform(t *testing.T) {
	d := NewDispatcher(testPlatforms(), map[models.AdapterKind]Publisher{})

	ok, result := d.Publish(context.Background(), "myspace", captionRecord)
	assert.False(t, ok)
	assert.Equal(t, "Invalid platform name provided.", result)

	ok, result = d.Publish(context.Background(), "instagram", captionRecord)
	assert.False(t, ok)
	assert.Equal(t, "Invalid platform name provided.", result)
}

func TestDispatcherRecoversFromPanickingAdapter(t *testing.T) {
	d := NewDispatcher(testPlatforms(), map[models.AdapterKind]Publisher{
		models.AdapterTwoPhase: panicPublisher{},
	})

	ok, result := d.Publish(context.Background(), "instagram", captionRecord)
	assert.False(t, ok)
	assert.Equal(t, "An unexpected error occurred in the dispatcher: nil map", result)
}
