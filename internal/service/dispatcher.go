package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maheshrc27/postpipe/internal/models"
)

const invalidPlatformMessage = "Invalid platform name provided."

// PublishRequest is what an adapter needs to publish one post.
type PublishRequest struct {
	PostID   string
	Caption  string
	ImageURL string
}

// Publisher is one platform protocol. Failures are reported as (false,
// message) and never returned as errors.
type Publisher interface {
	Publish(ctx context.Context, req PublishRequest) (bool, string)
}

type Dispatcher interface {
	Publish(ctx context.Context, platform string, rec *models.PostRecord) (bool, string)
}

type dispatcher struct {
	platforms map[string]models.PlatformConfig
	adapters  map[models.AdapterKind]Publisher
}

func NewDispatcher(platforms []models.PlatformConfig, adapters map[models.AdapterKind]Publisher) Dispatcher {
	byName := make(map[string]models.PlatformConfig, len(platforms))
	for _, p := range platforms {
		byName[strings.ToLower(p.Name)] = p
	}
	return &dispatcher{platforms: byName, adapters: adapters}
}

func (d *dispatcher) Publish(ctx context.Context, platform string, rec *models.PostRecord) (ok bool, result string) {
	p, found := d.platforms[strings.ToLower(strings.TrimSpace(platform))]
	if !found {
		return false, invalidPlatformMessage
	}
	adapter, found := d.adapters[p.Adapter]
	if !found || adapter == nil {
		return false, invalidPlatformMessage
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("publisher panicked", "platform", p.Name, "post_id", rec.PostID, "panic", r)
			ok, result = false, fmt.Sprintf("An unexpected error occurred in the dispatcher: %v", r)
		}
	}()

	slog.Info("publishing", "platform", p.Name, "post_id", rec.PostID)
	return adapter.Publish(ctx, PublishRequest{
		PostID:   rec.PostID,
		Caption:  BuildCaption(p, rec),
		ImageURL: strings.TrimSpace(rec.MatchedImagePath),
	})
}

// BuildCaption assembles the published text. Short-text platforms get the
// bare text; others get hashtags and, when configured, the article link.
func BuildCaption(p models.PlatformConfig, rec *models.PostRecord) string {
	if p.Adapter == models.AdapterShortText {
		return rec.Text
	}
	caption := rec.Text + "\n\n" + rec.Hashtags
	if p.AppendArticleLink {
		caption += "\n\nRead the full article here:\n" + rec.ArticleURL
	}
	return caption
}
