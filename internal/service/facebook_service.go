package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/maheshrc27/postpipe/internal/transfer"
)

const linkNotAvailable = "Link not available"

type facebookService struct {
	gc     *graphClient
	pageID string
	token  string
}

// NewFacebookService publishes photo posts to a Facebook page.
func NewFacebookService(baseURL, pageID, token string, hc *http.Client) Publisher {
	if hc == nil {
		hc = defaultHTTPClient()
	}
	return &facebookService{
		gc:     &graphClient{baseURL: baseURL, hc: hc},
		pageID: pageID,
		token:  token,
	}
}

func (s *facebookService) Publish(ctx context.Context, req PublishRequest) (bool, string) {
	if err := requireSetting("Facebook page id", s.pageID); err != nil {
		return false, err.Error()
	}
	if err := requireSetting("Facebook page token", s.token); err != nil {
		return false, err.Error()
	}

	path := fmt.Sprintf("/%s/photos", s.pageID)
	payload := map[string]any{
		"url":          req.ImageURL,
		"caption":      req.Caption,
		"access_token": s.token,
	}
	if req.ImageURL == "" {
		path = fmt.Sprintf("/%s/feed", s.pageID)
		payload = map[string]any{
			"message":      req.Caption,
			"access_token": s.token,
		}
	}

	var result transfer.GraphIDResponse
	if err := s.gc.post(ctx, path, payload, &result); err != nil {
		return false, err.Error()
	}

	postID := result.PostID
	if postID == "" {
		postID = result.ID
	}
	if postID == "" {
		return true, linkNotAvailable
	}
	return true, "https://www.facebook.com/" + postID
}
