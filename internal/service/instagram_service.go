package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/maheshrc27/postpipe/internal/transfer"
)

const containerTimeoutMessage = "Instagram media container did not finish processing in time."

type instagramService struct {
	gc        *graphClient
	accountID string
	token     string
	poller    Poller
}

// NewInstagramService publishes through the container handshake: create,
// wait until FINISHED, publish, then read the permalink.
func NewInstagramService(baseURL, accountID, token string, poller Poller, hc *http.Client) Publisher {
	if hc == nil {
		hc = defaultHTTPClient()
	}
	return &instagramService{
		gc:        &graphClient{baseURL: baseURL, hc: hc},
		accountID: accountID,
		token:     token,
		poller:    poller,
	}
}

func (s *instagramService) Publish(ctx context.Context, req PublishRequest) (bool, string) {
	if err := requireSetting("Instagram account id", s.accountID); err != nil {
		return false, err.Error()
	}
	if err := requireSetting("Instagram access token", s.token); err != nil {
		return false, err.Error()
	}
	if req.ImageURL == "" {
		return false, "Instagram posts require an image."
	}

	containerID, err := s.createContainer(ctx, req.ImageURL, req.Caption)
	if err != nil {
		return false, err.Error()
	}

	var lastStatus string
	outcome, err := s.poller.Poll(ctx, func(ctx context.Context) (PollState, error) {
		var status transfer.GraphContainerStatus
		q := url.Values{"fields": {"status_code"}, "access_token": {s.token}}
		if err := s.gc.get(ctx, "/"+containerID, q, &status); err != nil {
			return StateFailed, err
		}
		lastStatus = status.StatusCode
		switch status.StatusCode {
		case "FINISHED":
			return StateReady, nil
		case "ERROR", "EXPIRED":
			return StateFailed, nil
		}
		return StatePending, nil
	})
	switch outcome {
	case PollTimedOut:
		return false, containerTimeoutMessage
	case PollFailed:
		if err != nil {
			return false, err.Error()
		}
		return false, fmt.Sprintf("Instagram media container %s reported status %s.", containerID, lastStatus)
	}

	mediaID, err := s.publishContainer(ctx, containerID)
	if err != nil {
		return false, err.Error()
	}

	var permalink transfer.GraphPermalink
	q := url.Values{"fields": {"permalink"}, "access_token": {s.token}}
	if err := s.gc.get(ctx, "/"+mediaID, q, &permalink); err != nil {
		return false, err.Error()
	}
	if permalink.Permalink == "" {
		return true, linkNotAvailable
	}
	return true, permalink.Permalink
}

func (s *instagramService) createContainer(ctx context.Context, imageURL, caption string) (string, error) {
	payload := map[string]any{
		"image_url":    imageURL,
		"caption":      caption,
		"access_token": s.token,
	}

	var result transfer.GraphIDResponse
	if err := s.gc.post(ctx, fmt.Sprintf("/%s/media", s.accountID), payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("no media ID returned from Instagram")
	}
	return result.ID, nil
}

func (s *instagramService) publishContainer(ctx context.Context, containerID string) (string, error) {
	payload := map[string]any{
		"creation_id":  containerID,
		"access_token": s.token,
	}

	var result transfer.GraphIDResponse
	if err := s.gc.post(ctx, fmt.Sprintf("/%s/media_publish", s.accountID), payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("no published media ID returned from Instagram")
	}
	log.Printf("Published Instagram container %s as %s", containerID, result.ID)
	return result.ID, nil
}
