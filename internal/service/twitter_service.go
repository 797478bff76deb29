package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"time"

	"github.com/h2non/filetype"
	"golang.org/x/oauth2"

	"github.com/maheshrc27/postpipe/internal/transfer"
)

type twitterService struct {
	baseURL   string
	uploadURL string
	api       *http.Client
	dl        *http.Client
}

// NewTwitterService posts through the X v2 API with an OAuth2 user token.
func NewTwitterService(ctx context.Context, baseURL, uploadURL, accessToken string) Publisher {
	var api *http.Client
	if accessToken != "" {
		api = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
		api.Timeout = 60 * time.Second
	}
	return &twitterService{
		baseURL:   baseURL,
		uploadURL: uploadURL,
		api:       api,
		dl:        defaultHTTPClient(),
	}
}

func (s *twitterService) Publish(ctx context.Context, req PublishRequest) (bool, string) {
	if s.api == nil {
		return false, "X access token is not configured"
	}

	var mediaIDs []string
	if req.ImageURL != "" {
		mediaID, err := s.uploadImage(ctx, req.ImageURL)
		if err != nil {
			slog.Warn("image upload failed, posting text only", "post_id", req.PostID, "error", err)
		} else {
			mediaIDs = append(mediaIDs, mediaID)
		}
	}

	tweetID, err := s.createTweet(ctx, req.Caption, mediaIDs)
	if err != nil {
		return false, err.Error()
	}
	return true, "https://twitter.com/anyuser/status/" + tweetID
}

// uploadImage stages the image in a temp file that is always removed.
func (s *twitterService) uploadImage(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	resp, err := s.dl.Do(req)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if err := responseError("image download", resp); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp("", "postpipe-media-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}

	head := make([]byte, 261)
	n, _ := tmp.ReadAt(head, 0)
	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return "", fmt.Errorf("unsupported media type for %s", imageURL)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind image: %w", err)
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if err := mw.WriteField("media_category", "tweet_image"); err != nil {
		return "", err
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="media"; filename="media.%s"`, kind.Extension))
	h.Set("Content-Type", kind.MIME.Value)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, tmp); err != nil {
		return "", fmt.Errorf("write media part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	upReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL, body)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	upReq.Header.Set("Content-Type", mw.FormDataContentType())

	upResp, err := s.api.Do(upReq)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	defer upResp.Body.Close()
	if err := responseError("x media upload", upResp); err != nil {
		return "", err
	}

	var result transfer.MediaUploadResponse
	if err := json.NewDecoder(upResp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if result.Data.ID == "" {
		return "", fmt.Errorf("no media id returned from X")
	}
	return result.Data.ID, nil
}

func (s *twitterService) createTweet(ctx context.Context, text string, mediaIDs []string) (string, error) {
	payload := transfer.TweetRequest{Text: text}
	if len(mediaIDs) > 0 {
		payload.Media = &transfer.TweetMedia{MediaIDs: mediaIDs}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.api.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()
	if err := responseError("x", resp); err != nil {
		return "", err
	}

	var result transfer.TweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if result.Data.ID == "" {
		return "", fmt.Errorf("no tweet id returned from X")
	}
	return result.Data.ID, nil
}
