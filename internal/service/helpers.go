package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maheshrc27/postpipe/internal/transfer"
)

const userAgent = "Mozilla/5.0 (compatible; postpipe/1.0)"

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// responseError turns a >= 400 response into an error carrying the status and
// the start of the body. Graph error envelopes are unwrapped to their message.
func responseError(service string, resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))

	var ge transfer.GraphErrorResponse
	if json.Unmarshal(payload, &ge) == nil && ge.Error.Message != "" {
		return fmt.Errorf("%s error %s: %s", service, resp.Status, ge.Error.Message)
	}
	return fmt.Errorf("%s error %s: %s", service, resp.Status, strings.TrimSpace(string(payload)))
}

type graphClient struct {
	baseURL string
	hc      *http.Client
}

func (g *graphClient) post(ctx context.Context, path string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(req, out)
}

func (g *graphClient) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	return g.do(req, out)
}

func (g *graphClient) do(req *http.Request, out any) error {
	resp, err := g.hc.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if err := responseError("graph", resp); err != nil {
		slog.Info(err.Error())
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}
	return nil
}

func requireSetting(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(name + " is not configured")
	}
	return nil
}
