package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	cfg "github.com/maheshrc27/postpipe/configs"
	"github.com/maheshrc27/postpipe/internal/models"
)

// GenerationService is the language model behind summaries, post text and
// image judgements.
type GenerationService interface {
	Generate(ctx context.Context, systemPrompt, userContent string) (string, error)
	ClassifyImage(ctx context.Context, imageURL string) (*models.ImageClassification, error)
	ScoreImageMatch(ctx context.Context, postText, imageURL string) (int, error)
}

type chatGenerator struct {
	endpoint    string
	apiKey      string
	model       string
	visionModel string
	prompts     cfg.Prompts
	httpClient  *http.Client
}

var firstInteger = regexp.MustCompile(`\d+`)

// NewChatGenerator talks to an OpenAI-compatible chat completions API.
func NewChatGenerator(gen cfg.Generation, prompts cfg.Prompts) GenerationService {
	return &chatGenerator{
		endpoint:    strings.TrimRight(gen.BaseURL, "/") + "/chat/completions",
		apiKey:      gen.APIKey,
		model:       gen.Model,
		visionModel: gen.VisionModel,
		prompts:     prompts,
		httpClient:  &http.Client{Timeout: 90 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatPart struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	ImageURL map[string]any `json:"image_url,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *chatGenerator) Generate(ctx context.Context, systemPrompt, userContent string) (string, error) {
	out, err := c.complete(ctx, c.model, []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userContent},
	}, false, 0)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return out, nil
}

func (c *chatGenerator) ClassifyImage(ctx context.Context, imageURL string) (*models.ImageClassification, error) {
	out, err := c.complete(ctx, c.visionModel, []chatMessage{
		{Role: "system", Content: c.prompts.IsChart},
		{Role: "user", Content: []chatPart{imagePart(imageURL)}},
	}, true, 50)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassification, err)
	}

	var result struct {
		IsChart    bool    `json:"is_chart"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		return nil, fmt.Errorf("%w: decode %q: %v", ErrClassification, out, err)
	}
	return &models.ImageClassification{IsChart: result.IsChart, Confidence: result.Confidence}, nil
}

func (c *chatGenerator) ScoreImageMatch(ctx context.Context, postText, imageURL string) (int, error) {
	out, err := c.complete(ctx, c.visionModel, []chatMessage{
		{Role: "system", Content: c.prompts.ImageMatching},
		{Role: "user", Content: []chatPart{
			{Type: "text", Text: fmt.Sprintf("Social Media Post Text: %q", postText)},
			imagePart(imageURL),
		}},
	}, true, 80)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return parseScore(out), nil
}

func parseScore(out string) int {
	var result struct {
		Score json.Number `json:"score"`
	}
	if err := json.Unmarshal([]byte(out), &result); err == nil && result.Score != "" {
		if f, err := result.Score.Float64(); err == nil {
			return int(f)
		}
	}
	if m := firstInteger.FindString(out); m != "" {
		n, _ := strconv.Atoi(m)
		return n
	}
	return 0
}

func imagePart(imageURL string) chatPart {
	return chatPart{Type: "image_url", ImageURL: map[string]any{"url": imageURL}}
}

func (c *chatGenerator) complete(ctx context.Context, model string, messages []chatMessage, jsonMode bool, maxTokens int) (string, error) {
	if c.apiKey == "" || c.model == "" {
		return "", fmt.Errorf("generation client misconfigured")
	}

	payload := map[string]any{
		"model":    model,
		"messages": messages,
	}
	if jsonMode {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}
	if maxTokens > 0 {
		payload["max_tokens"] = maxTokens
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	if err := responseError("chat", resp); err != nil {
		return "", err
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}
