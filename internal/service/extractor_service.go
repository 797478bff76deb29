package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/maheshrc27/postpipe/internal/models"
)

// ContentExtractor fetches an article page and pulls out what generation needs.
type ContentExtractor interface {
	Fetch(ctx context.Context, articleURL string) (*models.ExtractedContent, error)
}

type htmlExtractor struct {
	hc *http.Client
}

func NewHTMLExtractor(hc *http.Client) ContentExtractor {
	if hc == nil {
		hc = defaultHTTPClient()
	}
	return &htmlExtractor{hc: hc}
}

func (e *htmlExtractor) Fetch(ctx context.Context, articleURL string) (*models.ExtractedContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.hc.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrExtraction, articleURL, err)
	}
	defer resp.Body.Close()
	if err := responseError("article", resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrExtraction, articleURL, err)
	}

	base := resp.Request.URL
	content := &models.ExtractedContent{
		Title:           extractTitle(doc),
		Text:            extractText(doc),
		ImageCandidates: extractImages(doc, base),
	}
	if content.Text == "" {
		return nil, fmt.Errorf("%w: no paragraph text found at %s", ErrExtraction, articleURL)
	}
	return content, nil
}

func extractTitle(doc *goquery.Document) string {
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func extractText(doc *goquery.Document) string {
	scope := doc.Find("article")
	if scope.Length() == 0 {
		scope = doc.Find("main")
	}
	if scope.Length() == 0 {
		scope = doc.Selection
	}

	var paragraphs []string
	scope.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.Join(paragraphs, "\n")
}

func extractImages(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]bool)
	var images []string
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("data-src")
		if src == "" {
			src, _ = img.Attr("src")
		}
		src = strings.TrimSpace(src)
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		ref, err := url.Parse(src)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if !seen[abs] {
			seen[abs] = true
			images = append(images, abs)
		}
	})
	return images
}
