package service

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	cfg "github.com/maheshrc27/postpipe/configs"
	"github.com/maheshrc27/postpipe/internal/models"
	"github.com/maheshrc27/postpipe/internal/repository"
	"github.com/maheshrc27/postpipe/internal/transfer"
)

const (
	chartConfidenceThreshold = 0.7
	imageMatchThreshold      = 5
)

type IngestionService interface {
	StartWorkflow(ctx context.Context, articleURL string, platforms []string, approverEmails []string) (*transfer.StartWorkflowResult, error)
}

type ingestionService struct {
	ex        ContentExtractor
	gs        GenerationService
	bs        BlobStorage
	pr        repository.PostRepository
	nt        Notifier
	platforms []models.PlatformConfig
	prompts   cfg.Prompts
	newID     func() (string, error)
}

// NewIngestionService wires the fan-out run. bs may be nil, in which case
// accepted images keep their source URL.
// Post ids stay alphanumeric so spreadsheet backends never read one as a
// formula or a number.
const postIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func newPostID() (string, error) {
	return gonanoid.Generate(postIDAlphabet, 21)
}

func NewIngestionService(
	ex ContentExtractor,
	gs GenerationService,
	bs BlobStorage,
	pr repository.PostRepository,
	nt Notifier,
	platforms []models.PlatformConfig,
	prompts cfg.Prompts) IngestionService {
	return &ingestionService{
		ex:        ex,
		gs:        gs,
		bs:        bs,
		pr:        pr,
		nt:        nt,
		platforms: platforms,
		prompts:   prompts,
		newID:     newPostID,
	}
}

func (s *ingestionService) StartWorkflow(ctx context.Context, articleURL string, platforms []string, approverEmails []string) (*transfer.StartWorkflowResult, error) {
	targets, err := resolvePlatforms(s.platforms, platforms)
	if err != nil {
		return nil, err
	}

	content, err := s.ex.Fetch(ctx, articleURL)
	if err != nil {
		slog.Error("extraction failed", "url", articleURL, "error", err)
		return nil, err
	}
	log.Printf("Extracted %q (%d image candidates)", content.Title, len(content.ImageCandidates))

	summary, err := s.gs.Generate(ctx, s.prompts.Summarize, content.Text)
	if err != nil {
		slog.Error("summary failed", "url", articleURL, "error", err)
		return nil, fmt.Errorf("summarize %s: %w", articleURL, err)
	}

	article := &models.Article{
		URL:       articleURL,
		Title:     content.Title,
		Summary:   summary,
		ImageURLs: s.acceptCharts(ctx, content),
	}
	result := &transfer.StartWorkflowResult{ArticleURL: articleURL, Title: article.Title}

	conclusions := ExtractConclusions(summary)
	result.Conclusions = len(conclusions)
	if len(conclusions) == 0 {
		slog.Warn("no conclusions found, stopping", "url", articleURL)
		return result, nil
	}

	for _, conclusion := range conclusions {
		for _, p := range targets {
			rec, err := s.buildRecord(ctx, article, conclusion, p, approverEmails)
			if err != nil {
				slog.Error("could not build post record", "platform", p.Name, "error", err)
				result.Failed++
				continue
			}
			if err := s.pr.Append(ctx, p, rec); err != nil {
				slog.Error("could not store post record", "platform", p.Name, "post_id", rec.PostID, "error", err)
				result.Failed++
				continue
			}
			result.Created++
		}
	}

	if len(approverEmails) > 0 {
		if err := s.nt.NotifyApprovers(ctx, article.Title, approverEmails); err != nil {
			slog.Error("approver notification failed", "error", err)
		} else {
			result.Notified = true
		}
	}

	log.Printf("Workflow for %s complete: %d records, %d failed", articleURL, result.Created, result.Failed)
	return result, nil
}

// acceptCharts keeps images classified as charts with enough confidence.
// Classification errors count as "not a chart".
func (s *ingestionService) acceptCharts(ctx context.Context, content *models.ExtractedContent) []string {
	var accepted []string
	for _, candidate := range content.ImageCandidates {
		cls, err := s.gs.ClassifyImage(ctx, candidate)
		if err != nil {
			slog.Debug("image skipped", "url", candidate, "error", err)
			continue
		}
		if !cls.IsChart || cls.Confidence < chartConfidenceThreshold {
			continue
		}

		if s.bs == nil {
			accepted = append(accepted, candidate)
			continue
		}
		public, err := s.bs.UploadImage(ctx, candidate, content.Title)
		if err != nil {
			slog.Error("chart upload failed", "url", candidate, "error", err)
			continue
		}
		accepted = append(accepted, public)
	}
	return accepted
}

func (s *ingestionService) buildRecord(ctx context.Context, article *models.Article, conclusion string, p models.PlatformConfig, approverEmails []string) (*models.PostRecord, error) {
	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("generate post id: %w", err)
	}

	rec := &models.PostRecord{
		PostID:                id,
		Platform:              p.Name,
		ArticleURL:            article.URL,
		Name:                  article.Title,
		Summary:               article.Summary,
		Conclusion:            conclusion,
		ImagePaths:            article.ImageURLs,
		RequiresHumanApproval: models.ApprovalYes,
		ApproverEmails:        approverEmails,
	}

	userPrompt := fmt.Sprintf("CONTEXTUAL SUMMARY:\n%s\n\nCONCLUSION TO FOCUS ON:\n%s", article.Summary, conclusion)
	raw, err := s.gs.Generate(ctx, p.Prompt, userPrompt)
	if err != nil {
		slog.Error("post generation failed", "platform", p.Name, "post_id", id, "error", err)
		rec.Text, rec.Hashtags = generationSentinel, errorHashtagsSentinel
	} else {
		content, _ := ParseGeneratedPost(raw)
		rec.Text, rec.Hashtags = content.Text, content.Hashtags
	}

	rec.MatchedImagePath = s.bestImage(ctx, rec.Text, article.ImageURLs)
	return rec, nil
}

// bestImage returns the highest scoring image, or "" when nothing reaches the
// match threshold.
func (s *ingestionService) bestImage(ctx context.Context, text string, images []string) string {
	best, highest := "", -1
	for _, img := range images {
		score, err := s.gs.ScoreImageMatch(ctx, text, img)
		if err != nil {
			slog.Warn("could not score image", "url", img, "error", err)
			continue
		}
		if score > highest {
			best, highest = img, score
		}
	}
	if highest < imageMatchThreshold {
		return ""
	}
	return best
}

func resolvePlatforms(catalogue []models.PlatformConfig, names []string) ([]models.PlatformConfig, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no platforms requested", ErrUnknownPlatform)
	}
	out := make([]models.PlatformConfig, 0, len(names))
	for _, name := range names {
		p, ok := findPlatform(catalogue, name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, name)
		}
		out = append(out, p)
	}
	return out, nil
}

func findPlatform(catalogue []models.PlatformConfig, name string) (models.PlatformConfig, bool) {
	for _, p := range catalogue {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, true
		}
	}
	return models.PlatformConfig{}, false
}
