package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/maheshrc27/postpipe/internal/models"
)

// Prompts are the system prompts used for the article-level generation calls.
// Per-platform prompts live on PlatformConfig.
type Prompts struct {
	Summarize     string `yaml:"summarize"`
	IsChart       string `yaml:"is_chart"`
	ImageMatching string `yaml:"image_matching"`
}

type Catalogue struct {
	Prompts   Prompts                 `yaml:"prompts"`
	Platforms []models.PlatformConfig `yaml:"platforms"`
}

const (
	defaultSummarizePrompt = `You are an analyst. Summarize the article you are given in a few short paragraphs.
Then list its key conclusions, one per line, between [CONCLUSIONS] and [/CONCLUSIONS] markers.
Each conclusion must stand on its own without the article for context.`

	defaultIsChartPrompt = `You inspect a single image. Decide whether it is a chart, graph or data visualisation.
Answer with JSON only: {"is_chart": true|false, "confidence": <number between 0 and 1>}.`

	defaultImageMatchingPrompt = `You rate how well an image illustrates a social media post.
Answer with JSON only: {"score": <integer from 0 to 10>}. 10 means a perfect match.`

	defaultFacebookPrompt = `You write Facebook posts for a professional audience.
Write an engaging post of two or three short paragraphs about the conclusion, using the summary for context.
Return the post between [POST_TEXT] and [/POST_TEXT] and three to five hashtags between [HASHTAGS] and [/HASHTAGS].`

	defaultInstagramPrompt = `You write Instagram captions.
Write a concise, visual caption about the conclusion, using the summary for context.
Return the caption between [CAPTION] and [/CAPTION] and up to ten hashtags between [HASHTAGS] and [/HASHTAGS].`

	defaultTwitterPrompt = `You write posts for X.
Write a single post under 280 characters about the conclusion, using the summary for context. Hashtags go inside the text if any.
Return it between [TWEET] and [/TWEET].`
)

func defaultStages() map[models.Stage]string {
	return map[models.Stage]string{
		models.StageFanout:   "Step 3",
		models.StageSchedule: "Step 4",
	}
}

// DefaultCatalogue returns the built-in facebook, instagram and twitter targets.
func DefaultCatalogue() Catalogue {
	return Catalogue{
		Prompts: Prompts{
			Summarize:     defaultSummarizePrompt,
			IsChart:       defaultIsChartPrompt,
			ImageMatching: defaultImageMatchingPrompt,
		},
		Platforms: []models.PlatformConfig{
			{
				Name:              "facebook",
				StoreID:           getEnv("FACEBOOK_STORE_ID", "Facebook_Workflow"),
				Stages:            defaultStages(),
				Adapter:           models.AdapterPhotoFeed,
				TextColumn:        "Facebook_Post_Text",
				HashtagsColumn:    "Facebook_Hashtags",
				AppendArticleLink: true,
				Prompt:            defaultFacebookPrompt,
			},
			{
				Name:           "instagram",
				StoreID:        getEnv("INSTAGRAM_STORE_ID", "Instagram_Workflow"),
				Stages:         defaultStages(),
				Adapter:        models.AdapterTwoPhase,
				TextColumn:     "Instagram_Caption",
				HashtagsColumn: "Instagram_Hashtags",
				Prompt:         defaultInstagramPrompt,
			},
			{
				Name:       "twitter",
				StoreID:    getEnv("TWITTER_STORE_ID", "Google_Workflow"),
				Stages:     defaultStages(),
				Adapter:    models.AdapterShortText,
				TextColumn: "Tweet",
				Prompt:     defaultTwitterPrompt,
			},
		},
	}
}

// LoadPlatforms merges the YAML catalogue at path over the defaults. An empty
// path returns the defaults unchanged.
func LoadPlatforms(path string) (Catalogue, error) {
	catalogue := DefaultCatalogue()
	if path == "" {
		return catalogue, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Catalogue{}, fmt.Errorf("read platforms file: %w", err)
	}
	return mergeCatalogue(catalogue, data)
}

func mergeCatalogue(base Catalogue, data []byte) (Catalogue, error) {
	var file Catalogue
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Catalogue{}, fmt.Errorf("parse platforms file: %w", err)
	}

	if file.Prompts.Summarize != "" {
		base.Prompts.Summarize = file.Prompts.Summarize
	}
	if file.Prompts.IsChart != "" {
		base.Prompts.IsChart = file.Prompts.IsChart
	}
	if file.Prompts.ImageMatching != "" {
		base.Prompts.ImageMatching = file.Prompts.ImageMatching
	}

	for _, p := range file.Platforms {
		p.Name = strings.ToLower(strings.TrimSpace(p.Name))
		idx := -1
		for i := range base.Platforms {
			if base.Platforms[i].Name == p.Name {
				idx = i
				break
			}
		}
		if idx < 0 {
			if p.Stages == nil {
				p.Stages = defaultStages()
			}
			base.Platforms = append(base.Platforms, p)
			continue
		}
		base.Platforms[idx] = overlay(base.Platforms[idx], p)
	}

	for _, p := range base.Platforms {
		if err := validatePlatform(p); err != nil {
			return Catalogue{}, err
		}
	}
	return base, nil
}

func overlay(dst, src models.PlatformConfig) models.PlatformConfig {
	if src.StoreID != "" {
		dst.StoreID = src.StoreID
	}
	for stage, location := range src.Stages {
		dst.Stages[stage] = location
	}
	if src.Adapter != "" {
		dst.Adapter = src.Adapter
	}
	if src.TextColumn != "" {
		dst.TextColumn = src.TextColumn
	}
	if src.HashtagsColumn != "" {
		dst.HashtagsColumn = src.HashtagsColumn
	}
	if src.AppendArticleLink {
		dst.AppendArticleLink = true
	}
	if src.Prompt != "" {
		dst.Prompt = src.Prompt
	}
	return dst
}

func validatePlatform(p models.PlatformConfig) error {
	if p.Name == "" {
		return fmt.Errorf("platform without a name")
	}
	switch p.Adapter {
	case models.AdapterPhotoFeed, models.AdapterTwoPhase, models.AdapterShortText:
	default:
		return fmt.Errorf("platform %s: unknown adapter %q", p.Name, p.Adapter)
	}
	if p.TextColumn == "" {
		return fmt.Errorf("platform %s: text_column is required", p.Name)
	}
	if p.Location(models.StageFanout) == "" || p.Location(models.StageSchedule) == "" {
		return fmt.Errorf("platform %s: fanout and schedule stages are required", p.Name)
	}
	return nil
}
