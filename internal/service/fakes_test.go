package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/postpipe/internal/models"
)

const (
	testFacebookPrompt  = "facebook prompt"
	testInstagramPrompt = "instagram prompt"
	testTwitterPrompt   = "twitter prompt"
	testSummarizePrompt = "summarize prompt"
)

func testStages() map[models.Stage]string {
	return map[models.Stage]string{models.StageFanout: "Step 3", models.StageSchedule: "Step 4"}
}

func testPlatforms() []models.PlatformConfig {
	return []models.PlatformConfig{
		{
			Name: "facebook", StoreID: "fb-book", Stages: testStages(), Adapter: models.AdapterPhotoFeed,
			TextColumn: "Facebook_Post_Text", HashtagsColumn: "Facebook_Hashtags", AppendArticleLink: true,
			Prompt: testFacebookPrompt,
		},
		{
			Name: "instagram", StoreID: "ig-book", Stages: testStages(), Adapter: models.AdapterTwoPhase,
			TextColumn: "Instagram_Caption", HashtagsColumn: "Instagram_Hashtags",
			Prompt: testInstagramPrompt,
		},
		{
			Name: "twitter", StoreID: "tw-book", Stages: testStages(), Adapter: models.AdapterShortText,
			TextColumn: "Tweet",
			Prompt:     testTwitterPrompt,
		},
	}
}

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func berlinWindow(t *testing.T) models.Window {
	return models.Window{Location: berlin(t), Start: 9 * time.Hour, End: 21 * time.Hour, Interval: 4 * time.Hour}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type fakeDispatcher struct {
	mu     sync.Mutex
	calls  []string
	ok     bool
	result string
}

func (f *fakeDispatcher) Publish(ctx context.Context, platform string, rec *models.PostRecord) (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, platform+"/"+rec.PostID)
	return f.ok, f.result
}

type fakeExtractor struct {
	content *models.ExtractedContent
	err     error
}

func (f *fakeExtractor) Fetch(ctx context.Context, articleURL string) (*models.ExtractedContent, error) {
	return f.content, f.err
}

type fakeGenerator struct {
	replies  map[string]string
	failFor  map[string]bool
	classify map[string]*models.ImageClassification
	scores   map[string]int
	prompts  []string
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt, userContent string) (string, error) {
	f.prompts = append(f.prompts, systemPrompt)
	if f.failFor[systemPrompt] {
		return "", ErrGeneration
	}
	return f.replies[systemPrompt], nil
}

func (f *fakeGenerator) ClassifyImage(ctx context.Context, imageURL string) (*models.ImageClassification, error) {
	cls, ok := f.classify[imageURL]
	if !ok {
		return nil, ErrClassification
	}
	return cls, nil
}

func (f *fakeGenerator) ScoreImageMatch(ctx context.Context, postText, imageURL string) (int, error) {
	score, ok := f.scores[imageURL]
	if !ok {
		return 0, errors.New("no score")
	}
	return score, nil
}

type fakeBlob struct {
	uploaded []string
}

func (f *fakeBlob) UploadImage(ctx context.Context, sourceURL, articleName string) (string, error) {
	f.uploaded = append(f.uploaded, sourceURL)
	return "https://cdn.example.com/" + articleName + ".png", nil
}

type fakeNotifier struct {
	calls  int
	title  string
	emails []string
}

func (f *fakeNotifier) NotifyApprovers(ctx context.Context, title string, emails []string) error {
	f.calls++
	f.title, f.emails = title, emails
	return nil
}
