package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/maheshrc27/postpipe/configs"
	"github.com/maheshrc27/postpipe/internal/models"
	"github.com/maheshrc27/postpipe/internal/repository"
)

const testSummary = `The article covers rate cuts.
[CONCLUSIONS]
1. Inflation is cooling.
2. Housing demand will recover.
[/CONCLUSIONS]`

func testPrompts() cfg.Prompts {
	return cfg.Prompts{Summarize: testSummarizePrompt, IsChart: "is chart", ImageMatching: "match"}
}

func newTestIngestion(ex ContentExtractor, gs GenerationService, bs BlobStorage, o *repository.MemoryOpener, nt Notifier) IngestionService {
	return NewIngestionService(ex, gs, bs, repository.NewPostRepository(o), nt, testPlatforms(), testPrompts())
}

func article() *fakeExtractor {
	return &fakeExtractor{content: &models.ExtractedContent{
		Title:           "Rates and Markets",
		Text:            "long article body",
		ImageCandidates: []string{"https://news.example.com/chart.png", "https://news.example.com/photo.jpg"},
	}}
}

func generator() *fakeGenerator {
	return &fakeGenerator{
		replies: map[string]string{
			testSummarizePrompt: testSummary,
			testFacebookPrompt:  "[POST_TEXT]Facebook body[/POST_TEXT]\n[HASHTAGS]#rates #fb[/HASHTAGS]",
			testTwitterPrompt:   "[TWEET]Short take[/TWEET][HASHTAGS]#rates[/HASHTAGS]",
			testInstagramPrompt: "no sections at all",
		},
		classify: map[string]*models.ImageClassification{
			"https://news.example.com/chart.png": {IsChart: true, Confidence: 0.9},
			"https://news.example.com/photo.jpg": {IsChart: false, Confidence: 0.99},
		},
		scores: map[string]int{
			"https://cdn.example.com/Rates and Markets.png": 8,
		},
	}
}

func fanoutRecords(t *testing.T, o *repository.MemoryOpener, p models.PlatformConfig) []*models.PostRecord {
	t.Helper()
	recs, _, err := repository.NewPostRepository(o).ListRecords(context.Background(), p)
	require.NoError(t, err)
	return recs
}

func TestStartWorkflowFansOut(t *testing.T) {
	o := repository.NewMemoryOpener()
	gs := generator()
	blob := &fakeBlob{}
	nt := &fakeNotifier{}
	svc := newTestIngestion(article(), gs, blob, o, nt)

	res, err := svc.StartWorkflow(context.Background(), "https://news.example.com/a", []string{"facebook", "Twitter"}, []string{"ed@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Conclusions)
	assert.Equal(t, 4, res.Created)
	assert.Zero(t, res.Failed)
	assert.True(t, res.Notified)

	assert.Equal(t, []string{"https://news.example.com/chart.png"}, blob.uploaded)
	assert.Equal(t, 1, nt.calls)
	assert.Equal(t, "Rates and Markets", nt.title)

	platforms := testPlatforms()
	fb := fanoutRecords(t, o, platforms[0])
	tw := fanoutRecords(t, o, platforms[2])
	require.Len(t, fb, 2)
	require.Len(t, tw, 2)
	assert.Empty(t, fanoutRecords(t, o, platforms[1]))

	ids := map[string]bool{}
	for _, rec := range append(fb, tw...) {
		assert.NotEmpty(t, rec.PostID)
		assert.False(t, ids[rec.PostID], "duplicate post id %s", rec.PostID)
		ids[rec.PostID] = true

		assert.Equal(t, "https://news.example.com/a", rec.ArticleURL)
		assert.Equal(t, "Rates and Markets", rec.Name)
		assert.Equal(t, "yes", rec.RequiresHumanApproval)
		assert.Empty(t, rec.ApprovedByHuman)
		assert.Equal(t, []string{"ed@example.com"}, rec.ApproverEmails)
		assert.Equal(t, []string{"https://cdn.example.com/Rates and Markets.png"}, rec.ImagePaths)
		assert.Equal(t, "https://cdn.example.com/Rates and Markets.png", rec.MatchedImagePath)
	}

	assert.Equal(t, "Inflation is cooling.", fb[0].Conclusion)
	assert.Equal(t, "Housing demand will recover.", fb[1].Conclusion)
	assert.Equal(t, "Facebook body", fb[0].Text)
	assert.Equal(t, "#rates #fb", fb[0].Hashtags)
	assert.Equal(t, "Short take", tw[0].Text)
}

func TestStartWorkflowSentinels(t *testing.T) {
	o := repository.NewMemoryOpener()
	gs := generator()
	gs.failFor = map[string]bool{testFacebookPrompt: true}
	svc := newTestIngestion(article(), gs, nil, o, &fakeNotifier{})

	res, err := svc.StartWorkflow(context.Background(), "https://news.example.com/a", []string{"facebook", "instagram"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Created)
	assert.False(t, res.Notified)

	platforms := testPlatforms()
	fb := fanoutRecords(t, o, platforms[0])
	require.Len(t, fb, 2)
	assert.Equal(t, "Error: AI generation failed.", fb[0].Text)
	assert.Equal(t, "#error", fb[0].Hashtags)

	ig := fanoutRecords(t, o, platforms[1])
	require.Len(t, ig, 2)
	assert.Equal(t, "Error: Could not parse post text.", ig[0].Text)
	assert.Equal(t, "#error", ig[0].Hashtags)
	// without blob storage the accepted chart keeps its source URL
	assert.Equal(t, []string{"https://news.example.com/chart.png"}, ig[0].ImagePaths)
}

func TestStartWorkflowChartThreshold(t *testing.T) {
	o := repository.NewMemoryOpener()
	gs := generator()
	gs.classify["https://news.example.com/chart.png"] = &models.ImageClassification{IsChart: true, Confidence: 0.69}
	blob := &fakeBlob{}
	svc := newTestIngestion(article(), gs, blob, o, &fakeNotifier{})

	_, err := svc.StartWorkflow(context.Background(), "https://news.example.com/a", []string{"twitter"}, nil)
	require.NoError(t, err)
	assert.Empty(t, blob.uploaded)

	tw := fanoutRecords(t, o, testPlatforms()[2])
	require.Len(t, tw, 2)
	assert.Empty(t, tw[0].ImagePaths)
	assert.Empty(t, tw[0].MatchedImagePath)
}

func TestStartWorkflowImageMatchThreshold(t *testing.T) {
	o := repository.NewMemoryOpener()
	gs := generator()
	gs.scores["https://cdn.example.com/Rates and Markets.png"] = 4
	svc := newTestIngestion(article(), gs, &fakeBlob{}, o, &fakeNotifier{})

	_, err := svc.StartWorkflow(context.Background(), "https://news.example.com/a", []string{"twitter"}, nil)
	require.NoError(t, err)

	tw := fanoutRecords(t, o, testPlatforms()[2])
	require.Len(t, tw, 2)
	assert.Equal(t, []string{"https://cdn.example.com/Rates and Markets.png"}, tw[0].ImagePaths)
	assert.Empty(t, tw[0].MatchedImagePath)
}

func TestStartWorkflowExtractionFailure(t *testing.T) {
	o := repository.NewMemoryOpener()
	nt := &fakeNotifier{}
	svc := newTestIngestion(&fakeExtractor{err: ErrExtraction}, generator(), nil, o, nt)

	_, err := svc.StartWorkflow(context.Background(), "https://news.example.com/a", []string{"facebook"}, []string{"ed@example.com"})
	assert.ErrorIs(t, err, ErrExtraction)
	assert.Zero(t, nt.calls)
	assert.Empty(t, o.Grid("fb-book", "Step 3"))
}

func TestStartWorkflowSummaryFailure(t *testing.T) {
	gs := generator()
	gs.failFor = map[string]bool{testSummarizePrompt: true}
	svc := newTestIngestion(article(), gs, nil, repository.NewMemoryOpener(), &fakeNotifier{})

	_, err := svc.StartWorkflow(context.Background(), "https://news.example.com/a", []string{"facebook"}, nil)
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestStartWorkflowNoConclusions(t *testing.T) {
	o := repository.NewMemoryOpener()
	gs := generator()
	gs.replies[testSummarizePrompt] = "A summary with nothing to conclude."
	nt := &fakeNotifier{}
	svc := newTestIngestion(article(), gs, nil, o, nt)

	res, err := svc.StartWorkflow(context.Background(), "https://news.example.com/a", []string{"facebook"}, []string{"ed@example.com"})
	require.NoError(t, err)
	assert.Zero(t, res.Conclusions)
	assert.Zero(t, res.Created)
	assert.Zero(t, nt.calls)
	assert.Empty(t, o.Grid("fb-book", "Step 3"))
}

func TestStartWorkflowUnknownPlatform(t *testing.T) {
	ex := article()
	svc := newTestIngestion(ex, generator(), nil, repository.NewMemoryOpener(), &fakeNotifier{})

	_, err := svc.StartWorkflow(context.Background(), "https://news.example.com/a", []string{"facebook", "myspace"}, nil)
	assert.ErrorIs(t, err, ErrUnknownPlatform)

	_, err = svc.StartWorkflow(context.Background(), "https://news.example.com/a", nil, nil)
	assert.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestNewPostIDIsAlphanumeric(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id, err := newPostID()
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^[0-9A-Za-z]{21}$`), id)
		seen[id] = true
	}
	assert.Len(t, seen, 200)
}
