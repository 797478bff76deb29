package models

// Article is the ingested source: immutable once the extraction step returns.
type Article struct {
	URL       string   `json:"article_url"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	ImageURLs []string `json:"image_urls"`
}

// ExtractedContent is what a content extractor returns for a URL.
type ExtractedContent struct {
	Title           string
	Text            string
	ImageCandidates []string
}

type ImageClassification struct {
	IsChart    bool    `json:"is_chart"`
	Confidence float64 `json:"confidence"`
}

// GeneratedContent is the parsed platform text for one conclusion.
type GeneratedContent struct {
	Text     string
	Hashtags string
}
