package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGeneratedPost(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		text     string
		hashtags string
		ok       bool
	}{
		{
			name:     "post text",
			raw:      "intro\n[POST_TEXT]\n Markets rallied. \n[/POST_TEXT]\n[HASHTAGS]#markets[/HASHTAGS]",
			text:     "Markets rallied.",
			hashtags: "#markets",
			ok:       true,
		},
		{
			name:     "caption lower case",
			raw:      "[caption]Look at this chart[/caption][hashtags]#chart #data[/hashtags]",
			text:     "Look at this chart",
			hashtags: "#chart #data",
			ok:       true,
		},
		{
			name:     "multi line tweet",
			raw:      "[TWEET]line one\nline two[/TWEET][HASHTAGS][/HASHTAGS]",
			text:     "line one\nline two",
			hashtags: "",
			ok:       true,
		},
		{
			name:     "missing hashtags",
			raw:      "[POST_TEXT]body[/POST_TEXT]",
			text:     "body",
			hashtags: "#error",
		},
		{
			name:     "missing everything",
			raw:      "I cannot help with that.",
			text:     "Error: Could not parse post text.",
			hashtags: "#error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseGeneratedPost(tt.raw)
			assert.Equal(t, tt.text, got.Text)
			assert.Equal(t, tt.hashtags, got.Hashtags)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestExtractConclusions(t *testing.T) {
	assert.Equal(t, []string{"First point.", "Second point."},
		ExtractConclusions("Summary.\n[CONCLUSIONS]\n- First point.\n\n* Second point.\n[/CONCLUSIONS]\nTrailing."))

	assert.Equal(t, []string{"Rates fall", "Stocks rise"},
		ExtractConclusions("Overview paragraph.\n1) Rates fall\n2. Stocks rise\nnot a bullet"))

	assert.Empty(t, ExtractConclusions("plain prose with no list"))
	assert.Empty(t, ExtractConclusions("[CONCLUSIONS]\n\n[/CONCLUSIONS]"))
}
