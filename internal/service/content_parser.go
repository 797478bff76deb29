package service

import (
	"regexp"
	"strings"

	"github.com/maheshrc27/postpipe/internal/models"
)

const (
	unparsedTextSentinel  = "Error: Could not parse post text."
	generationSentinel    = "Error: AI generation failed."
	errorHashtagsSentinel = "#error"
)

var (
	postTextSection    = regexp.MustCompile(`(?is)\[(?:POST_TEXT|CAPTION|TWEET)\](.*?)\[/(?:POST_TEXT|CAPTION|TWEET)\]`)
	hashtagsSection    = regexp.MustCompile(`(?is)\[HASHTAGS\](.*?)\[/HASHTAGS\]`)
	conclusionsSection = regexp.MustCompile(`(?is)\[CONCLUSIONS\](.*?)\[/CONCLUSIONS\]`)
	listMarker         = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
)

// ParseGeneratedPost pulls the delimited sections out of a model reply.
// Missing sections are replaced by sentinels and ok is false.
func ParseGeneratedPost(raw string) (models.GeneratedContent, bool) {
	content := models.GeneratedContent{Text: unparsedTextSentinel, Hashtags: errorHashtagsSentinel}
	ok := true

	if m := postTextSection.FindStringSubmatch(raw); m != nil {
		content.Text = strings.TrimSpace(m[1])
	} else {
		ok = false
	}
	if m := hashtagsSection.FindStringSubmatch(raw); m != nil {
		content.Hashtags = strings.TrimSpace(m[1])
	} else {
		ok = false
	}
	return content, ok
}

// ExtractConclusions reads the [CONCLUSIONS] block of a summary. Without a
// block, bulleted or numbered lines are taken instead.
func ExtractConclusions(summary string) []string {
	if m := conclusionsSection.FindStringSubmatch(summary); m != nil {
		var out []string
		for _, line := range strings.Split(m[1], "\n") {
			if line = strings.TrimSpace(listMarker.ReplaceAllString(line, "")); line != "" {
				out = append(out, line)
			}
		}
		return out
	}

	var out []string
	for _, line := range strings.Split(summary, "\n") {
		if !listMarker.MatchString(line) {
			continue
		}
		if line = strings.TrimSpace(listMarker.ReplaceAllString(line, "")); line != "" {
			out = append(out, line)
		}
	}
	return out
}
