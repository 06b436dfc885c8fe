package services

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

// TagExtractor derives #tags from entity content.
type TagExtractor interface {
	// ExtractTags returns the distinct tags in order of first appearance,
	// without the leading '#'.
	ExtractTags(content string) []string

	// PlainText strips markup from content and decodes entities.
	PlainText(content string) string
}

var (
	lineBreakTags = regexp.MustCompile(`(?i)<\s*(br|/?(div|p|li|h[1-6]|tr|blockquote))\b[^>]*>`)
	markupTags    = regexp.MustCompile(`<[^>]*>`)
)

// DefaultTagExtractor recognizes '#' followed by letters, digits, '_' or '-'
// when the '#' starts a word. Tags must contain at least one letter.
type DefaultTagExtractor struct {
	maxTags int
}

// NewDefaultTagExtractor creates an extractor returning at most maxTags tags.
// A non-positive maxTags means no limit.
func NewDefaultTagExtractor(maxTags int) *DefaultTagExtractor {
	return &DefaultTagExtractor{maxTags: maxTags}
}

// PlainText turns block-level tags into line breaks, drops all other markup
// and unescapes HTML entities.
func (x *DefaultTagExtractor) PlainText(content string) string {
	text := lineBreakTags.ReplaceAllString(content, "\n")
	text = markupTags.ReplaceAllString(text, "")
	return html.UnescapeString(text)
}

// ExtractTags returns the distinct tags in content. Duplicates are matched
// case-insensitively and the first spelling wins.
func (x *DefaultTagExtractor) ExtractTags(content string) []string {
	if !strings.ContainsRune(content, '#') && !strings.Contains(content, "&#") {
		return []string{}
	}

	runes := []rune(x.PlainText(content))
	tags := []string{}
	seen := make(map[string]bool)

	for i := 0; i < len(runes); i++ {
		if runes[i] != '#' {
			continue
		}
		if i > 0 && !isTagBoundary(runes[i-1]) {
			continue
		}

		j := i + 1
		for j < len(runes) && isTagRune(runes[j]) {
			j++
		}
		body := strings.TrimRight(string(runes[i+1:j]), "-_")
		i = j - 1

		if body == "" || !containsLetter(body) {
			continue
		}
		key := strings.ToLower(body)
		if seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, body)

		if x.maxTags > 0 && len(tags) >= x.maxTags {
			break
		}
	}
	return tags
}

func isTagRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}

// isTagBoundary reports whether r may precede a tag. Word characters, '&' and
// '#' never may, and neither may '/' so URL fragments are left alone.
func isTagBoundary(r rune) bool {
	return !isTagRune(r) && r != '&' && r != '#' && r != '/'
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
