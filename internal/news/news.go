package news

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MinTitleLength is the exclusive lower bound on title length, in characters.
// Shorter anchors are navigation links, not headlines.
const MinTitleLength = 10

// Category is the tag every collected item carries.
const Category = "경제"

// NewsItem is one collected or fallback article.
type NewsItem struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Content     string    `json:"content"`
	PublishedAt time.Time `json:"publishedAt"`
	Category    string    `json:"category"`
	Summary     string    `json:"summary,omitempty"`
}

// Candidate is an article reference produced by a listing page, before the
// detail page has been fetched.
type Candidate struct {
	Title  string
	URL    string
	Source string
}

// NormalizeTitle trims surrounding whitespace; dedup compares titles in this form.
func NormalizeTitle(title string) string {
	return strings.TrimSpace(title)
}

// ValidTitle reports whether a normalized title is long enough to be a headline.
func ValidTitle(title string) bool {
	return utf8.RuneCountInString(NormalizeTitle(title)) > MinTitleLength
}

// NewItem builds a NewsItem, returning false if the title is too short.
// Empty content falls back to the title.
func NewItem(c Candidate, content string, publishedAt time.Time) (NewsItem, bool) {
	title := NormalizeTitle(c.Title)
	if !ValidTitle(title) {
		return NewsItem{}, false
	}
	content = strings.TrimSpace(content)
	if content == "" {
		content = title
	}
	return NewsItem{
		Title:       title,
		URL:         c.URL,
		Source:      c.Source,
		Content:     content,
		PublishedAt: publishedAt,
		Category:    Category,
	}, true
}
