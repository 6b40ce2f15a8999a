package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/deusflow/econbrief/internal/news"
	"github.com/deusflow/econbrief/internal/timeparse"
)

// ErrInvalidTitle is returned for candidates whose title is too short to be
// a headline.
var ErrInvalidTitle = errors.New("title too short")

// DetailRules tells the Detail Fetcher where a source keeps its article body
// and timestamp.
type DetailRules struct {
	ContentSelectors []string
	TimeSelectors    []string
	// ContentCap is the maximum body length in characters. 0 means no cap.
	ContentCap int
}

// Detail is what an article page yields before it becomes a NewsItem.
type Detail struct {
	Content  string
	TimeText string
}

// ExtractDetail applies rules to a parsed article page. Missing elements are
// not an error; the fields are left empty.
func ExtractDetail(doc Finder, rules DetailRules) Detail {
	var d Detail
	if content, ok := FirstMatch(doc, rules.ContentSelectors); ok {
		d.Content = truncateRunes(content, rules.ContentCap)
	}
	if ts, ok := FirstTimeMatch(doc, rules.TimeSelectors); ok {
		d.TimeText = ts
	}
	return d
}

// DetailFetcher turns candidates into NewsItems by fetching their article
// pages.
type DetailFetcher struct {
	fetcher    *Fetcher
	normalizer *timeparse.Normalizer
}

func NewDetailFetcher(f *Fetcher, n *timeparse.Normalizer) *DetailFetcher {
	if n == nil {
		n = timeparse.New(nil)
	}
	return &DetailFetcher{fetcher: f, normalizer: n}
}

// Fetch retrieves c.URL and builds a NewsItem from it. Network failures and
// non-2xx responses are returned so the caller can skip the candidate.
// Content falls back to the title and publishedAt to the fetch time.
func (d *DetailFetcher) Fetch(ctx context.Context, c news.Candidate, rules DetailRules) (*news.NewsItem, error) {
	if !news.ValidTitle(c.Title) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTitle, c.Title)
	}

	doc, err := d.fetcher.Document(ctx, c.URL)
	if err != nil {
		return nil, fmt.Errorf("error fetching article %s: %w", c.URL, err)
	}

	detail := ExtractDetail(doc, rules)
	item, ok := news.NewItem(c, detail.Content, d.normalizer.Normalize(detail.TimeText))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTitle, c.Title)
	}
	return &item, nil
}
