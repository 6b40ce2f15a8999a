// Package summarize annotates ranked news with per-item summaries and builds
// the daily digest.
package summarize

import (
	"context"

	"github.com/deusflow/econbrief/internal/news"
)

// Summarizer produces per-item summaries and the daily digest. Neither
// method fails; problems surface as placeholder text.
type Summarizer interface {
	Item(ctx context.Context, item news.NewsItem) string
	Digest(ctx context.Context, items []news.NewsItem) string
	Name() string
}

// Apply fills Summary on every item in place and returns the digest. Items
// are summarized in order; a context cancellation stops early and leaves the
// remaining items unsummarized.
func Apply(ctx context.Context, s Summarizer, items []news.NewsItem) string {
	for i := range items {
		if ctx.Err() != nil {
			break
		}
		items[i].Summary = s.Item(ctx, items[i])
	}
	return s.Digest(ctx, items)
}
