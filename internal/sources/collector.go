package sources

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/deusflow/econbrief/internal/logger"
	"github.com/deusflow/econbrief/internal/news"
	"github.com/deusflow/econbrief/internal/scraper"
)

// Report describes what one source produced during a run.
type Report struct {
	Source     string
	Listings   int
	Candidates int
	Items      int
	// Failures counts listing and article fetches that were skipped.
	Failures int
}

// Options tune a single collection run.
type Options struct {
	// ArchiveDate adds dated listings for archive-capable sources.
	ArchiveDate time.Time
}

// Collector runs every source in priority order, one request at a time.
type Collector struct {
	fetcher *scraper.Fetcher
	detail  *scraper.DetailFetcher
	sources []Source
	log     *slog.Logger
}

func NewCollector(f *scraper.Fetcher, d *scraper.DetailFetcher, srcs []Source) *Collector {
	return &Collector{
		fetcher: f,
		detail:  d,
		sources: srcs,
		log:     logger.With("component", "collector"),
	}
}

// WithLogger sets the logger used for per-source warnings.
func (c *Collector) WithLogger(l *slog.Logger) *Collector {
	c.log = l
	return c
}

// Sources returns the strategy table in priority order.
func (c *Collector) Sources() []Source { return c.sources }

// Collect returns the concatenation of every source's items in source order.
// A failing source or article is logged and skipped.
func (c *Collector) Collect(ctx context.Context, opts Options) ([]news.NewsItem, []Report) {
	var (
		all     []news.NewsItem
		reports []Report
	)
	for _, src := range c.sources {
		if ctx.Err() != nil {
			c.log.Warn("collection cancelled", "error", ctx.Err())
			break
		}
		items, rep := c.CollectSource(ctx, src, opts)
		all = append(all, items...)
		reports = append(reports, rep)
		c.log.Info("source collected",
			"source", src.ID,
			"candidates", rep.Candidates,
			"items", rep.Items,
			"failures", rep.Failures)
	}
	return all, reports
}

// CollectSource runs the listing and detail stages for one source.
func (c *Collector) CollectSource(ctx context.Context, src Source, opts Options) ([]news.NewsItem, Report) {
	rep := Report{Source: src.ID}
	candidates := c.candidates(ctx, src, opts, &rep)
	if src.MaxItems > 0 && len(candidates) > src.MaxItems {
		candidates = candidates[:src.MaxItems]
	}
	rep.Candidates = len(candidates)

	rules := src.Rules()
	var items []news.NewsItem
	for _, cand := range candidates {
		if ctx.Err() != nil {
			break
		}
		item, err := c.detail.Fetch(ctx, cand, rules)
		if err != nil {
			rep.Failures++
			c.log.Warn("skipping article", "source", src.ID, "url", cand.URL, "error", err)
			continue
		}
		items = append(items, *item)
	}
	rep.Items = len(items)
	return items, rep
}

// candidates tries the feed first and falls back to the HTML listings.
func (c *Collector) candidates(ctx context.Context, src Source, opts Options, rep *Report) []news.Candidate {
	if src.Feed != "" {
		body, err := c.fetcher.Get(ctx, src.Feed)
		if err == nil {
			var cands []news.Candidate
			cands, err = FeedCandidates(body, src)
			if err == nil && len(cands) > 0 {
				rep.Listings++
				return cands
			}
		}
		c.log.Debug("feed unusable, using listings", "source", src.ID, "feed", src.Feed, "error", err)
	}

	seen := make(map[string]struct{})
	var out []news.Candidate
	for _, listing := range src.ListingURLs(opts.ArchiveDate) {
		if ctx.Err() != nil {
			break
		}
		doc, err := c.fetcher.Document(ctx, listing)
		if err != nil {
			rep.Failures++
			c.log.Warn("listing failed", "source", src.ID, "url", listing, "error", err)
			continue
		}
		base, err := url.Parse(listing)
		if err != nil {
			continue
		}
		rep.Listings++
		out = appendCandidates(out, seen, doc, base, src)
	}
	return out
}
