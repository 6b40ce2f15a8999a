// Package app wires collection, summarization and persistence into runs.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/deusflow/econbrief/internal/logger"
	"github.com/deusflow/econbrief/internal/metrics"
	"github.com/deusflow/econbrief/internal/news"
	"github.com/deusflow/econbrief/internal/sources"
	"github.com/deusflow/econbrief/internal/storage"
	"github.com/deusflow/econbrief/internal/summarize"
	"github.com/deusflow/econbrief/internal/telegram"
)

// NewsKey is the storage key of the news aggregate.
const NewsKey = "news-aggregate"

// digestTitles is how many titles follow the digest in a published message.
const digestTitles = 5

// ErrRunInProgress is returned when a run is triggered while one is active.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// Collector gathers raw items from every source in priority order.
type Collector interface {
	Collect(ctx context.Context, opts sources.Options) ([]news.NewsItem, []sources.Report)
}

// Publisher delivers the rendered digest somewhere outside the store.
type Publisher interface {
	SendMessage(ctx context.Context, text string) error
}

// PipelineOptions are the optional knobs of a Pipeline.
type PipelineOptions struct {
	Limit     int
	Fallback  news.FallbackMode
	Publisher Publisher
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

// Pipeline runs collect, dedup, rank, summarize and persist. Runs are
// serialized; a second trigger while one is active is rejected.
type Pipeline struct {
	collector  Collector
	summarizer summarize.Summarizer
	store      storage.Store
	opts       PipelineOptions
	running    atomic.Bool
}

func NewPipeline(c Collector, s summarize.Summarizer, store storage.Store, opts PipelineOptions) *Pipeline {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Fallback == "" {
		opts.Fallback = news.FallbackExtended
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Global
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{collector: c, summarizer: s, store: store, opts: opts}
}

// Running reports whether a run is active.
func (p *Pipeline) Running() bool { return p.running.Load() }

// Run executes one full pipeline pass and replaces the persisted aggregate.
// An empty collection is not an error: the fallback set is persisted and the
// result is marked Fallback.
func (p *Pipeline) Run(ctx context.Context, opts sources.Options) (*news.AggregateResult, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer p.running.Store(false)

	log := logger.With("run_id", uuid.NewString())
	start := time.Now()
	log.Info("pipeline run started", "summarizer", p.summarizer.Name())

	items, reports := p.collector.Collect(ctx, opts)
	for _, rep := range reports {
		p.opts.Metrics.RecordSource(rep.Source, rep.Items, rep.Failures)
	}

	unique, dropped := news.Deduplicate(items)
	p.opts.Metrics.AddDuplicatesFiltered(dropped)
	ranked := news.Rank(unique, p.opts.Limit)
	log.Info("collection finished", "collected", len(items), "duplicates", dropped, "selected", len(ranked))

	fallback := false
	if len(ranked) == 0 {
		log.Warn("no news collected, using fallback set", "mode", p.opts.Fallback)
		ranked = news.Fallback(p.opts.Fallback, p.opts.Now())
		fallback = true
	}

	summary := summarize.Apply(ctx, p.summarizer, ranked)
	agg := news.NewAggregate(ranked, summary, p.opts.Now(), fallback)

	if err := p.persist(ctx, agg); err != nil {
		p.opts.Metrics.SetError(err.Error())
		log.Error("pipeline run failed", "error", err)
		return nil, err
	}

	elapsed := time.Since(start)
	p.opts.Metrics.RecordProcessingTime(elapsed)
	p.opts.Metrics.SetLastRun(agg.LastUpdated, agg.Count, fallback)
	log.Info("pipeline run finished", "count", agg.Count, "fallback", fallback, "duration", elapsed)

	p.publish(ctx, log, agg)
	return agg, nil
}

func (p *Pipeline) persist(ctx context.Context, agg *news.AggregateResult) error {
	data, err := agg.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode aggregate: %w", err)
	}
	if err := p.store.Put(ctx, NewsKey, data); err != nil {
		return fmt.Errorf("failed to persist aggregate: %w", err)
	}
	return nil
}

// publish sends the digest when a publisher is configured. Failure is only
// logged; the aggregate is already persisted.
func (p *Pipeline) publish(ctx context.Context, log *slog.Logger, agg *news.AggregateResult) {
	if p.opts.Publisher == nil {
		return
	}
	if err := p.opts.Publisher.SendMessage(ctx, telegram.FormatDigest(agg, digestTitles)); err != nil {
		log.Warn("digest publishing failed", "error", err)
		return
	}
	p.opts.Metrics.IncrementDigestsPublished()
}

// LoadAggregate reads the last persisted aggregate.
func LoadAggregate(ctx context.Context, store storage.Store) (*news.AggregateResult, error) {
	data, err := store.Get(ctx, NewsKey)
	if err != nil {
		return nil, err
	}
	var agg news.AggregateResult
	if err := json.Unmarshal(data, &agg); err != nil {
		return nil, fmt.Errorf("failed to decode aggregate: %w", err)
	}
	return &agg, nil
}
