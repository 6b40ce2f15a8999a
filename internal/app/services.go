package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deusflow/econbrief/internal/cache"
	"github.com/deusflow/econbrief/internal/config"
	"github.com/deusflow/econbrief/internal/knowledge"
	"github.com/deusflow/econbrief/internal/llm"
	"github.com/deusflow/econbrief/internal/logger"
	"github.com/deusflow/econbrief/internal/metrics"
	"github.com/deusflow/econbrief/internal/news"
	"github.com/deusflow/econbrief/internal/ratelimit"
	"github.com/deusflow/econbrief/internal/retry"
	"github.com/deusflow/econbrief/internal/scraper"
	"github.com/deusflow/econbrief/internal/sources"
	"github.com/deusflow/econbrief/internal/storage"
	"github.com/deusflow/econbrief/internal/summarize"
	"github.com/deusflow/econbrief/internal/telegram"
	"github.com/deusflow/econbrief/internal/timeparse"
)

// Services holds every long-lived component built from one Config.
type Services struct {
	Config    *config.Config
	Store     storage.Store
	Pipeline  *Pipeline
	Knowledge *knowledge.Base
	Answerer  *knowledge.Answerer
	// Tips is nil when no model credential is configured.
	Tips    *TipsJob
	Budget  *ratelimit.Budget
	Metrics *metrics.Metrics

	generator llm.Generator
	summaries *cache.Cache[string]
}

// Build constructs the services. It fails before any network work when the
// configuration is unusable.
func Build(ctx context.Context, cfg *config.Config) (*Services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := news.ParseFallbackMode(cfg.FallbackMode)
	if err != nil {
		return nil, err
	}
	srcs, err := sources.LoadSources(cfg.SourcesConfigPath)
	if err != nil {
		return nil, err
	}
	base, err := knowledge.Default()
	if err != nil {
		return nil, err
	}

	s := &Services{
		Config:    cfg,
		Knowledge: base,
		Budget:    ratelimit.NewBudget(cfg.MaxModelRequests),
		Metrics:   metrics.Global,
	}

	if cfg.APIKey() != "" {
		s.generator, err = llm.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	s.Store, err = storage.Open(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.StorageBackend, err)
	}

	normalizer := timeparse.New(timeparse.LoadLocation(cfg.Timezone))
	fetcher := scraper.NewFetcher(scraper.ClientConfig{
		Timeout:            cfg.RequestTimeout,
		UserAgent:          cfg.UserAgent,
		AcceptLanguage:     cfg.AcceptLanguage,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		PolitenessDelay:    cfg.PolitenessDelay,
		Retry: retry.RetryConfig{
			MaxAttempts: cfg.RetryAttempts,
			Delay:       cfg.RetryDelay,
			Backoff:     true,
			Jitter:      0.2,
		},
	})
	collector := sources.NewCollector(fetcher, scraper.NewDetailFetcher(fetcher, normalizer), srcs)

	var summarizer summarize.Summarizer = summarize.NewLocal()
	if cfg.ModelEnabled() {
		s.summaries = cache.New[string]()
		summarizer = summarize.NewModel(s.generator, summarize.ModelOptions{
			Pacing:   modelPacing(cfg),
			Budget:   s.Budget,
			Cache:    s.summaries,
			CacheTTL: cfg.SummaryCacheTTL,
		})
	}

	var publisher Publisher
	if cfg.TelegramEnabled() {
		publisher = telegram.New(cfg.TelegramToken, cfg.TelegramChatID)
	}

	s.Pipeline = NewPipeline(collector, summarizer, s.Store, PipelineOptions{
		Limit:     cfg.MaxNewsLimit,
		Fallback:  mode,
		Publisher: publisher,
		Metrics:   s.Metrics,
		Now:       normalizer.Now,
	})

	if s.generator != nil {
		s.Answerer = knowledge.NewAnswerer(base, s.generator)
		s.Tips = NewTipsJob(knowledge.NewTipsGenerator(s.generator, modelPacing(cfg)), s.Store)
	} else {
		s.Answerer = knowledge.NewAnswerer(base, nil)
	}

	logger.Info("services ready",
		"sources", len(srcs),
		"summarizer", summarizer.Name(),
		"storage", s.Store.Name(),
		"telegram", publisher != nil)
	return s, nil
}

// modelPacing is the minimum spacing between model calls. Anything below one
// second is raised to it.
func modelPacing(cfg *config.Config) time.Duration {
	return max(cfg.ModelPacing, time.Second)
}

// ModelAvailable reports whether a model collaborator is configured.
func (s *Services) ModelAvailable() bool { return s.generator != nil }

// Close releases the store, the summary cache and the model client.
func (s *Services) Close() error {
	var errs []error
	if s.summaries != nil {
		s.summaries.Close()
	}
	if s.Store != nil {
		errs = append(errs, s.Store.Close())
	}
	if s.generator != nil {
		errs = append(errs, llm.Close(s.generator))
	}
	if s.Budget != nil {
		s.Budget.LogStats()
	}
	return errors.Join(errs...)
}
