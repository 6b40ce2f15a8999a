package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/deusflow/econbrief/internal/cache"
	"github.com/deusflow/econbrief/internal/llm"
	"github.com/deusflow/econbrief/internal/logger"
	"github.com/deusflow/econbrief/internal/news"
	"github.com/deusflow/econbrief/internal/ratelimit"
)

const (
	itemSystemPrompt   = "당신은 경제 뉴스 전문 요약가입니다. 핵심 내용을 간결하고 명확하게 요약해주세요."
	digestSystemPrompt = "당신은 경제 전문가입니다. 오늘의 경제 이슈를 5문장으로 간결하고 명확하게 요약해주세요."

	itemPromptTemplate = "다음 경제 뉴스를 3-4문장으로 요약해주세요. 핵심 내용과 시사점을 포함하여 작성해주세요.\n\n제목: %s\n\n내용: %s\n\n요약:"

	digestPromptTemplate = "다음은 오늘의 주요 경제 뉴스 제목들입니다. 이를 바탕으로 오늘의 경제 이슈를 5문장으로 요약해주세요.\n" +
		"각 문장은 핵심 이슈를 다루며, 전체적인 경제 동향을 파악할 수 있도록 작성해주세요.\n\n" +
		"뉴스 제목들:\n%s\n\n오늘의 경제 이슈 요약:"

	// DigestUnavailable replaces the digest when the model call fails.
	DigestUnavailable = "오늘의 경제 이슈 요약을 생성할 수 없습니다. 잠시 후 다시 시도해주세요."

	itemMaxTokens   = 300
	digestMaxTokens = 400
	temperature     = 0.3
	digestTitles    = 10
)

// NoContentSummary is used for items without body text.
func NoContentSummary(title string) string {
	return fmt.Sprintf("제목: %s\n\n상세 내용을 불러올 수 없습니다.", title)
}

// FailedSummary replaces a per-item summary when the model call fails.
func FailedSummary(title string) string {
	return fmt.Sprintf("제목: %s\n\n요약 생성 중 오류가 발생했습니다.", title)
}

// ModelOptions tune the model-backed summarizer.
type ModelOptions struct {
	// Pacing is the minimum gap between model calls. 0 disables pacing.
	Pacing   time.Duration
	Budget   *ratelimit.Budget
	Cache    *cache.Cache[string]
	CacheTTL time.Duration
}

// Model delegates summarization to a text-generation collaborator. A failed
// call yields placeholder text and never stops the batch.
type Model struct {
	gen      llm.Generator
	pacer    *rate.Limiter
	budget   *ratelimit.Budget
	cache    *cache.Cache[string]
	cacheTTL time.Duration
	log      *slog.Logger
}

func NewModel(gen llm.Generator, opts ModelOptions) *Model {
	m := &Model{
		gen:      gen,
		budget:   opts.Budget,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		log:      logger.With("component", "summarizer", "provider", gen.Name()),
	}
	if opts.Pacing > 0 {
		m.pacer = rate.NewLimiter(rate.Every(opts.Pacing), 1)
	}
	if m.cacheTTL <= 0 {
		m.cacheTTL = 24 * time.Hour
	}
	return m
}

func (m *Model) Name() string { return "model:" + m.gen.Name() }

func (m *Model) Item(ctx context.Context, item news.NewsItem) string {
	if strings.TrimSpace(item.Content) == "" {
		return NoContentSummary(item.Title)
	}

	key := cache.GenerateKey(item.Title, item.Content)
	if m.cache != nil {
		if s, ok := m.cache.Get(key); ok {
			if m.budget != nil {
				m.budget.RecordCacheHit()
			}
			return s
		}
	}

	out, err := m.call(ctx, llm.Request{
		System:      itemSystemPrompt,
		Prompt:      fmt.Sprintf(itemPromptTemplate, item.Title, item.Content),
		MaxTokens:   itemMaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		m.log.Warn("item summary failed", "url", item.URL, "error", err)
		return FailedSummary(item.Title)
	}
	if m.cache != nil {
		m.cache.Set(key, out, m.cacheTTL)
	}
	return out
}

func (m *Model) Digest(ctx context.Context, items []news.NewsItem) string {
	var lines []string
	for i, it := range items {
		if i == digestTitles {
			break
		}
		if it.Title != "" {
			lines = append(lines, "- "+it.Title)
		}
	}
	if len(lines) == 0 {
		return NoNewsDigest
	}

	out, err := m.call(ctx, llm.Request{
		System:      digestSystemPrompt,
		Prompt:      fmt.Sprintf(digestPromptTemplate, strings.Join(lines, "\n")),
		MaxTokens:   digestMaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		m.log.Warn("digest failed", "error", err)
		return DigestUnavailable
	}
	return out
}

func (m *Model) call(ctx context.Context, req llm.Request) (string, error) {
	if m.pacer != nil {
		if err := m.pacer.Wait(ctx); err != nil {
			return "", err
		}
	}
	if m.budget != nil {
		if err := m.budget.Use(m.gen.Name()); err != nil {
			return "", err
		}
	}
	return m.gen.Generate(ctx, req)
}
