package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/deusflow/econbrief/internal/logger"
)

// ErrBudgetExhausted is returned by Use once the call budget is spent.
var ErrBudgetExhausted = errors.New("model call budget exhausted")

// Budget caps calls to the text-generation collaborator and keeps score of
// how many were avoided through caching. Counters reset every window.
type Budget struct {
	mu          sync.Mutex
	counts      map[string]int
	totalCount  int
	maxTotal    int
	window      time.Duration
	resetTime   time.Time
	cacheHits   int
	cacheMisses int
	now         func() time.Time
}

// NewBudget allows maxTotal calls per day. maxTotal <= 0 means unlimited.
func NewBudget(maxTotal int) *Budget {
	return NewBudgetWindow(maxTotal, 24*time.Hour)
}

func NewBudgetWindow(maxTotal int, window time.Duration) *Budget {
	b := &Budget{
		counts:   make(map[string]int),
		maxTotal: maxTotal,
		window:   window,
		now:      time.Now,
	}
	b.resetTime = b.now().Add(window)
	return b
}

// Allow reports whether another call may be made.
func (b *Budget) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()
	return b.maxTotal <= 0 || b.totalCount < b.maxTotal
}

// Use records one call for provider, or fails with ErrBudgetExhausted.
func (b *Budget) Use(provider string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()

	if b.maxTotal > 0 && b.totalCount >= b.maxTotal {
		return fmt.Errorf("%w (%d/%d)", ErrBudgetExhausted, b.totalCount, b.maxTotal)
	}

	b.counts[provider]++
	b.totalCount++
	b.cacheMisses++

	logger.Debug("model usage", "provider", provider, "used", b.counts[provider], "total", b.totalCount, "limit", b.maxTotal)
	return nil
}

// RecordCacheHit counts a call that was answered from cache.
func (b *Budget) RecordCacheHit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cacheHits++
}

// Stats is a snapshot of the budget counters.
type Stats struct {
	Used         map[string]int `json:"used"`
	Total        int            `json:"total"`
	Limit        int            `json:"limit"`
	CacheHits    int            `json:"cache_hits"`
	CacheMisses  int            `json:"cache_misses"`
	CacheHitRate float64        `json:"cache_hit_rate"`
	ResetTime    time.Time      `json:"reset_time"`
}

func (b *Budget) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats()
}

func (b *Budget) stats() Stats {
	used := make(map[string]int, len(b.counts))
	for k, v := range b.counts {
		used[k] = v
	}
	return Stats{
		Used:         used,
		Total:        b.totalCount,
		Limit:        b.maxTotal,
		CacheHits:    b.cacheHits,
		CacheMisses:  b.cacheMisses,
		CacheHitRate: b.hitRate(),
		ResetTime:    b.resetTime,
	}
}

func (b *Budget) hitRate() float64 {
	total := b.cacheHits + b.cacheMisses
	if total == 0 {
		return 0
	}
	return float64(b.cacheHits) / float64(total) * 100
}

// LogStats writes the counters at info level.
func (b *Budget) LogStats() {
	s := b.Stats()
	logger.Info("model budget",
		"total", s.Total,
		"limit", s.Limit,
		"cache_hits", s.CacheHits,
		"cache_misses", s.CacheMisses,
		"cache_hit_rate", fmt.Sprintf("%.1f%%", s.CacheHitRate))
}

// checkReset clears counters once the window has passed. Caller holds mu.
func (b *Budget) checkReset() {
	now := b.now()
	if now.Before(b.resetTime) {
		return
	}
	s := b.stats()
	logger.Info("resetting model budget", "total", s.Total, "cache_hits", s.CacheHits)

	b.counts = make(map[string]int)
	b.totalCount = 0
	b.cacheHits = 0
	b.cacheMisses = 0
	b.resetTime = now.Add(b.window)
}
