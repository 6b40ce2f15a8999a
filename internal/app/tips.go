package app

import (
	"context"
	"fmt"

	"github.com/deusflow/econbrief/internal/knowledge"
	"github.com/deusflow/econbrief/internal/logger"
	"github.com/deusflow/econbrief/internal/news"
	"github.com/deusflow/econbrief/internal/storage"
)

// TipsJob regenerates the finance tips aggregate and persists it.
type TipsJob struct {
	gen   *knowledge.TipsGenerator
	store storage.Store
}

func NewTipsJob(gen *knowledge.TipsGenerator, store storage.Store) *TipsJob {
	return &TipsJob{gen: gen, store: store}
}

func (j *TipsJob) Run(ctx context.Context) (*knowledge.TipsAggregate, error) {
	agg, err := j.gen.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("tips generation interrupted: %w", err)
	}
	data, err := news.EncodeJSON(agg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tips: %w", err)
	}
	if err := j.store.Put(ctx, knowledge.TipsKey, data); err != nil {
		return nil, fmt.Errorf("failed to persist tips: %w", err)
	}
	logger.Info("finance tips saved", "count", agg.Count)
	return agg, nil
}
