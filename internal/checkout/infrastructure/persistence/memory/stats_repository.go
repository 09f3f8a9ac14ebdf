// Package memory 进程内统计仓储
package memory

import (
	"context"
	"sync"

	"github.com/wyfcoding/storefront/internal/checkout/domain"
)

// StatsRepository 内存统计仓储
type StatsRepository struct {
	mu    sync.Mutex
	stats domain.Stats
}

// NewStatsRepository 创建内存统计仓储
func NewStatsRepository() *StatsRepository {
	return &StatsRepository{stats: domain.NewStats()}
}

func (r *StatsRepository) Load(ctx context.Context) (domain.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats, nil
}

func (r *StatsRepository) Save(ctx context.Context, stats domain.Stats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = stats
	return nil
}
