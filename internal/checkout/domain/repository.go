package domain

import "context"

// StatsRepository 统计仓储
type StatsRepository interface {
	// Load 读取统计，不存在时返回 NewStats()
	Load(ctx context.Context) (Stats, error)
	Save(ctx context.Context, stats Stats) error
}
