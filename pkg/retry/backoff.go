// Package retry 提供重连循环使用的指数退避
package retry

import (
	"context"
	"time"
)

const (
	// DefaultInitial 首次重试间隔
	DefaultInitial = 100 * time.Millisecond
	// DefaultMax 默认退避上限
	DefaultMax = 5 * time.Second
)

// Backoff 指数退避，每次翻倍直到上限。非并发安全，每个循环持有一个。
type Backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

// NewBackoff 创建退避器，非正值回落到默认值
func NewBackoff(initial, max time.Duration) *Backoff {
	if initial <= 0 {
		initial = DefaultInitial
	}
	if max <= 0 {
		max = DefaultMax
	}
	if max < initial {
		max = initial
	}
	return &Backoff{initial: initial, max: max, current: initial}
}

// Current 下一次等待的时长
func (b *Backoff) Current() time.Duration {
	return b.current
}

// Reset 连接恢复后回到初始间隔
func (b *Backoff) Reset() {
	b.current = b.initial
}

// Wait 等待当前间隔并把间隔翻倍；ctx 先结束时返回 false
func (b *Backoff) Wait(ctx context.Context) bool {
	d := b.current
	b.current = min(b.current*2, b.max)
	return Sleep(ctx, d)
}

// Sleep 可被 ctx 打断的休眠，正常睡满返回 true
func Sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
