// Package domain 推荐打分：按子类相同与价格接近度对未购买商品排序。
package domain

import (
	"math/rand/v2"
	"sort"

	invdomain "github.com/wyfcoding/storefront/internal/inventory/domain"
)

// DefaultLimit 默认返回的推荐数量
const DefaultLimit = 3

// WeightFunc 返回子类权重 w1，价格权重为 1-w1
type WeightFunc func() float64

// RandomWeight 在 [0.6, 0.8) 上均匀抽取 w1
func RandomWeight() float64 {
	return 0.6 + rand.Float64()*0.2
}

// Scorer 推荐打分器，无状态，可并发使用
type Scorer struct {
	weight WeightFunc
	limit  int
}

// NewScorer 创建打分器；weight 为 nil 时使用 RandomWeight，limit<=0 时使用 DefaultLimit
func NewScorer(weight WeightFunc, limit int) *Scorer {
	if weight == nil {
		weight = RandomWeight
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Scorer{weight: weight, limit: limit}
}

type scored struct {
	id    int64
	score float64
}

// Recommend 根据已购商品 ID 在目录中挑选推荐商品。
// 已购集合在目录中为空时返回空结果；权重每次调用只抽取一次。
func (s *Scorer) Recommend(purchasedIDs []int64, catalog []invdomain.Product) []int64 {
	bought := make(map[int64]struct{}, len(purchasedIDs))
	for _, id := range purchasedIDs {
		bought[id] = struct{}{}
	}

	prices := make([]float64, len(catalog))
	for i, p := range catalog {
		prices[i] = p.Price.InexactFloat64()
	}

	var purchased []int
	for i, p := range catalog {
		if _, ok := bought[p.ID]; ok {
			purchased = append(purchased, i)
		}
	}
	if len(purchased) == 0 {
		return []int64{}
	}

	var maxPriceDiff float64
	for _, pi := range purchased {
		for qi := range catalog {
			if d := abs(prices[pi] - prices[qi]); d > maxPriceDiff {
				maxPriceDiff = d
			}
		}
	}
	if maxPriceDiff == 0 {
		maxPriceDiff = 1
	}

	w1 := s.weight()
	w2 := 1 - w1

	candidates := make([]scored, 0, len(catalog))
	for i, p := range catalog {
		if _, ok := bought[p.ID]; ok {
			continue
		}
		var sum float64
		for _, ti := range purchased {
			var sameSub float64
			if p.Subcategory == catalog[ti].Subcategory {
				sameSub = 1
			}
			priceScore := 1 - abs(prices[i]-prices[ti])/maxPriceDiff
			sum += w1*sameSub + w2*priceScore
		}
		candidates = append(candidates, scored{id: p.ID, score: sum / float64(len(purchased))})
	}

	sort.SliceStable(candidates, func(a, b int) bool { return candidates[a].score > candidates[b].score })

	n := min(s.limit, len(candidates))
	out := make([]int64, 0, n)
	for _, c := range candidates[:n] {
		out = append(out, c.id)
	}
	return out
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
