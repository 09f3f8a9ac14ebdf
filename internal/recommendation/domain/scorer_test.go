package domain

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
	invdomain "github.com/wyfcoding/storefront/internal/inventory/domain"
)

func product(id int64, sub string, price int64) invdomain.Product {
	return invdomain.Product{ID: id, Subcategory: sub, Price: decimal.NewFromInt(price)}
}

func fixed(w float64) WeightFunc { return func() float64 { return w } }

func TestRecommendSameSubcategoryDominates(t *testing.T) {
	catalog := []invdomain.Product{
		product(1, "A", 10),
		product(2, "B", 1000),
		product(3, "A", 10),
	}
	for _, w := range []float64{0.6, 0.7, 0.8} {
		got := NewScorer(fixed(w), 3).Recommend([]int64{1}, catalog)
		if len(got) != 2 || got[0] != 3 {
			t.Fatalf("w1=%v: expected product 3 first, got %v", w, got)
		}
	}
}

func TestRecommendWithRandomWeights(t *testing.T) {
	catalog := []invdomain.Product{product(1, "A", 10), product(2, "B", 1000), product(3, "A", 10)}
	s := NewScorer(nil, 0)
	for i := 0; i < 50; i++ {
		if got := s.Recommend([]int64{1}, catalog); got[0] != 3 {
			t.Fatalf("iteration %d: expected product 3 first, got %v", i, got)
		}
	}
}

func TestRecommendEdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		purchased []int64
		catalog   []invdomain.Product
		want      []int64
	}{
		{
			name:      "no purchases",
			purchased: nil,
			catalog:   []invdomain.Product{product(1, "A", 10)},
			want:      []int64{},
		},
		{
			name:      "purchased ids unknown to catalog",
			purchased: []int64{99},
			catalog:   []invdomain.Product{product(1, "A", 10)},
			want:      []int64{},
		},
		{
			name:      "single product catalog",
			purchased: []int64{1},
			catalog:   []invdomain.Product{product(1, "A", 10)},
			want:      []int64{},
		},
		{
			name:      "identical prices keep catalog order",
			purchased: []int64{1},
			catalog:   []invdomain.Product{product(1, "A", 5), product(2, "B", 5), product(3, "B", 5), product(4, "B", 5), product(5, "B", 5)},
			want:      []int64{2, 3, 4},
		},
		{
			name:      "duplicate purchased ids count once",
			purchased: []int64{1, 1, 1},
			catalog:   []invdomain.Product{product(1, "A", 10), product(2, "A", 20), product(3, "B", 10)},
			want:      []int64{2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewScorer(fixed(0.7), 3).Recommend(tt.purchased, tt.catalog)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRecommendAveragesOverPurchases(t *testing.T) {
	// 已购 1(A,0) 与 2(B,20)，maxPriceDiff = 100，w1 = 0.7
	// 候选 3(A,10):  ((0.7+0.3*0.9) + (0+0.3*0.9)) / 2 = 0.62
	// 候选 4(B,30):  ((0+0.3*0.7) + (0.7+0.3*0.9)) / 2 = 0.59
	// 候选 5(C,100): ((0+0) + (0+0.3*0.2)) / 2 = 0.03
	catalog := []invdomain.Product{
		product(1, "A", 0), product(2, "B", 20),
		product(5, "C", 100), product(3, "A", 10), product(4, "B", 30),
	}
	got := NewScorer(fixed(0.7), 2).Recommend([]int64{1, 2}, catalog)
	if !reflect.DeepEqual(got, []int64{3, 4}) {
		t.Fatalf("expected [3 4], got %v", got)
	}
}
