package domain

import (
	"fmt"
	"sort"
)

// Catalog 商品目录快照。值不可变，Apply 返回新目录。
type Catalog struct {
	products []Product
	index    map[int64]int
}

// NewCatalog 以给定商品构建目录，按 ID 升序
func NewCatalog(products []Product) *Catalog {
	items := make([]Product, len(products))
	copy(items, products)
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	index := make(map[int64]int, len(items))
	for i, p := range items {
		index[p.ID] = i
	}
	return &Catalog{products: items, index: index}
}

// Products 返回目录的副本
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Len 商品数量
func (c *Catalog) Len() int {
	return len(c.products)
}

// Get 按 ID 查找商品
func (c *Catalog) Get(id int64) (Product, bool) {
	i, ok := c.index[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Apply 校验并应用整个批次，返回新目录与变更后的商品记录（按批次顺序）。
// 任一条目失败时返回错误，原目录不受影响。
func (c *Catalog) Apply(updates []QuantityUpdate) (*Catalog, []Product, error) {
	next := make([]Product, len(c.products))
	copy(next, c.products)

	touched := make([]int, 0, len(updates))
	for _, u := range updates {
		i, ok := c.index[u.ProductID]
		if !ok {
			return nil, nil, fmt.Errorf("product with ID %d: %w", u.ProductID, ErrProductNotFound)
		}
		remaining := next[i].AvailableQuantity - u.Delta
		if remaining < 0 {
			return nil, nil, fmt.Errorf("cannot update product %d: %w", u.ProductID, ErrInsufficientStock)
		}
		next[i].AvailableQuantity = remaining
		touched = append(touched, i)
	}

	updated := make([]Product, 0, len(touched))
	for _, i := range touched {
		updated = append(updated, next[i])
	}
	return &Catalog{products: next, index: c.index}, updated, nil
}
