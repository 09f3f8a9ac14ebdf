package domain

import "context"

// ProductRepository 商品仓储，以全量快照读写
type ProductRepository interface {
	// LoadAll 按 ID 升序返回全部商品
	LoadAll(ctx context.Context) ([]Product, error)
	// SaveAll 持久化整个目录快照，要么全部写入要么全部不写
	SaveAll(ctx context.Context, products []Product) error
}
