package repository

import (
	"context"
	"errors"

	"ecshop/internal/domain/model"
)

var ErrProductNotFound = errors.New("product not found")

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id string) (*model.Product, error)
	Create(ctx context.Context, p *model.Product) error
}
