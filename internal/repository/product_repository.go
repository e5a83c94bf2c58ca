package repository

import (
	"context"
	"errors"

	"edushop/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

type ProductRepository interface {
	// 公開カタログ（activeのみ）
	ListActive(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, productID int64) (model.Product, error)
	Create(ctx context.Context, p model.Product) (int64, error)
	Update(ctx context.Context, p model.Product) error
	// 物理削除はしない。activeをfalseにするだけ
	Deactivate(ctx context.Context, productID int64) error
}
