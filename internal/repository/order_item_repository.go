package repository

import (
	"context"

	"edushop/internal/domain/model"
)

type OrderItemRepository interface {
	// 明細はヘッダと同じTxの中で一括insertする
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
}
