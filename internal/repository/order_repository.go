package repository

import (
	"context"

	"edushop/internal/domain/model"
)

// OrderWithBuyer は管理者一覧用に注文へ購入者名を結合したもの
type OrderWithBuyer struct {
	model.Order `gorm:"embedded"`
	UserName    string `gorm:"column:user_name" json:"user_name"`
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	//同じキーなら同じ注文を返すための検索
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
	//管理者用の全注文一覧（購入者名つき、新しい順）
	ListAllWithBuyer(ctx context.Context) ([]OrderWithBuyer, error)
}
