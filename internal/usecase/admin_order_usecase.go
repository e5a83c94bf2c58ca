package usecase

import (
	"context"
	"net/http"

	repo "edushop/internal/repository"
)

type AdminOrderUsecase struct {
	orderRepo repo.OrderRepository
}

func NewAdminOrderUsecase(orderRepo repo.OrderRepository) *AdminOrderUsecase {
	return &AdminOrderUsecase{orderRepo: orderRepo}
}

// 全注文一覧（購入者名つき、新しい順）。管理者ガードはmiddleware側
func (u *AdminOrderUsecase) ListAll(ctx context.Context) ([]repo.OrderWithBuyer, error) {
	rows, err := u.orderRepo.ListAllWithBuyer(ctx)
	if err != nil {
		return []repo.OrderWithBuyer{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return rows, nil
}
