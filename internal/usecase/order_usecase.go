package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"edushop/internal/domain/model"
	repo "edushop/internal/repository"

	"github.com/shopspring/decimal"
)

type OrderUsecase struct {
	tx repo.TransactionManager
}

func NewOrderUsecase(tx repo.TransactionManager) *OrderUsecase {
	return &OrderUsecase{tx: tx}
}

// CartLineInput はクライアントが送ってきたカートの1行。
// unit_priceは表示時点のスナップショットをそのまま保存する（管理画面だけが価格を変更できる前提）。
type CartLineInput struct {
	ProductID int64
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int64
}

type PlaceOrderInput struct {
	Items          []CartLineInput
	PaymentMethod  string
	Whatsapp       string
	IdempotencyKey string
}

type PlaceOrderOutput struct {
	OrderID int64           `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}

// PlaceOrder はカートを検証して注文ヘッダ＋明細を1つのTxで永続化する。
// 合計はdecimalで計算する（floatの丸め誤差を持ち込まない）。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (PlaceOrderOutput, error) {
	if userID <= 0 {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	if len(in.Items) == 0 {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	method := model.PaymentMethod(strings.TrimSpace(in.PaymentMethod))
	if !model.IsValidPaymentMethod(method) {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}

	// 行の検証と合計
	total := decimal.Zero
	for _, line := range in.Items {
		if line.ProductID <= 0 {
			return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
		}
		if line.Quantity < 1 {
			return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}
		if line.UnitPrice.IsNegative() {
			return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid price")
		}
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity)))
	}

	var out PlaceOrderOutput

	// ヘッダと明細は全部書けるか全部書かないか。途中失敗はrollback
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら既存の注文を返す（二重送信対策）
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			out = PlaceOrderOutput{OrderID: existing.ID, Total: existing.Total}
			return nil
		}

		now := time.Now()

		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:         userID,
			Total:          total,
			PaymentMethod:  method,
			Status:         model.OrderStatusPaid,
			Whatsapp:       strings.TrimSpace(in.Whatsapp),
			IdempotencyKey: key,
			CreatedAt:      now,
		})
		if err != nil {
			// 同時に同じキーが入った場合はもう一度探して同じ結果を返す
			ex2, found2, err2 := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err2 == nil && found2 {
				out = PlaceOrderOutput{OrderID: ex2.ID, Total: ex2.Total}
				return nil
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items := make([]model.OrderItem, 0, len(in.Items))
		for _, line := range in.Items {
			items = append(items, model.OrderItem{
				ProductID: line.ProductID,
				Name:      line.Name,
				UnitPrice: line.UnitPrice,
				Quantity:  line.Quantity,
				CreatedAt: now,
			})
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, items); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = PlaceOrderOutput{OrderID: orderID, Total: total}
		return nil
	})

	if err != nil {
		return PlaceOrderOutput{}, err
	}
	return out, nil
}
