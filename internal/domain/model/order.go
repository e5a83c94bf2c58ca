package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusCanceled OrderStatus = "canceled"
	OrderStatusRefunded OrderStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodYape         PaymentMethod = "yape"
	PaymentMethodPlin         PaymentMethod = "plin"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// IsValidPaymentMethod は閉じたラベル集合のメンバーかを確認
func IsValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCard, PaymentMethodYape, PaymentMethodPlin, PaymentMethodBankTransfer:
		return true
	}
	return false
}

type Order struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64           `gorm:"not null;index" json:"user_id"`
	Total          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	PaymentMethod  PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	Status         OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	Whatsapp       string          `gorm:"type:varchar(30)" json:"whatsapp,omitempty"`
	IdempotencyKey string          `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	CreatedAt      time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
