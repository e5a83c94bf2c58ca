package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductCategory string

const (
	ProductCategoryCurso ProductCategory = "curso"
	ProductCategoryLibro ProductCategory = "libro"
)

type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Category    ProductCategory `gorm:"type:varchar(20);not null;index" json:"category"`
	Image       string          `gorm:"type:varchar(255)" json:"image"`
	Stock       int64           `gorm:"not null;default:0" json:"stock"`
	IsActive    bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
