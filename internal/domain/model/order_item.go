package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細（カート明細のスナップショット）
type OrderItem struct {
	ID                string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	OrderID           string          `gorm:"type:varchar(36);not null;index" json:"order_id"`
	ProductID         string          `gorm:"type:varchar(64);not null;index" json:"product_id"`
	NameSnapshot      string          `gorm:"type:varchar(255);not null" json:"name"`
	ImageSnapshot     string          `gorm:"type:text" json:"image"`
	PackUnit          string          `gorm:"type:varchar(20)" json:"unit"`
	PackAmount        int64           `gorm:"not null;default:0" json:"amount"`
	UnitPriceSnapshot decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Quantity          int64           `gorm:"not null" json:"quantity"`
	CreatedAt         time.Time       `gorm:"not null" json:"created_at"`
}

// カート明細から注文明細を作る
func OrderItemFromCartLine(id string, orderID string, l CartLine, now time.Time) OrderItem {
	it := OrderItem{
		ID:                id,
		OrderID:           orderID,
		ProductID:         l.ProductID,
		NameSnapshot:      l.Name,
		ImageSnapshot:     l.Image,
		UnitPriceSnapshot: l.UnitPrice,
		Quantity:          l.Quantity,
		CreatedAt:         now,
	}
	if l.PackUnit != nil {
		it.PackUnit = *l.PackUnit
	}
	if l.PackAmount != nil {
		it.PackAmount = *l.PackAmount
	}
	if it.UnitPriceSnapshot.IsNegative() {
		it.UnitPriceSnapshot = decimal.Zero
	}
	return it
}
