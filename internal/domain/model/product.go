package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID            string              `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name          string              `gorm:"type:varchar(255);not null" json:"name"`
	Description   string              `gorm:"type:text" json:"description"`
	Image         string              `gorm:"type:text;not null" json:"image"`
	Category      string              `gorm:"type:varchar(100);index" json:"category"`
	Price         decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"price"`
	OriginalPrice decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"original_price"`
	PackAmount    int64               `gorm:"not null;default:1" json:"pack_amount"`
	PackUnit      string              `gorm:"type:varchar(20)" json:"pack_unit"`
	IsActive      bool                `gorm:"not null;default:false" json:"is_active"`
	CreatedAt     time.Time           `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt      `gorm:"index" json:"-"`
}

// カタログの商品からカート用スナップショットを作る
func (p Product) Snapshot() ProductSnapshot {
	s := ProductSnapshot{
		ID:          p.ID,
		Name:        p.Name,
		Image:       p.Image,
		Price:       NewPrice(p.Price),
		Category:    p.Category,
		Description: p.Description,
		Quantity: PackSize{
			Amount: p.PackAmount,
			Unit:   p.PackUnit,
		},
	}
	if p.OriginalPrice.Valid {
		op := NewPrice(p.OriginalPrice.Decimal)
		s.OriginalPrice = &op
	}
	return s
}
