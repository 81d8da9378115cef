package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// 1パックあたりの量（例: 500 g）
type PackSize struct {
	Amount int64  `json:"amount" validate:"gte=0"`
	Unit   string `json:"unit" validate:"max=20"`
}

// ProductSnapshot はカタログ側から渡される商品情報。
// カートに追加した時点の内容が明細にコピーされる。
type ProductSnapshot struct {
	ID            string   `json:"id" validate:"required,max=64"`
	Name          string   `json:"name" validate:"required,max=255"`
	Image         string   `json:"image"`
	Price         Price    `json:"price"`
	OriginalPrice *Price   `json:"originalPrice,omitempty"`
	Category      string   `json:"category,omitempty" validate:"max=100"`
	Description   string   `json:"description,omitempty"`
	Quantity      PackSize `json:"quantity"`
}

// 価格が0以上か
func (s ProductSnapshot) HasValidPrices() bool {
	if s.Price.IsNegative() {
		return false
	}
	if s.OriginalPrice != nil && s.OriginalPrice.IsNegative() {
		return false
	}
	return true
}

// NewCartLine はスナップショットから新しい明細を作る。
// IDと時刻は呼び出し側が決める。
func (s ProductSnapshot) NewCartLine(id string, ownerKey string, quantity int64) CartLine {
	line := CartLine{
		ID:          id,
		OwnerKey:    ownerKey,
		ProductID:   s.ID,
		Name:        s.Name,
		Image:       s.Image,
		Category:    optionalString(s.Category),
		Description: optionalString(s.Description),
		UnitPrice:   RoundPrice(s.Price.Decimal),
		PackUnit:    optionalString(s.Quantity.Unit),
		Quantity:    quantity,
	}
	if s.OriginalPrice != nil {
		line.OriginalUnitPrice = decimal.NewNullDecimal(RoundPrice(s.OriginalPrice.Decimal))
	}
	if s.Quantity.Amount > 0 {
		amount := s.Quantity.Amount
		line.PackAmount = &amount
	}
	return line
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
