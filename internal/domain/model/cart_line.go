package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// オーナーキーが空のときに使うゲスト用の固定キー
const GuestOwnerKey = "guest_default"

// ゲストセッションで発行するキーの接頭辞
const GuestOwnerPrefix = "guest_"

// カートの明細（1オーナー×1商品につき1行）
// 商品情報は追加時点のスナップショットを保存する。
type CartLine struct {
	ID       string `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerKey string `gorm:"type:varchar(320);not null;index;uniqueIndex:ux_cart_lines_owner_product,priority:1" json:"owner_key"`

	ProductID string `gorm:"type:varchar(64);not null;index;uniqueIndex:ux_cart_lines_owner_product,priority:2" json:"product_id"`

	Name        string  `gorm:"type:varchar(255);not null" json:"name"`
	Image       string  `gorm:"type:text;not null" json:"image"`
	Category    *string `gorm:"type:varchar(100)" json:"category,omitempty"`
	Description *string `gorm:"type:text" json:"description,omitempty"`

	UnitPrice         decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	OriginalUnitPrice decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"original_unit_price"`

	//500g/パック の 500 と g
	PackAmount *int64  `json:"pack_amount,omitempty"`
	PackUnit   *string `gorm:"type:varchar(20)" json:"pack_unit,omitempty"`

	Quantity int64 `gorm:"not null" json:"quantity"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// 単価×数量。単価が不正（負）なら0扱い。
func (l CartLine) Subtotal() decimal.Decimal {
	if l.UnitPrice.IsNegative() || l.Quantity < 1 {
		return decimal.Zero
	}
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// 数量の合計
func TotalItems(lines []CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}

// 小計の合計（不正な単価の行は0として数える）
func TotalPrice(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// NormalizeOwnerKey はメールの大文字小文字と前後空白を揃える。
// 空ならゲスト用キーを返す。
func NormalizeOwnerKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return GuestOwnerKey
	}
	return k
}

// ゲストのキーか
func IsGuestOwnerKey(key string) bool {
	return strings.HasPrefix(key, GuestOwnerPrefix)
}
