package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidPrice = errors.New("invalid price")

// 表示用の記号（通貨・桁区切り）
var priceReplacer = strings.NewReplacer(
	"$", "",
	"₹", "",
	"€", "",
	"£", "",
	"¥", "",
	",", "",
	" ", "",
	" ", "",
)

// ParsePrice は "$9.99" のような表示用文字列を金額に変換する。
// 負の値はエラー。
func ParsePrice(s string) (decimal.Decimal, error) {
	raw := priceReplacer.Replace(strings.TrimSpace(s))
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidPrice)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative %q", ErrInvalidPrice, s)
	}
	return d, nil
}

// 旧データ互換：読めない価格は0
func ParsePriceOrZero(s string) decimal.Decimal {
	d, err := ParsePrice(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// 保存する金額の小数桁（numeric(12,2)）
const PriceScale = 2

// RoundPrice は保存前に小数2桁へ丸める（四捨五入）。
// postgresのnumericと同じ値をsqliteにも入れる。
func RoundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(PriceScale)
}

// Price はJSONで数値・文字列（"$9.99"）どちらでも受け取れる金額。
type Price struct {
	decimal.Decimal
}

func NewPrice(d decimal.Decimal) Price {
	return Price{Decimal: d}
}

func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		p.Decimal = decimal.Zero
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		d, err := ParsePrice(s)
		if err != nil {
			return err
		}
		p.Decimal = d
		return nil
	}

	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPrice, string(b))
	}
	p.Decimal = d
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	return p.Decimal.MarshalJSON()
}
