package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// 許可する遷移（終端は delivered / cancelled）
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, n := range orderTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodStripe         PaymentMethod = "stripe"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusFailed PaymentStatus = "failed"
)

// 配送先（注文に埋め込み）
type ShippingAddress struct {
	Street  string `gorm:"type:varchar(255);not null" json:"street" validate:"required,max=255"`
	City    string `gorm:"type:varchar(100);not null" json:"city" validate:"required,max=100"`
	State   string `gorm:"type:varchar(100);not null" json:"state" validate:"required,max=100"`
	ZipCode string `gorm:"type:varchar(20);not null" json:"zipCode" validate:"required,max=20"`
	Country string `gorm:"type:varchar(100)" json:"country,omitempty" validate:"max=100"`
	Email   string `gorm:"type:varchar(320)" json:"email,omitempty" validate:"omitempty,email"`
	Phone   string `gorm:"type:varchar(30)" json:"phone,omitempty" validate:"max=30"`
}

type Order struct {
	ID              string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerKey        string          `gorm:"type:varchar(320);not null;index;uniqueIndex:ux_orders_owner_idem,priority:1" json:"owner_key"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	PaymentMethod   PaymentMethod   `gorm:"type:varchar(30);not null" json:"payment_method"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);not null" json:"payment_status"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	IdempotencyKey  string          `gorm:"type:varchar(255);not null;uniqueIndex:ux_orders_owner_idem,priority:2" json:"-"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}
