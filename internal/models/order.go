package models

import (
	"time"
)

type Order struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	UserID      uint   `json:"user_id" gorm:"not null;index"`
	OrderNumber string `json:"order_number" gorm:"unique;not null"`

	Subtotal    float64 `json:"subtotal" gorm:"not null"`
	DeliveryFee float64 `json:"delivery_fee" gorm:"default:0"`
	Discount    float64 `json:"discount" gorm:"default:0"`
	Total       float64 `json:"total" gorm:"not null"`

	Status       OrderStatus  `json:"status" gorm:"type:text;default:'pending'"`
	DeliveryType DeliveryType `json:"delivery_type" gorm:"type:text;not null"`

	DeliveryAddress string `json:"delivery_address"`
	DeliveryPhone   string `json:"delivery_phone"`
	DeliveryNotes   string `json:"delivery_notes"`

	EstimatedTime       int     `json:"estimated_time"` // minutes
	LoyaltyPointsEarned int     `json:"loyalty_points_earned" gorm:"default:0"`
	CouponCode          *string `json:"coupon_code"`

	PaymentMethod PaymentMethod `json:"payment_method" gorm:"type:text;default:'cash'"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:text;default:'pending'"`

	PixCopyPaste string     `json:"pix_copy_paste,omitempty"`
	PixQRCode    string     `json:"pix_qr_code,omitempty"`
	PixExpiresAt *time.Time `json:"pix_expires_at,omitempty"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`

	// Admin confirmation audit
	ConfirmedBy              *uint      `json:"confirmed_by,omitempty"`
	ConfirmedAt              *time.Time `json:"confirmed_at,omitempty"`
	PaymentNotes             string     `json:"payment_notes,omitempty"`
	PaymentManuallyConfirmed bool       `json:"payment_manually_confirmed" gorm:"default:false"`

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	User  *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DeliveryType string

const (
	DeliveryTypeDelivery DeliveryType = "delivery"
	DeliveryTypePickup   DeliveryType = "pickup"
)

func (d DeliveryType) Valid() bool {
	return d == DeliveryTypeDelivery || d == DeliveryTypePickup
}

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodPix  PaymentMethod = "pix"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodPix:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderPreparing      OrderStatus = "preparing"
	OrderReady          OrderStatus = "ready"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

// orderTransitions is the fulfillment pipeline. Delivered and cancelled are
// terminal; cancellation is only reachable from pending or confirmed.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:        {OrderConfirmed, OrderCancelled},
	OrderConfirmed:      {OrderPreparing, OrderCancelled},
	OrderPreparing:      {OrderReady},
	OrderReady:          {OrderOutForDelivery, OrderDelivered},
	OrderOutForDelivery: {OrderDelivered},
	OrderDelivered:      {},
	OrderCancelled:      {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Cancellable reports whether the owning customer may still cancel the order.
func (s OrderStatus) Cancellable() bool {
	return s == OrderPending || s == OrderConfirmed
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentConfirmed PaymentStatus = "confirmed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentConfirmed:
		return true
	}
	return false
}

// OrderSequence is the per-year counter behind order numbers. The row is
// locked FOR UPDATE while an order is being created so concurrent creations
// never hand out the same number.
type OrderSequence struct {
	ID         uint `gorm:"primaryKey"`
	Year       int  `gorm:"uniqueIndex;not null"`
	LastNumber int  `gorm:"not null;default:0"`
}
