package models

import (
	"time"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

func (d DiscountType) Valid() bool {
	return d == DiscountPercentage || d == DiscountFixed
}

// Coupon is soft-deactivated, never hard-deleted, so redemption history
// stays auditable.
type Coupon struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Code        string `json:"code" gorm:"unique;not null"`
	Description string `json:"description" gorm:"not null"`

	DiscountType  DiscountType `json:"discount_type" gorm:"type:text;default:'percentage'"`
	DiscountValue float64      `json:"discount_value" gorm:"not null"`

	MinOrderValue float64 `json:"min_order_value" gorm:"default:0"`
	UsageLimit    *int    `json:"usage_limit"` // nil = unlimited
	UsageCount    int     `json:"usage_count" gorm:"default:0"`
	UsagePerUser  int     `json:"usage_per_user" gorm:"default:1"`

	ValidFrom  time.Time  `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until"` // nil = never expires

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DiscountFor computes the discount this coupon grants on the given order
// value, capped so it never exceeds the order value.
func (c *Coupon) DiscountFor(orderValue float64) float64 {
	var discount float64
	if c.DiscountType == DiscountPercentage {
		discount = orderValue * c.DiscountValue / 100
	} else {
		discount = c.DiscountValue
	}
	if discount > orderValue {
		discount = orderValue
	}
	return discount
}

// UserCouponRedemption records one successful redemption, tying the user, the
// coupon and the order that consumed it. It backs the usage_per_user check.
type UserCouponRedemption struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	UserID   uint      `json:"user_id" gorm:"not null;index"`
	CouponID uint      `json:"coupon_id" gorm:"not null;index"`
	OrderID  uint      `json:"order_id"`
	UsedAt   time.Time `json:"used_at" gorm:"autoCreateTime"`
}

func (UserCouponRedemption) TableName() string {
	return "user_coupons"
}
