package models

import (
	"time"
)

// PointValue is the monetary value of one loyalty point when redeemed for
// discount (1 point = R$ 0.01). Fixed by policy, not derived.
const PointValue = 0.01

// LoyaltyAccount holds one balance per user, created lazily on first access.
// balance = total_earned - total_used must hold at all times and the balance
// never goes negative.
type LoyaltyAccount struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	Balance     int       `json:"balance" gorm:"not null;default:0"`
	TotalEarned int       `json:"total_earned" gorm:"not null;default:0"`
	TotalUsed   int       `json:"total_used" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
