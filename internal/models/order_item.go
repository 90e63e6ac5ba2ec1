package models

import (
	"time"
)

// OrderItem snapshots the plate name and price at order time, so later menu
// edits never change what an existing order shows.
type OrderItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrderID   uint      `json:"order_id" gorm:"not null;index"`
	PlateID   uint      `json:"plate_id" gorm:"not null"`
	PlateName string    `json:"plate_name" gorm:"not null"`
	UnitPrice float64   `json:"unit_price" gorm:"not null"`
	Quantity  int       `json:"quantity" gorm:"not null;default:1"`
	Subtotal  float64   `json:"subtotal" gorm:"not null"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}
