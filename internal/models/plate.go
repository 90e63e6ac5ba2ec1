package models

import (
	"time"
)

// Plate is a menu entry. Orders snapshot its name and price, so edits here
// only affect future orders.
type Plate struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Value       float64   `json:"value" gorm:"not null"`
	Image       string    `json:"image"`
	IsAvailable bool      `json:"is_available" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
