package models

import (
	"fmt"
	"time"
)

type Address struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"not null;index"`
	Label        string    `json:"label" gorm:"not null"`
	Street       string    `json:"street" gorm:"not null"`
	Number       string    `json:"number" gorm:"not null"`
	Complement   string    `json:"complement"`
	Neighborhood string    `json:"neighborhood" gorm:"not null"`
	City         string    `json:"city" gorm:"not null"`
	State        string    `json:"state" gorm:"not null"`
	ZipCode      string    `json:"zip_code" gorm:"not null"`
	Reference    string    `json:"reference"`
	IsDefault    bool      `json:"is_default" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Format renders the address as the delivery text stored on orders.
func (a *Address) Format() string {
	line := fmt.Sprintf("%s, %s", a.Street, a.Number)
	if a.Complement != "" {
		line += " - " + a.Complement
	}
	return fmt.Sprintf("%s\n%s, %s/%s", line, a.Neighborhood, a.City, a.State)
}
