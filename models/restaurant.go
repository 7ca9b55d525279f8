package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices render as JSON numbers rather than quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type Restaurant struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	OwnerID     uint       `json:"owner_id" gorm:"not null;uniqueIndex"`
	Owner       *User      `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Name        string     `json:"name" gorm:"size:100;not null"`
	Address     string     `json:"address" gorm:"size:255;not null"`
	Phone       string     `json:"phone" gorm:"size:20;not null"`
	Cuisine     string     `json:"cuisine" gorm:"size:50"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	ImageURL    string     `json:"image_url"`
	Description string     `json:"description" gorm:"size:500"`
	MenuItems   []MenuItem `json:"menu_items,omitempty" gorm:"foreignKey:RestaurantID"`
	Reviews     []Review   `json:"reviews,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type MenuItem struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	RestaurantID uint            `json:"restaurant_id" gorm:"not null;index"`
	Name         string          `json:"name" gorm:"size:100;not null"`
	Description  string          `json:"description" gorm:"size:600"`
	Price        decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	ImageURL     string          `json:"image_url"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
