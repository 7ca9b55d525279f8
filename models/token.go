package models

import "time"

// RevokedToken is a logged-out token kept until its natural expiry.
type RevokedToken struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"size:512;uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

// All lists every persisted model, in migration order.
func All() []any {
	return []any{
		&User{},
		&Restaurant{},
		&MenuItem{},
		&Order{},
		&OrderLine{},
		&OrderStatusHistory{},
		&Review{},
		&RevokedToken{},
	}
}
