package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is unique per (user, restaurant).
type Review struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	UserID       uint        `json:"user_id" gorm:"not null;uniqueIndex:idx_review_user_restaurant"`
	User         *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	RestaurantID uint        `json:"restaurant_id" gorm:"not null;uniqueIndex:idx_review_user_restaurant;index"`
	Restaurant   *Restaurant `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	Rating       int         `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment      string      `json:"comment" gorm:"type:text"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
