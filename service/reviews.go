package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"food-marketplace-api/apperr"
	"food-marketplace-api/models"

	"gorm.io/gorm"
)

type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

type ReviewRequest struct {
	RestaurantID uint   `json:"restaurant_id" binding:"required"`
	Rating       int    `json:"rating" binding:"required"`
	Comment      string `json:"comment"`
}

type ReviewUpdate struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

func validRating(rating int) error {
	if rating < models.MinRating || rating > models.MaxRating {
		return apperr.Validation("rating must be between %d and %d", models.MinRating, models.MaxRating)
	}
	return nil
}

// Create records the caller's single review of a restaurant they ordered from.
func (s *ReviewService) Create(ctx context.Context, caller Caller, req ReviewRequest) (*models.Review, error) {
	switch caller.Role {
	case models.RoleUser:
	case models.RoleRider, models.RoleOwner, models.RoleAdmin:
		return nil, apperr.Forbidden("only customers can write reviews")
	default:
		return nil, apperr.Forbidden("unknown role %q", caller.Role)
	}
	if err := validRating(req.Rating); err != nil {
		return nil, err
	}

	var review models.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var restaurant models.Restaurant
		if err := tx.Select("id").First(&restaurant, req.RestaurantID).Error; err != nil {
			return notFoundOr(err, "restaurant not found")
		}

		var orders int64
		err := tx.Model(&models.Order{}).
			Where("user_id = ? AND restaurant_id = ?", caller.UserID, restaurant.ID).
			Count(&orders).Error
		if err != nil {
			return fmt.Errorf("count orders: %w", err)
		}
		if orders == 0 {
			return apperr.Forbidden("you can only review restaurants you have ordered from")
		}

		var existing int64
		err = tx.Model(&models.Review{}).
			Where("user_id = ? AND restaurant_id = ?", caller.UserID, restaurant.ID).
			Count(&existing).Error
		if err != nil {
			return fmt.Errorf("count reviews: %w", err)
		}
		if existing > 0 {
			return apperr.Conflict("you have already reviewed this restaurant")
		}

		review = models.Review{
			UserID:       caller.UserID,
			RestaurantID: restaurant.ID,
			Rating:       req.Rating,
			Comment:      strings.TrimSpace(req.Comment),
		}
		if err := tx.Create(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("you have already reviewed this restaurant")
			}
			return fmt.Errorf("insert review: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, passThrough(err, "failed to create review")
	}
	return &review, nil
}

func (s *ReviewService) Update(ctx context.Context, caller Caller, id uint, req ReviewUpdate) (*models.Review, error) {
	var review models.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadOwnReview(tx, caller, id, &review); err != nil {
			return err
		}

		updates := map[string]any{}
		if req.Rating != nil {
			if err := validRating(*req.Rating); err != nil {
				return err
			}
			updates["rating"] = *req.Rating
		}
		if req.Comment != nil {
			updates["comment"] = strings.TrimSpace(*req.Comment)
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&review).Updates(updates).Error; err != nil {
			return fmt.Errorf("update review: %w", err)
		}
		return tx.First(&review, review.ID).Error
	})
	if err != nil {
		return nil, passThrough(err, "failed to update review")
	}
	return &review, nil
}

func (s *ReviewService) Delete(ctx context.Context, caller Caller, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := loadOwnReview(tx, caller, id, &review); err != nil {
			return err
		}
		return tx.Delete(&review).Error
	})
	if err != nil {
		return passThrough(err, "failed to delete review")
	}
	return nil
}

// ListByRestaurant is public and returns reviews newest first with the
// reviewer's name.
func (s *ReviewService) ListByRestaurant(ctx context.Context, restaurantID uint) ([]models.Review, error) {
	db := s.db.WithContext(ctx)
	if err := db.Select("id").First(&models.Restaurant{}, restaurantID).Error; err != nil {
		return nil, notFoundOr(err, "restaurant not found")
	}

	var reviews []models.Review
	err := db.Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Where("restaurant_id = ?", restaurantID).
		Order("created_at desc, id desc").
		Find(&reviews).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to fetch reviews")
	}
	return reviews, nil
}

func loadOwnReview(tx *gorm.DB, caller Caller, id uint, review *models.Review) error {
	if err := tx.First(review, id).Error; err != nil {
		return notFoundOr(err, "review not found")
	}
	if review.UserID != caller.UserID {
		return apperr.Forbidden("you can only modify your own reviews")
	}
	return nil
}
