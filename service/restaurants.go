package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"food-marketplace-api/apperr"
	"food-marketplace-api/audit"
	"food-marketplace-api/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RestaurantService struct {
	db *gorm.DB
	recorder
}

func NewRestaurantService(db *gorm.DB, auditLog audit.Log, logger *zap.Logger) *RestaurantService {
	return &RestaurantService{db: db, recorder: recorder{log: auditLog, logger: logger}}
}

type RestaurantRequest struct {
	Name        string   `json:"name" binding:"required"`
	Address     string   `json:"address" binding:"required"`
	Phone       string   `json:"phone" binding:"required"`
	Cuisine     string   `json:"cuisine"`
	Latitude    *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" binding:"omitempty,longitude"`
	ImageURL    string   `json:"image_url"`
	Description string   `json:"description"`
}

type RestaurantUpdate struct {
	Name        *string  `json:"name"`
	Address     *string  `json:"address"`
	Phone       *string  `json:"phone"`
	Cuisine     *string  `json:"cuisine"`
	Latitude    *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" binding:"omitempty,longitude"`
	ImageURL    *string  `json:"image_url"`
	Description *string  `json:"description"`
}

const (
	SortNewest  = "newest"
	SortReviews = "reviews"
)

type RestaurantFilter struct {
	Cuisine string `form:"cuisine"`
	Search  string `form:"search"`
	Sort    string `form:"sort"`
}

// Create registers the caller's restaurant. An owner has at most one.
func (s *RestaurantService) Create(ctx context.Context, caller Caller, req RestaurantRequest) (*models.Restaurant, error) {
	switch caller.Role {
	case models.RoleOwner:
	case models.RoleUser, models.RoleRider, models.RoleAdmin:
		return nil, apperr.Forbidden("only restaurant owners can create restaurants")
	default:
		return nil, apperr.Forbidden("unknown role %q", caller.Role)
	}

	restaurant := models.Restaurant{
		OwnerID:     caller.UserID,
		Name:        strings.TrimSpace(req.Name),
		Address:     strings.TrimSpace(req.Address),
		Phone:       strings.TrimSpace(req.Phone),
		Cuisine:     strings.TrimSpace(req.Cuisine),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Description: strings.TrimSpace(req.Description),
	}
	if restaurant.Name == "" || restaurant.Address == "" || restaurant.Phone == "" {
		return nil, apperr.Validation("name, address, and phone are required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Restaurant{}).Where("owner_id = ?", caller.UserID).Count(&count).Error; err != nil {
			return fmt.Errorf("count restaurants: %w", err)
		}
		if count > 0 {
			return apperr.Conflict("you already have a restaurant")
		}
		if err := tx.Create(&restaurant).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("you already have a restaurant")
			}
			return fmt.Errorf("insert restaurant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, passThrough(err, "failed to create restaurant")
	}
	return &restaurant, nil
}

// List is public. Cuisine matches case-insensitively, search matches the name.
func (s *RestaurantService) List(ctx context.Context, filter RestaurantFilter) ([]models.Restaurant, error) {
	query := s.db.WithContext(ctx).Model(&models.Restaurant{})
	if cuisine := strings.TrimSpace(filter.Cuisine); cuisine != "" {
		query = query.Where("LOWER(cuisine) = ?", strings.ToLower(cuisine))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	switch filter.Sort {
	case "":
		query = query.Order("id asc")
	case SortNewest:
		query = query.Order("created_at desc, id desc")
	case SortReviews:
		query = query.Order("(SELECT COUNT(*) FROM reviews WHERE reviews.restaurant_id = restaurants.id) desc, id asc")
	default:
		return nil, apperr.Validation("invalid sort %q. Must be one of: %s, %s", filter.Sort, SortNewest, SortReviews)
	}

	var restaurants []models.Restaurant
	if err := query.Find(&restaurants).Error; err != nil {
		return nil, apperr.Internal(err, "failed to fetch restaurants")
	}
	return restaurants, nil
}

// Get returns a restaurant with its menu and reviews.
func (s *RestaurantService) Get(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := s.db.WithContext(ctx).
		Preload("MenuItems", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at desc, id desc") }).
		Preload("Reviews.User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		First(&restaurant, id).Error
	if err != nil {
		return nil, notFoundOr(err, "restaurant not found")
	}
	return &restaurant, nil
}

// Mine returns the calling owner's restaurant with its menu.
func (s *RestaurantService) Mine(ctx context.Context, caller Caller) (*models.Restaurant, error) {
	if caller.Role != models.RoleOwner {
		return nil, apperr.Forbidden("only restaurant owners have a restaurant")
	}

	var restaurant models.Restaurant
	err := s.db.WithContext(ctx).
		Preload("MenuItems", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("owner_id = ?", caller.UserID).
		First(&restaurant).Error
	if err != nil {
		return nil, notFoundOr(err, "restaurant not found for this owner")
	}
	return &restaurant, nil
}

func (s *RestaurantService) Update(ctx context.Context, caller Caller, id uint, req RestaurantUpdate) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := loadManagedRestaurant(tx, caller, id)
		if err != nil {
			return err
		}
		restaurant = *r

		updates := map[string]any{}
		required := []struct {
			column string
			value  *string
		}{
			{"name", req.Name},
			{"address", req.Address},
			{"phone", req.Phone},
		}
		for _, f := range required {
			if f.value == nil {
				continue
			}
			v := strings.TrimSpace(*f.value)
			if v == "" {
				return apperr.Validation("%s cannot be empty", f.column)
			}
			updates[f.column] = v
		}
		if req.Cuisine != nil {
			updates["cuisine"] = strings.TrimSpace(*req.Cuisine)
		}
		if req.ImageURL != nil {
			updates["image_url"] = strings.TrimSpace(*req.ImageURL)
		}
		if req.Description != nil {
			updates["description"] = strings.TrimSpace(*req.Description)
		}
		if req.Latitude != nil {
			updates["latitude"] = *req.Latitude
		}
		if req.Longitude != nil {
			updates["longitude"] = *req.Longitude
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&restaurant).Updates(updates).Error; err != nil {
			return fmt.Errorf("update restaurant: %w", err)
		}
		return tx.First(&restaurant, restaurant.ID).Error
	})
	if err != nil {
		return nil, passThrough(err, "failed to update restaurant")
	}
	return &restaurant, nil
}

// Delete removes a restaurant and everything hanging off it in one
// transaction: order lines, status history, orders, reviews, menu items.
func (s *RestaurantService) Delete(ctx context.Context, caller Caller, id uint) error {
	if caller.Role != models.RoleAdmin {
		return apperr.Forbidden("admin access required")
	}

	removed := map[string]any{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var restaurant models.Restaurant
		if err := tx.First(&restaurant, id).Error; err != nil {
			return notFoundOr(err, "restaurant not found")
		}

		orderIDs := func() *gorm.DB {
			return tx.Model(&models.Order{}).Select("id").Where("restaurant_id = ?", restaurant.ID)
		}
		steps := []struct {
			name  string
			model any
			query string
			arg   any
		}{
			{"order_lines", &models.OrderLine{}, "order_id IN (?)", orderIDs()},
			{"status_history", &models.OrderStatusHistory{}, "order_id IN (?)", orderIDs()},
			{"orders", &models.Order{}, "restaurant_id = ?", restaurant.ID},
			{"reviews", &models.Review{}, "restaurant_id = ?", restaurant.ID},
			{"menu_items", &models.MenuItem{}, "restaurant_id = ?", restaurant.ID},
		}
		for _, step := range steps {
			res := tx.Where(step.query, step.arg).Delete(step.model)
			if res.Error != nil {
				return fmt.Errorf("delete %s: %w", step.name, res.Error)
			}
			removed[step.name] = res.RowsAffected
		}

		if err := tx.Delete(&restaurant).Error; err != nil {
			return fmt.Errorf("delete restaurant: %w", err)
		}
		return nil
	})
	if err != nil {
		return passThrough(err, "failed to delete restaurant")
	}

	s.record(ctx, caller, audit.ActionRestaurantGone, id, removed)
	return nil
}

// ListAll is the admin view with owner contact details.
func (s *RestaurantService) ListAll(ctx context.Context, caller Caller) ([]models.Restaurant, error) {
	if caller.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("admin access required")
	}

	var restaurants []models.Restaurant
	err := s.db.WithContext(ctx).
		Preload("Owner", selectUserSummary).
		Order("id asc").
		Find(&restaurants).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to fetch restaurants")
	}
	return restaurants, nil
}

// loadManagedRestaurant loads a restaurant the caller may manage: its owner
// or any admin.
func loadManagedRestaurant(tx *gorm.DB, caller Caller, id uint) (*models.Restaurant, error) {
	switch caller.Role {
	case models.RoleOwner, models.RoleAdmin:
	case models.RoleUser, models.RoleRider:
		return nil, apperr.Forbidden("only restaurant owners and admins can manage restaurants")
	default:
		return nil, apperr.Forbidden("unknown role %q", caller.Role)
	}

	var restaurant models.Restaurant
	err := tx.First(&restaurant, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("restaurant not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load restaurant: %w", err)
	}
	if caller.Role == models.RoleOwner && restaurant.OwnerID != caller.UserID {
		return nil, apperr.Forbidden("you can only manage your own restaurant")
	}
	return &restaurant, nil
}
