package service

import (
	"context"
	"fmt"
	"strings"

	"food-marketplace-api/apperr"
	"food-marketplace-api/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MenuService struct {
	db *gorm.DB
}

func NewMenuService(db *gorm.DB) *MenuService {
	return &MenuService{db: db}
}

type MenuItemRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	ImageURL    string           `json:"image_url"`
}

type MenuItemUpdate struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    *string          `json:"image_url"`
}

func validPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return apperr.Validation("price must be zero or greater")
	}
	return nil
}

func (s *MenuService) Create(ctx context.Context, caller Caller, restaurantID uint, req MenuItemRequest) (*models.MenuItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.Price == nil {
		return nil, apperr.Validation("name and price are required")
	}
	if err := validPrice(*req.Price); err != nil {
		return nil, err
	}

	var item models.MenuItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		restaurant, err := loadManagedRestaurant(tx, caller, restaurantID)
		if err != nil {
			return err
		}
		item = models.MenuItem{
			RestaurantID: restaurant.ID,
			Name:         name,
			Description:  strings.TrimSpace(req.Description),
			Price:        req.Price.Round(2),
			ImageURL:     strings.TrimSpace(req.ImageURL),
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, passThrough(err, "failed to create menu item")
	}
	return &item, nil
}

// List is public. An unknown restaurant is NotFound rather than an empty menu.
func (s *MenuService) List(ctx context.Context, restaurantID uint) ([]models.MenuItem, error) {
	db := s.db.WithContext(ctx)
	if err := db.Select("id").First(&models.Restaurant{}, restaurantID).Error; err != nil {
		return nil, notFoundOr(err, "restaurant not found")
	}

	var items []models.MenuItem
	if err := db.Where("restaurant_id = ?", restaurantID).Order("id asc").Find(&items).Error; err != nil {
		return nil, apperr.Internal(err, "failed to fetch menu items")
	}
	return items, nil
}

func (s *MenuService) Get(ctx context.Context, restaurantID, itemID uint) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.db.WithContext(ctx).
		Where("id = ? AND restaurant_id = ?", itemID, restaurantID).
		First(&item).Error
	if err != nil {
		return nil, notFoundOr(err, "menu item not found")
	}
	return &item, nil
}

// Update changes the live menu only. Lines of existing orders keep the price
// they were placed at.
func (s *MenuService) Update(ctx context.Context, caller Caller, restaurantID, itemID uint, req MenuItemUpdate) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadManagedItem(tx, caller, restaurantID, itemID, &item); err != nil {
			return err
		}

		updates := map[string]any{}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return apperr.Validation("name cannot be empty")
			}
			updates["name"] = name
		}
		if req.Description != nil {
			updates["description"] = strings.TrimSpace(*req.Description)
		}
		if req.Price != nil {
			if err := validPrice(*req.Price); err != nil {
				return err
			}
			updates["price"] = req.Price.Round(2)
		}
		if req.ImageURL != nil {
			updates["image_url"] = strings.TrimSpace(*req.ImageURL)
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&item).Updates(updates).Error; err != nil {
			return fmt.Errorf("update menu item: %w", err)
		}
		return tx.First(&item, item.ID).Error
	})
	if err != nil {
		return nil, passThrough(err, "failed to update menu item")
	}
	return &item, nil
}

func (s *MenuService) Delete(ctx context.Context, caller Caller, restaurantID, itemID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.MenuItem
		if err := loadManagedItem(tx, caller, restaurantID, itemID, &item); err != nil {
			return err
		}
		return tx.Delete(&item).Error
	})
	if err != nil {
		return passThrough(err, "failed to delete menu item")
	}
	return nil
}

func loadManagedItem(tx *gorm.DB, caller Caller, restaurantID, itemID uint, item *models.MenuItem) error {
	if _, err := loadManagedRestaurant(tx, caller, restaurantID); err != nil {
		return err
	}
	err := tx.Where("id = ? AND restaurant_id = ?", itemID, restaurantID).First(item).Error
	if err != nil {
		return notFoundOr(err, "menu item not found")
	}
	return nil
}
