// Package service holds the marketplace business rules. Every service takes
// its *gorm.DB explicitly and scopes each call with the request context.
package service

import (
	"errors"

	"food-marketplace-api/apperr"
	"food-marketplace-api/models"

	"gorm.io/gorm"
)

// Caller is the authenticated principal a request acts for.
type Caller struct {
	UserID uint
	Role   models.UserRole
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("%s", msg)
	}
	return apperr.Internal(err, msg)
}

// passThrough keeps classified errors returned from inside a transaction and
// wraps anything else as internal.
func passThrough(err error, msg string) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e
	}
	return apperr.Internal(err, msg)
}
