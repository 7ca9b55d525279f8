package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"food-marketplace-api/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDenylist keeps revoked tokens in the revoked_tokens table.
type GormDenylist struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormDenylist(db *gorm.DB) *GormDenylist {
	return &GormDenylist{db: db, now: time.Now}
}

// Add stores the token and drops entries that have already expired.
func (d *GormDenylist) Add(ctx context.Context, token string, expiresAt time.Time) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expires_at < ?", d.now()).Delete(&models.RevokedToken{}).Error; err != nil {
			return fmt.Errorf("purge expired tokens: %w", err)
		}
		entry := models.RevokedToken{Token: token, ExpiresAt: expiresAt}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error; err != nil {
			return fmt.Errorf("insert revoked token: %w", err)
		}
		return nil
	})
}

func (d *GormDenylist) Contains(ctx context.Context, token string) (bool, error) {
	var entry models.RevokedToken
	err := d.db.WithContext(ctx).Where("token = ?", token).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query revoked token: %w", err)
	}
	return true, nil
}

const revokedKeyPrefix = "revoked:"

// CachedDenylist fronts a durable denylist with Redis keys that expire
// together with the token.
type CachedDenylist struct {
	store  Denylist
	client *redis.Client
	now    func() time.Time
}

func NewCachedDenylist(store Denylist, client *redis.Client) *CachedDenylist {
	return &CachedDenylist{store: store, client: client, now: time.Now}
}

func (d *CachedDenylist) Add(ctx context.Context, token string, expiresAt time.Time) error {
	if err := d.store.Add(ctx, token, expiresAt); err != nil {
		return err
	}
	ttl := expiresAt.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, revokedKeyPrefix+token, 1, ttl).Err()
}

// Contains answers from Redis when the key is present and falls back to the
// store on a miss or a Redis failure.
func (d *CachedDenylist) Contains(ctx context.Context, token string) (bool, error) {
	n, err := d.client.Exists(ctx, revokedKeyPrefix+token).Result()
	if err == nil && n > 0 {
		return true, nil
	}
	return d.store.Contains(ctx, token)
}
