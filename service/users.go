package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"food-marketplace-api/apperr"
	"food-marketplace-api/auth"
	"food-marketplace-api/config"
	"food-marketplace-api/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type UserService struct {
	db     *gorm.DB
	tokens *auth.TokenService
	logger *zap.Logger
}

func NewUserService(db *gorm.DB, tokens *auth.TokenService, logger *zap.Logger) *UserService {
	return &UserService{db: db, tokens: tokens, logger: logger}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone" binding:"required"`
	Address  string `json:"address"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ProfileUpdate carries only the fields the caller wants to change.
type ProfileUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Password *string `json:"password" binding:"omitempty,min=6"`
}

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user, rider or owner account and signs the caller in.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	role := models.RoleUser
	if req.Role != "" {
		r, ok := models.ParseRole(req.Role)
		if !ok || !r.SelfRegistrable() {
			return nil, apperr.Validation("invalid role %q. Must be one of: user, rider, owner", req.Role)
		}
		role = r
	}

	name := strings.TrimSpace(req.Name)
	email := normaliseEmail(req.Email)
	phone := strings.TrimSpace(req.Phone)
	if name == "" || email == "" || phone == "" {
		return nil, apperr.Validation("name, email, password, and phone are required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperr.Internal(err, "failed to check email")
	}
	if count > 0 {
		return nil, apperr.Conflict("email already registered")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal(err, "failed to hash password")
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Phone:        phone,
		Address:      strings.TrimSpace(req.Address),
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, apperr.Internal(err, "failed to create user")
	}

	return s.session(&user)
}

func (s *UserService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normaliseEmail(req.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load user")
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, apperr.Internal(err, "failed to verify password")
	}
	if !ok {
		return nil, apperr.Unauthorized("invalid email or password")
	}

	return s.session(&user)
}

func (s *UserService) session(user *models.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Generate(user)
	if err != nil {
		return nil, apperr.Internal(err, "failed to generate token")
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *UserService) Me(ctx context.Context, caller Caller) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, caller.UserID).Error; err != nil {
		return nil, notFoundOr(err, "user not found")
	}
	return &user, nil
}

// UpdateProfile changes the caller's own account. The role is never editable.
func (s *UserService) UpdateProfile(ctx context.Context, caller Caller, req ProfileUpdate) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, caller.UserID).Error; err != nil {
			return notFoundOr(err, "user not found")
		}

		updates := map[string]any{}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return apperr.Validation("name cannot be empty")
			}
			updates["name"] = name
		}
		if req.Email != nil {
			email := normaliseEmail(*req.Email)
			if email == "" {
				return apperr.Validation("email cannot be empty")
			}
			if email != user.Email {
				var count int64
				if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&count).Error; err != nil {
					return fmt.Errorf("check email: %w", err)
				}
				if count > 0 {
					return apperr.Conflict("email already registered")
				}
			}
			updates["email"] = email
		}
		if req.Phone != nil {
			updates["phone"] = strings.TrimSpace(*req.Phone)
		}
		if req.Address != nil {
			updates["address"] = strings.TrimSpace(*req.Address)
		}
		if req.Password != nil {
			if len(*req.Password) < minPasswordLength {
				return apperr.Validation("password must be at least %d characters", minPasswordLength)
			}
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			updates["password_hash"] = hash
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("email already registered")
			}
			return fmt.Errorf("update user: %w", err)
		}
		return tx.First(&user, user.ID).Error
	})
	if err != nil {
		return nil, passThrough(err, "failed to update profile")
	}
	return &user, nil
}

// Logout denylists the presented token until it would have expired.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return apperr.Unauthorized("invalid or expired token")
		}
		return apperr.Internal(err, "failed to revoke token")
	}
	return nil
}

// ListUsers is admin only. role filters when non-empty.
func (s *UserService) ListUsers(ctx context.Context, caller Caller, role string) ([]models.User, error) {
	if caller.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("admin access required")
	}

	query := s.db.WithContext(ctx).Order("id asc")
	if role != "" {
		r, ok := models.ParseRole(role)
		if !ok {
			return nil, apperr.Validation("invalid role %q", role)
		}
		query = query.Where("role = ?", r)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, apperr.Internal(err, "failed to fetch users")
	}
	return users, nil
}

// SeedAdmin creates the configured admin account if it does not exist yet.
func (s *UserService) SeedAdmin(ctx context.Context, cfg config.AdminConfig) error {
	email := normaliseEmail(cfg.Email)
	if email == "" {
		return nil
	}
	if len(cfg.Password) < minPasswordLength {
		return fmt.Errorf("admin password must be at least %d characters", minPasswordLength)
	}

	db := s.db.WithContext(ctx)
	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		if existing.Role != models.RoleAdmin {
			s.logger.Warn("admin seed email belongs to a non-admin account", zap.String("email", email))
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("load admin: %w", err)
	}

	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "Administrator"
	}
	admin := models.User{Name: name, Email: email, PasswordHash: hash, Role: models.RoleAdmin}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("seeded admin account", zap.String("email", email))
	return nil
}
