package handlers

import (
	"net/http"

	"food-marketplace-api/middleware"
	"food-marketplace-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Register creates a new user account
func (h *Handler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}
	session, err := h.Users.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":    "Account created successfully",
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"user":       session.User,
	})
}

// Login authenticates and returns a JWT
func (h *Handler) Login(c *gin.Context) {
	var req service.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	session, err := h.Users.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"message":    "Login successful",
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"user":       session.User,
	})
}

// GetProfile returns the logged-in user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.Users.Me(c.Request.Context(), middleware.GetCaller(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"user": user})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req service.ProfileUpdate
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.Users.UpdateProfile(c.Request.Context(), middleware.GetCaller(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "Profile updated", "user": user})
}

// Logout revokes the presented token
func (h *Handler) Logout(c *gin.Context) {
	if err := h.Users.Logout(c.Request.Context(), middleware.GetToken(c)); err != nil {
		h.respondError(c, err)
		return
	}
	h.logger.Info("user logged out",
		zap.Uint("user_id", middleware.GetUserID(c)),
		zap.String("email", middleware.GetEmail(c)),
	)
	respondOK(c, gin.H{"message": "Logged out successfully"})
}
