package middleware

import (
	"errors"
	"net/http"
	"strings"

	"food-marketplace-api/apperr"
	"food-marketplace-api/auth"
	"food-marketplace-api/models"
	"food-marketplace-api/service"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "userID"
	ctxEmail  = "email"
	ctxRole   = "role"
	ctxToken  = "token"
)

func abort(c *gin.Context, err *apperr.Error) {
	c.AbortWithStatusJSON(err.Kind.HTTPStatus(), gin.H{"error": err.Message, "kind": err.Kind})
}

// AuthRequired validates the bearer token and injects the caller into context
func AuthRequired(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abort(c, apperr.Unauthorized("authorization header required (Bearer <token>)"))
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := tokens.Verify(c.Request.Context(), tokenStr)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrRevokedToken):
			abort(c, apperr.Unauthorized("token has been revoked"))
			return
		case errors.Is(err, auth.ErrInvalidToken):
			abort(c, apperr.Unauthorized("invalid or expired token"))
			return
		default:
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "internal server error",
				"kind":  apperr.KindInternal,
			})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxToken, tokenStr)
		c.Next()
	}
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		callerRole, ok := c.Get(ctxRole)
		if !ok {
			abort(c, apperr.Forbidden("role not found in context"))
			return
		}
		for _, r := range roles {
			if callerRole == r {
				c.Next()
				return
			}
		}
		abort(c, apperr.Forbidden("access denied. Required role(s): %s", rolesString(roles)))
	}
}

func rolesString(roles []models.UserRole) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

// GetUserID extracts caller user ID from context
func GetUserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}

// GetEmail extracts caller email from context
func GetEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

// GetRole extracts caller role from context
func GetRole(c *gin.Context) models.UserRole {
	val, _ := c.Get(ctxRole)
	role, _ := val.(models.UserRole)
	return role
}

// GetToken returns the raw bearer token of the current request.
func GetToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}

func GetCaller(c *gin.Context) service.Caller {
	return service.Caller{UserID: GetUserID(c), Role: GetRole(c)}
}
