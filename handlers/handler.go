// Package handlers exposes the marketplace services over HTTP.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"food-marketplace-api/apperr"
	"food-marketplace-api/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	// Report validation failures by JSON field name.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	}
}

type Services struct {
	Users       *service.UserService
	Restaurants *service.RestaurantService
	Menu        *service.MenuService
	Orders      *service.OrderService
	Reviews     *service.ReviewService
}

type Handler struct {
	Services
	db     *gorm.DB
	logger *zap.Logger
}

func New(db *gorm.DB, services Services, logger *zap.Logger) *Handler {
	return &Handler{Services: services, db: db, logger: logger}
}

// respondError renders err as {"error", "kind"}. Internal causes are logged,
// never echoed.
func (h *Handler) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err))
		_ = c.Error(err)
	}
	c.JSON(kind.HTTPStatus(), gin.H{"error": apperr.MessageOf(err), "kind": kind})
}

func (h *Handler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.respondError(c, bindingError(err))
		return false
	}
	return true
}

func (h *Handler) bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		h.respondError(c, bindingError(err))
		return false
	}
	return true
}

func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			msgs[i] = fieldMessage(fe)
		}
		return apperr.Validation("%s", strings.Join(msgs, "; "))
	}
	return apperr.Validation("invalid request body: %v", err)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "latitude", "longitude":
		return fmt.Sprintf("%s must be a valid %s", fe.Field(), fe.Tag())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// paramID parses a positive numeric path parameter.
func (h *Handler) paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		h.respondError(c, apperr.Validation("invalid %s", strings.ReplaceAll(name, "_", " ")))
		return 0, false
	}
	return uint(id), true
}

func respondOK(c *gin.Context, body gin.H) {
	c.JSON(http.StatusOK, body)
}
