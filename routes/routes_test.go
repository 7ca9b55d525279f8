package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"food-marketplace-api/audit"
	"food-marketplace-api/auth"
	"food-marketplace-api/handlers"
	"food-marketplace-api/models"
	"food-marketplace-api/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := zap.NewNop()
	tokens := auth.NewTokenService("test-secret", time.Hour, auth.NewGormDenylist(db))
	auditLog := audit.NewZapLog(log)
	h := handlers.New(db, handlers.Services{
		Users:       service.NewUserService(db, tokens, log),
		Restaurants: service.NewRestaurantService(db, auditLog, log),
		Menu:        service.NewMenuService(db),
		Orders:      service.NewOrderService(db, auditLog, log),
		Reviews:     service.NewReviewService(db),
	}, log)

	r := gin.New()
	SetupRoutes(r, h, tokens)
	return r
}

type response struct {
	code int
	body map[string]any
}

func call(t *testing.T, r http.Handler, method, path, token string, payload any) response {
	t.Helper()
	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	res := response{code: w.Code, body: map[string]any{}}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &res.body); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return res
}

func expect(t *testing.T, res response, code int, what string) {
	t.Helper()
	if res.code != code {
		t.Fatalf("%s: expected %d, got %d: %v", what, code, res.code, res.body)
	}
}

func register(t *testing.T, r http.Handler, name, role string) (string, uint) {
	t.Helper()
	res := call(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     name,
		"email":    name + "@example.com",
		"password": "secret123",
		"phone":    "555-0100",
		"role":     role,
	})
	expect(t, res, http.StatusCreated, "register "+name)
	user := res.body["user"].(map[string]any)
	return res.body["token"].(string), uint(user["id"].(float64))
}

func TestMarketplaceFlow(t *testing.T) {
	r := newTestServer(t)

	ownerToken, _ := register(t, r, "olga", "owner")
	customerToken, _ := register(t, r, "cathy", "")
	riderA, _ := register(t, r, "rita", "rider")
	riderB, _ := register(t, r, "rob", "rider")

	res := call(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "olga", "email": "OLGA@example.com", "password": "secret123", "phone": "1",
	})
	expect(t, res, http.StatusConflict, "duplicate email")
	if res.body["kind"] != "conflict" {
		t.Errorf("expected conflict kind, got %v", res.body["kind"])
	}

	res = call(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "eve", "email": "eve@example.com", "password": "secret123", "phone": "1", "role": "admin",
	})
	expect(t, res, http.StatusBadRequest, "admin self-registration")

	res = call(t, r, http.MethodPost, "/api/auth/register", "", gin.H{"name": "x", "email": "not-an-email"})
	expect(t, res, http.StatusBadRequest, "binding validation")
	if res.body["kind"] != "validation_error" {
		t.Errorf("expected validation_error kind, got %v", res.body["kind"])
	}

	// Catalog
	restaurantReq := gin.H{"name": "Burger Barn", "address": "1 Main St", "phone": "555-0199", "cuisine": "American"}
	expect(t, call(t, r, http.MethodPost, "/api/restaurants", customerToken, restaurantReq), http.StatusForbidden, "customer creates restaurant")
	res = call(t, r, http.MethodPost, "/api/restaurants", ownerToken, restaurantReq)
	expect(t, res, http.StatusCreated, "owner creates restaurant")
	restaurantID := uint(res.body["restaurant"].(map[string]any)["id"].(float64))
	menuPath := fmt.Sprintf("/api/restaurants/%d/menu-items", restaurantID)

	expect(t, call(t, r, http.MethodPost, menuPath, ownerToken, gin.H{"name": "Bad", "price": -1}), http.StatusBadRequest, "negative price")
	res = call(t, r, http.MethodPost, menuPath, ownerToken, gin.H{"name": "Burger", "price": 10})
	expect(t, res, http.StatusCreated, "add burger")
	burgerID := res.body["item"].(map[string]any)["id"].(float64)
	res = call(t, r, http.MethodPost, menuPath, ownerToken, gin.H{"name": "Fries", "price": "15.00"})
	expect(t, res, http.StatusCreated, "add fries")
	friesID := res.body["item"].(map[string]any)["id"].(float64)

	res = call(t, r, http.MethodGet, menuPath, "", nil)
	expect(t, res, http.StatusOK, "public menu")
	if res.body["count"].(float64) != 2 {
		t.Errorf("expected 2 menu items, got %v", res.body["count"])
	}

	res = call(t, r, http.MethodGet, "/api/restaurants/mine", ownerToken, nil)
	expect(t, res, http.StatusOK, "my restaurant")

	// Ordering
	expect(t, call(t, r, http.MethodPost, "/api/orders", riderA, gin.H{}), http.StatusForbidden, "rider places order")
	res = call(t, r, http.MethodPost, "/api/orders", customerToken, gin.H{
		"restaurant_id":    restaurantID,
		"delivery_address": "42 Elm St",
		"items": []gin.H{
			{"menu_item_id": burgerID, "quantity": 2},
			{"menu_item_id": friesID, "quantity": 1},
		},
	})
	expect(t, res, http.StatusCreated, "place order")
	if res.body["total"].(float64) != 35 {
		t.Errorf("expected total 35, got %v", res.body["total"])
	}
	orderID := uint(res.body["order_id"].(float64))
	orderPath := fmt.Sprintf("/api/orders/%d", orderID)

	res = call(t, r, http.MethodGet, "/api/orders/pending", riderA, nil)
	expect(t, res, http.StatusOK, "pending orders")
	if res.body["count"].(float64) != 1 {
		t.Errorf("expected one pending order, got %v", res.body["count"])
	}
	expect(t, call(t, r, http.MethodGet, "/api/orders/pending", customerToken, nil), http.StatusForbidden, "customer lists pending")

	expect(t, call(t, r, http.MethodPost, orderPath+"/claim", riderA, nil), http.StatusOK, "first claim")
	res = call(t, r, http.MethodPost, orderPath+"/claim", riderB, nil)
	expect(t, res, http.StatusBadRequest, "second claim")
	if res.body["kind"] != "invalid_state" {
		t.Errorf("expected invalid_state kind, got %v", res.body["kind"])
	}

	expect(t, call(t, r, http.MethodPut, orderPath+"/status", ownerToken, gin.H{"status": "Shipped"}), http.StatusBadRequest, "unknown status")
	expect(t, call(t, r, http.MethodPut, orderPath+"/status", riderA, gin.H{"status": "Ready"}), http.StatusForbidden, "rider sets status")
	expect(t, call(t, r, http.MethodPut, orderPath+"/status", ownerToken, gin.H{"status": "Ready"}), http.StatusOK, "owner sets Ready")

	expect(t, call(t, r, http.MethodPost, orderPath+"/deliver", riderB, nil), http.StatusForbidden, "other rider delivers")
	res = call(t, r, http.MethodPost, orderPath+"/deliver", riderA, nil)
	expect(t, res, http.StatusOK, "deliver")
	if res.body["order"].(map[string]any)["status"] != "Completed" {
		t.Errorf("expected Completed, got %v", res.body["order"])
	}

	res = call(t, r, http.MethodGet, orderPath, customerToken, nil)
	expect(t, res, http.StatusOK, "order detail")
	history := res.body["order"].(map[string]any)["status_history"].([]any)
	if len(history) != 4 {
		t.Errorf("expected 4 history rows, got %d", len(history))
	}

	res = call(t, r, http.MethodGet, "/api/orders/restaurant-orders?status=Completed", ownerToken, nil)
	expect(t, res, http.StatusOK, "restaurant orders")
	if res.body["count"].(float64) != 1 || res.body["total_revenue"].(float64) != 35 {
		t.Errorf("unexpected dashboard %v / %v", res.body["count"], res.body["total_revenue"])
	}

	// Reviews
	reviewReq := gin.H{"restaurant_id": restaurantID, "rating": 5, "comment": "Great"}
	expect(t, call(t, r, http.MethodPost, "/api/reviews", customerToken, reviewReq), http.StatusCreated, "review")
	expect(t, call(t, r, http.MethodPost, "/api/reviews", customerToken, reviewReq), http.StatusConflict, "second review")
	res = call(t, r, http.MethodGet, fmt.Sprintf("/api/reviews/%d", restaurantID), "", nil)
	expect(t, res, http.StatusOK, "list reviews")
	if res.body["count"].(float64) != 1 {
		t.Errorf("expected one review, got %v", res.body["count"])
	}

	// Session
	expect(t, call(t, r, http.MethodGet, "/api/auth/me", customerToken, nil), http.StatusOK, "me")
	expect(t, call(t, r, http.MethodPost, "/api/auth/logout", customerToken, nil), http.StatusOK, "logout")
	expect(t, call(t, r, http.MethodGet, "/api/auth/me", customerToken, nil), http.StatusUnauthorized, "me after logout")
}

func TestRouteGuards(t *testing.T) {
	r := newTestServer(t)
	customerToken, _ := register(t, r, "cathy", "user")

	expect(t, call(t, r, http.MethodGet, "/api/orders/my-orders", "", nil), http.StatusUnauthorized, "no token")
	expect(t, call(t, r, http.MethodGet, "/api/orders/my-orders", customerToken, nil), http.StatusOK, "my orders")
	expect(t, call(t, r, http.MethodGet, "/api/orders/abc", customerToken, nil), http.StatusBadRequest, "bad id")
	expect(t, call(t, r, http.MethodGet, "/api/orders/99", customerToken, nil), http.StatusNotFound, "missing order")
	expect(t, call(t, r, http.MethodGet, "/api/admin/users", customerToken, nil), http.StatusForbidden, "admin list")
	expect(t, call(t, r, http.MethodGet, "/api/admin/orders/1/audit", customerToken, nil), http.StatusForbidden, "order audit")
	expect(t, call(t, r, http.MethodDelete, "/api/restaurants/1", customerToken, nil), http.StatusForbidden, "delete restaurant")
	expect(t, call(t, r, http.MethodGet, "/api/restaurants/99", "", nil), http.StatusNotFound, "missing restaurant")
	expect(t, call(t, r, http.MethodGet, "/api/restaurants?sort=bogus", "", nil), http.StatusBadRequest, "bad sort")

	res := call(t, r, http.MethodGet, "/health", "", nil)
	expect(t, res, http.StatusOK, "health")
	if res.body["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", res.body["status"])
	}

	res = call(t, r, http.MethodGet, "/api/state-machine", "", nil)
	expect(t, res, http.StatusOK, "state machine")
	if len(res.body["state_machine"].([]any)) == 0 {
		t.Error("expected lifecycle edges")
	}
}
