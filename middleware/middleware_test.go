package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"food-marketplace-api/auth"
	"food-marketplace-api/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memDenylist map[string]time.Time

func (m memDenylist) Add(_ context.Context, token string, expiresAt time.Time) error {
	m[token] = expiresAt
	return nil
}

func (m memDenylist) Contains(_ context.Context, token string) (bool, error) {
	_, ok := m[token]
	return ok, nil
}

func newRouter(tokens *auth.TokenService) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthRequired(tokens), func(c *gin.Context) {
		caller := GetCaller(c)
		c.JSON(http.StatusOK, gin.H{"user_id": caller.UserID, "email": GetEmail(c), "role": caller.Role, "token": GetToken(c)})
	})
	r.GET("/riders", AuthRequired(tokens), RoleRequired(models.RoleRider, models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	tokens := auth.NewTokenService("secret", time.Hour, memDenylist{})
	r := newRouter(tokens)

	token, _, err := tokens.Generate(&models.User{ID: 7, Email: "rita@example.com", Role: models.RoleRider})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	w := do(r, "/me", token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		UserID uint   `json:"user_id"`
		Email  string `json:"email"`
		Role   string `json:"role"`
		Token  string `json:"token"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.UserID != 7 || body.Email != "rita@example.com" || body.Role != "rider" || body.Token != token {
		t.Errorf("unexpected caller %+v", body)
	}

	if w := do(r, "/me", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("missing header: expected 401, got %d", w.Code)
	}
	if w := do(r, "/me", "garbage"); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", w.Code)
	}

	if err := tokens.Revoke(context.Background(), token); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	w = do(r, "/me", token)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token: expected 401, got %d", w.Code)
	}
	var errBody map[string]string
	json.Unmarshal(w.Body.Bytes(), &errBody)
	if errBody["kind"] != "unauthorized" {
		t.Errorf("expected unauthorized kind, got %q", errBody["kind"])
	}
}

func TestRoleRequired(t *testing.T) {
	tokens := auth.NewTokenService("secret", time.Hour, memDenylist{})
	r := newRouter(tokens)

	tests := []struct {
		role models.UserRole
		want int
	}{
		{models.RoleRider, http.StatusNoContent},
		{models.RoleAdmin, http.StatusNoContent},
		{models.RoleUser, http.StatusForbidden},
		{models.RoleOwner, http.StatusForbidden},
	}
	for _, tt := range tests {
		token, _, err := tokens.Generate(&models.User{ID: 1, Role: tt.role})
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if w := do(r, "/riders", token); w.Code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.role, tt.want, w.Code)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)), CORS())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := do(r, "/ping?x=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id header")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header")
	}

	entries := logs.FilterMessage("HTTP request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/ping" || fields["query"] != "x=1" || fields["status"] != int64(http.StatusOK) {
		t.Errorf("unexpected log fields %v", fields)
	}

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	pre := httptest.NewRecorder()
	r.ServeHTTP(pre, req)
	if pre.Code != http.StatusNoContent {
		t.Errorf("preflight: expected 204, got %d", pre.Code)
	}
}
