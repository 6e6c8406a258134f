package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memberdir/admin_api/internal/models"
	"github.com/memberdir/admin_api/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier map[string]struct {
	account *models.AdminAccount
	err     error
}

func (s stubVerifier) Verify(_ context.Context, token string) (*models.AdminAccount, error) {
	r, ok := s[token]
	if !ok {
		return nil, utils.ErrInvalidToken
	}
	return r.account, r.err
}

var (
	admin      = &models.AdminAccount{AccountID: "a-1", Role: models.RoleAdmin}
	superAdmin = &models.AdminAccount{AccountID: "a-2", Role: models.RoleSuperAdmin}
)

func newRouter(limiter *InvalidAuthRateLimiter) *gin.Engine {
	verifier := stubVerifier{
		"admin":   {account: admin},
		"super":   {account: superAdmin},
		"expired": {err: utils.ErrTokenExpired},
		"orphan":  {err: utils.ErrAccountNotFound},
		"broken":  {err: errors.New("db down")},
	}
	r := gin.New()
	r.Use(LoggingMiddleware())
	authed := r.Group("/", NewJWTMiddleware(verifier, limiter).Handle())
	directory := authed.Group("/members", RequireScope(models.ScopeDirectory))
	directory.GET("", func(c *gin.Context) { utils.Success(c, 200, "ok", GetAccount(c).AccountID) })
	directory.POST("", func(c *gin.Context) { utils.Success(c, 201, "ok", nil) })
	authed.GET("/accounts", RequireScope(models.ScopeAccounts), func(c *gin.Context) { utils.Success(c, 200, "ok", nil) })
	r.GET("/unguarded", RequireScope(models.ScopeSelf), func(c *gin.Context) { utils.Success(c, 200, "ok", nil) })
	return r
}

func do(r http.Handler, method, path, token string) (*httptest.ResponseRecorder, utils.Response) {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp utils.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestJWTMiddleware(t *testing.T) {
	r := newRouter(nil)

	tests := []struct {
		name     string
		token    string
		header   string
		wantCode int
		wantErr  string
	}{
		{name: "missing header", wantCode: 401, wantErr: "UNAUTHORIZED"},
		{name: "wrong scheme", header: "Basic abc", wantCode: 401, wantErr: "UNAUTHORIZED"},
		{name: "invalid", token: "forged", wantCode: 401, wantErr: "INVALID_TOKEN"},
		{name: "expired", token: "expired", wantCode: 401, wantErr: "TOKEN_EXPIRED"},
		{name: "account gone", token: "orphan", wantCode: 401, wantErr: "ACCOUNT_NOT_FOUND"},
		{name: "store failure", token: "broken", wantCode: 500, wantErr: "INTERNAL_ERROR"},
		{name: "valid", token: "admin", wantCode: 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/members", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			} else if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			var resp utils.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			if tt.wantErr == "" {
				assert.True(t, resp.Success)
				assert.Equal(t, "a-1", resp.Data)
			} else {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.wantErr, resp.Error.Code)
			}
		})
	}
}

func TestRequireScope(t *testing.T) {
	r := newRouter(nil)

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		wantCode int
	}{
		{"admin reads directory", http.MethodGet, "/members", "admin", 200},
		{"admin writes directory", http.MethodPost, "/members", "admin", 403},
		{"superadmin writes directory", http.MethodPost, "/members", "super", 201},
		{"admin lists accounts", http.MethodGet, "/accounts", "admin", 403},
		{"superadmin lists accounts", http.MethodGet, "/accounts", "super", 200},
		{"no identity in context", http.MethodGet, "/unguarded", "", 401},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := do(r, tt.method, tt.path, tt.token)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == 403 {
				assert.Equal(t, "FORBIDDEN", resp.Error.Code)
			}
		})
	}
}

func TestJWTMiddlewareRateLimitsFailures(t *testing.T) {
	r := newRouter(NewInvalidAuthRateLimiter(2, time.Minute))

	for i := 0; i < 2; i++ {
		w, _ := do(r, http.MethodGet, "/members", "forged")
		assert.Equal(t, 401, w.Code)
	}
	w, resp := do(r, http.MethodGet, "/members", "forged")
	assert.Equal(t, 429, w.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", resp.Error.Code)

	w, _ = do(r, http.MethodGet, "/members", "admin")
	assert.Equal(t, 200, w.Code, "valid tokens are not limited")
}

func TestInvalidAuthRateLimiterWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewInvalidAuthRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))

	now = now.Add(time.Minute + time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestInvalidAuthRateLimiterExceeded(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewInvalidAuthRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.False(t, rl.Exceeded("10.0.0.1"))
	rl.Allow("10.0.0.1")
	assert.False(t, rl.Exceeded("10.0.0.1"))
	rl.Allow("10.0.0.1")
	assert.True(t, rl.Exceeded("10.0.0.1"))
	assert.True(t, rl.Exceeded("10.0.0.1"), "checking does not count as an attempt")
	assert.False(t, rl.Exceeded("10.0.0.2"))

	now = now.Add(time.Minute + time.Second)
	assert.False(t, rl.Exceeded("10.0.0.1"))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://admin.example.org", "http://localhost:3000"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(200) })

	tests := []struct {
		origin string
		want   string
	}{
		{"https://admin.example.org", "https://admin.example.org"},
		{"https://admin.example.org:443", "https://admin.example.org:443"},
		{"http://localhost:3000", "http://localhost:3000"},
		{"https://evil.example.com", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", tt.origin)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"), tt.origin)
	}

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://admin.example.org")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
