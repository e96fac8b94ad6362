package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/blues/fundchainx/internal/apperr"
	"github.com/blues/fundchainx/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthenticator map[string]*model.User

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (*model.User, error) {
	switch token {
	case "expired":
		return nil, apperr.ErrSessionExpired
	}
	user, ok := f[token]
	if !ok {
		return nil, apperr.ErrSessionInvalid
	}
	return user, nil
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user.Email})
	})
	r.GET("/", handlers...)
	return r
}

func do(r http.Handler, header string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestAuth(t *testing.T) {
	authn := fakeAuthenticator{
		"good":       {Email: "a@x.com", IsVerified: true},
		"unverified": {Email: "b@x.com"},
	}
	r := newEngine(Auth(authn, true))

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, "Authentication required"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Authentication required"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "Authentication token required"},
		{"invalid", "Bearer nope", http.StatusUnauthorized, "Invalid token"},
		{"expired", "Bearer expired", http.StatusUnauthorized, "Token expired"},
		{"unverified", "Bearer unverified", http.StatusForbidden, "Account not verified"},
		{"ok", "Bearer good", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := do(r, tt.header)
			require.Equal(t, tt.status, w.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, body["message"])
			} else {
				assert.Equal(t, "a@x.com", body["user"])
			}
		})
	}
}

func TestAuthAllowsUnverified(t *testing.T) {
	r := newEngine(Auth(fakeAuthenticator{"t": {Email: "b@x.com"}}, false))
	w, body := do(r, "Bearer t")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "b@x.com", body["user"])
}

func TestOptionalAuth(t *testing.T) {
	r := newEngine(OptionalAuth(fakeAuthenticator{"t": {Email: "b@x.com"}}))

	w, body := do(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, body["user"])

	w, body = do(r, "Bearer t")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "b@x.com", body["user"])

	w, _ = do(r, "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS("http://localhost:3000"))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/", BodyLimit(4), func(c *gin.Context) {
		var v map[string]any
		if err := c.ShouldBindJSON(&v); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"bcdefgh"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
