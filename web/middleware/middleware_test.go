package middleware

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todopanel/todo-panel/config"
	"github.com/todopanel/todo-panel/database"
	"github.com/todopanel/todo-panel/database/model"
	"github.com/todopanel/todo-panel/util/common"
	"github.com/todopanel/todo-panel/web/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuth(t *testing.T) (*service.AuthService, func(role model.Role) (*model.User, string)) {
	t.Helper()
	db, err := database.InitDB(&config.DatabaseConfig{
		Type:   config.DatabaseTypeSQLite,
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	}, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB(db) })

	auth := service.NewAuthService(db, service.NewUserService(db), "middleware-test-secret")
	n := 0
	add := func(role model.Role) (*model.User, string) {
		n++
		u := &model.User{
			Email:        string(role) + string(rune('a'+n)) + "@example.com",
			Username:     string(role) + string(rune('a'+n)),
			PasswordHash: "x",
			Role:         role,
		}
		require.NoError(t, db.Create(u).Error)
		token, err := auth.IssueToken(u)
		require.NoError(t, err)
		return u, token
	}
	return auth, add
}

func serve(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	auth, add := newAuth(t)
	user, token := add(model.RoleUser)

	r := gin.New()
	r.GET("/", AuthRequired(auth), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Username)
	})

	w := serve(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user.Username, w.Body.String())

	cases := map[string]struct {
		header  string
		message string
	}{
		"missing":   {"", "Authentication required"},
		"no scheme": {token, "Invalid token"},
		"basic":     {"Basic " + token, "Invalid token"},
		"garbage":   {"Bearer nope", "Invalid token"},
	}
	for name, tc := range cases {
		w := serve(r, tc.header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
		assert.JSONEq(t, `{"message":"`+tc.message+`"}`, w.Body.String(), name)
	}
}

func TestRequireRole(t *testing.T) {
	auth, add := newAuth(t)
	_, userToken := add(model.RoleUser)
	_, adminToken := add(model.RoleAdmin)

	r := gin.New()
	r.GET("/", AuthRequired(auth), RequireRole(model.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, serve(r, "Bearer "+adminToken).Code)

	w := serve(r, "Bearer "+userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"message":"Access denied. Admin role required"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
}

func TestAbortWithError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		body   string
	}{
		{common.NewNotFoundError("Todo not found"), 404, `{"message":"Todo not found"}`},
		{common.NewConflictError("Email already registered"), 400, `{"message":"Email already registered"}`},
		{common.NewSelfModificationError("Cannot change your own role"), 400, `{"message":"Cannot change your own role"}`},
		{
			common.NewValidationError(common.FieldError{Field: "title", Message: "Title is required"}),
			400, `{"errors":[{"field":"title","message":"Title is required"}]}`,
		},
		{common.NewValidationMessage("Invalid role specified"), 400, `{"message":"Invalid role specified"}`},
		{common.NewInternalError(assert.AnError), 500, `{"message":"Internal server error"}`},
		{assert.AnError, 500, `{"message":"Internal server error"}`},
	}
	for _, tc := range cases {
		r := gin.New()
		r.GET("/", func(c *gin.Context) { AbortWithError(c, tc.err) })
		w := serve(r, "")
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.JSONEq(t, tc.body, w.Body.String())
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := serve(r, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, w.Body.String())
}

func TestRequestContext(t *testing.T) {
	var seen service.RequestInfo
	r := gin.New()
	r.Use(RequestContext())
	r.GET("/", func(c *gin.Context) {
		seen = service.RequestInfoFrom(c.Request.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "probe/1.0")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "probe/1.0", seen.UserAgent)
	assert.NotEmpty(t, seen.IP)
	assert.Len(t, seen.RequestID, 36)
	assert.Equal(t, seen.RequestID, w.Header().Get(RequestIDHeader))
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 60, BurstSize: 2})
	defer l.Stop()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"))

	now = now.Add(10 * time.Minute)
	l.forgetIdle()
	assert.Empty(t, l.clients)
}

func TestRateLimiterMiddleware(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 1, BurstSize: 1})
	defer l.Stop()

	r := gin.New()
	r.GET("/", l.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, "").Code)
	w := serve(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	disabled := NewRateLimiter(RateLimitConfig{})
	defer disabled.Stop()
	for range 5 {
		assert.True(t, disabled.Allow("x"))
	}
}
