package middleware

import (
	"academic_backend/internal/config"
	"academic_backend/internal/model"
	"academic_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newRouter(perm model.Permission) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}
	r := gin.New()
	r.GET("/guarded", AuthMiddleware(cfg), RequirePermission(perm), func(c *gin.Context) {
		caller, _ := util.CallerFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": caller.ID, "role": caller.Role})
	})
	return r
}

func tokenFor(t *testing.T, id uint, role model.UserRole) string {
	t.Helper()
	user := &model.User{Email: "u@example.com", Role: role}
	user.ID = id
	tok, err := util.GenerateJWT(user, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(model.PermTakeExam)

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing token", "", "", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", "", http.StatusUnauthorized},
		{"student header", "Bearer " + tokenFor(t, 7, model.Student), "", http.StatusOK},
		{"student query token", "", tokenFor(t, 7, model.Student), http.StatusOK},
		{"teacher lacks permission", "Bearer " + tokenFor(t, 8, model.Teacher), "", http.StatusForbidden},
		{"unknown role", "Bearer " + tokenFor(t, 9, model.UserRole("janitor")), "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := "/guarded"
			if tt.query != "" {
				url += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequirePermissionAdminManagesUsers(t *testing.T) {
	r := newRouter(model.PermManageUsers)

	for role, want := range map[model.UserRole]int{
		model.Admin:          http.StatusOK,
		model.Teacher:        http.StatusForbidden,
		model.DepartmentHead: http.StatusForbidden,
		model.Student:        http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, 1, role))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, role)
	}
}
