package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nextstep-api/internal/models"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
)

type staticValidator struct {
	claims *models.JWTClaims
	seen   string
}

func (v *staticValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	v.seen = token
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

func TestJWT(t *testing.T) {
	gin.SetMode(gin.TestMode)
	validator := &staticValidator{claims: &models.JWTClaims{UserID: "u-1", Role: models.RoleAlumni}}

	router := gin.New()
	router.GET("/", JWT(validator), func(c *gin.Context) {
		claims, _ := c.Get(ContextUserKey)
		c.String(http.StatusOK, claims.(*models.JWTClaims).UserID)
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", status: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", status: http.StatusUnauthorized},
		{name: "rejected token", header: "Bearer bad", status: http.StatusUnauthorized},
		{name: "accepted", header: "bearer good", status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			require.Equal(t, tc.status, w.Code)
		})
	}

	// Query-string tokens are never consulted.
	req := httptest.NewRequest(http.MethodGet, "/?token=good", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRBAC(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(claims *models.JWTClaims, guard gin.HandlerFunc) *gin.Engine {
		router := gin.New()
		router.Use(func(c *gin.Context) {
			if claims != nil {
				c.Set(ContextUserKey, claims)
			}
			c.Next()
		})
		router.DELETE("/users/:id", guard, func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return router
	}

	cases := []struct {
		name   string
		claims *models.JWTClaims
		guard  gin.HandlerFunc
		path   string
		status int
	}{
		{name: "no claims", guard: RequireRoles(models.RoleAlumni), path: "/users/u-1", status: http.StatusUnauthorized},
		{name: "role matches", claims: &models.JWTClaims{UserID: "u-1", Role: models.RoleAlumni}, guard: RequireRoles(models.RoleAlumni), path: "/users/u-2", status: http.StatusNoContent},
		{name: "role differs", claims: &models.JWTClaims{UserID: "u-1", Role: models.RoleStudent}, guard: RequireRoles(models.RoleAlumni), path: "/users/u-2", status: http.StatusForbidden},
		{name: "self", claims: &models.JWTClaims{UserID: "u-1", Role: models.RoleStudent}, guard: RBAC(SelfRule), path: "/users/u-1", status: http.StatusNoContent},
		{name: "not self", claims: &models.JWTClaims{UserID: "u-1", Role: models.RoleStudent}, guard: RBAC(SelfRule), path: "/users/u-2", status: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newRouter(tc.claims, tc.guard).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, tc.path, nil))
			require.Equal(t, tc.status, w.Code)
		})
	}
}
