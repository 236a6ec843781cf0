package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nextstep-api/internal/middleware"
	"github.com/noah-isme/nextstep-api/internal/models"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
	"github.com/noah-isme/nextstep-api/pkg/response"
)

// headerAuth stands in for JWT in tests: X-Test-User and X-Test-Role become claims.
func headerAuth(c *gin.Context) {
	userID := c.GetHeader("X-Test-User")
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		c.Abort()
		return
	}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID: userID,
		Role:   models.UserRole(c.GetHeader("X-Test-Role")),
	})
	c.Next()
}

func buildRouter(scholarships *scholarshipServiceMock, uploads *uploadServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), headerAuth, Handlers{
		Auth:          NewAuthHandler(&authServiceMock{}),
		Users:         &UserHandler{},
		Profiles:      &ProfileHandler{},
		Applications:  &ApplicationHandler{},
		Mentorship:    &MentorshipHandler{},
		Scholarships:  NewScholarshipHandler(scholarships),
		Projects:      &ProjectHandler{},
		Expertise:     &ExpertiseHandler{},
		Research:      &ResearchHandler{},
		StudyMaterial: &StudyMaterialHandler{},
		Notifications: &NotificationHandler{},
		Uploads:       NewUploadHandler(uploads),
		Assistant:     &AssistantHandler{},
	})
	return router
}

func TestRoutesAuthenticationAndRoles(t *testing.T) {
	scholarships := &scholarshipServiceMock{}
	uploads := &uploadServiceMock{resolveErr: appErrors.Clone(appErrors.ErrNotFound, "file not found")}
	router := buildRouter(scholarships, uploads)

	applyBody := `{"personal_statement":"I have wanted to study engineering since I built my first radio kit."}`

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		user   string
		role   models.UserRole
		status int
	}{
		{name: "bearer required", method: http.MethodGet, path: "/api/v1/scholarships", status: http.StatusUnauthorized},
		{name: "listing open to any role", method: http.MethodGet, path: "/api/v1/scholarships", user: "s-1", role: models.RoleStudent, status: http.StatusOK},
		{name: "students cannot post scholarships", method: http.MethodPost, path: "/api/v1/scholarships", body: `{}`, user: "s-1", role: models.RoleStudent, status: http.StatusForbidden},
		{name: "alumni cannot apply", method: http.MethodPost, path: "/api/v1/scholarships/sch-1/apply", body: applyBody, user: "a-1", role: models.RoleAlumni, status: http.StatusForbidden},
		{name: "students apply", method: http.MethodPost, path: "/api/v1/scholarships/sch-1/apply", body: applyBody, user: "s-1", role: models.RoleStudent, status: http.StatusCreated},
		{name: "static segment wins over id", method: http.MethodGet, path: "/api/v1/scholarships/my-applications", user: "s-1", role: models.RoleStudent, status: http.StatusOK},
		{name: "deactivating someone else", method: http.MethodDelete, path: "/api/v1/users/other", user: "s-1", role: models.RoleStudent, status: http.StatusForbidden},
		{name: "signed download needs no session", method: http.MethodGet, path: "/api/v1/uploads/download?token=x", status: http.StatusNotFound},
		{name: "projects post is student only", method: http.MethodPost, path: "/api/v1/projects", body: `{}`, user: "a-1", role: models.RoleAlumni, status: http.StatusForbidden},
		{name: "approval is alumni only", method: http.MethodPut, path: "/api/v1/study-materials/m-1/approve", user: "s-1", role: models.RoleStudent, status: http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			if tc.user != "" {
				req.Header.Set("X-Test-User", tc.user)
				req.Header.Set("X-Test-Role", string(tc.role))
			}
			resp := performRequest(router, req)
			require.Equal(t, tc.status, resp.Code, resp.Body.String())
		})
	}

	require.Equal(t, "sch-1", scholarships.lastID)
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
