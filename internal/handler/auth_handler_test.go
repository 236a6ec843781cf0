package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nextstep-api/internal/models"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
)

type authServiceMock struct {
	registerResp *models.AuthResponse
	registerErr  error
	loginErr     error
	verifyResp   *models.VerifyResponse
	lastRegister models.RegisterRequest
	lastToken    string
}

func (m *authServiceMock) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	m.lastRegister = req
	return m.registerResp, m.registerErr
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	return nil, m.loginErr
}

func (m *authServiceMock) Verify(ctx context.Context, token string) (*models.VerifyResponse, error) {
	m.lastToken = token
	return m.verifyResp, nil
}

func TestAuthHandlerRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &authServiceMock{registerResp: &models.AuthResponse{AccessToken: "signed", TokenType: "Bearer"}}
	handler := NewAuthHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"username":"rina","email":"rina@example.com","password":"secret123","full_name":"Rina","role":"alumni"}`
	req, _ := http.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Register(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "rina", mockSvc.lastRegister.Username)
	assert.Equal(t, models.RoleAlumni, mockSvc.lastRegister.Role)
	assert.Contains(t, w.Body.String(), `"signed"`)
}

func TestAuthHandlerRegisterMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&authServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(`{"username":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Register(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var payload map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, appErrors.ErrValidation.Code, payload["error"]["code"])
}

func TestAuthHandlerLoginFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&authServiceMock{loginErr: appErrors.ErrInvalidCredentials})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"rina","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Login(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrInvalidCredentials.Code)
}

func TestAuthHandlerVerify(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("missing bearer", func(t *testing.T) {
		handler := NewAuthHandler(&authServiceMock{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/auth/verify", nil)

		handler.Verify(c)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token forwarded", func(t *testing.T) {
		mockSvc := &authServiceMock{verifyResp: &models.VerifyResponse{Valid: true}}
		handler := NewAuthHandler(mockSvc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/auth/verify", nil)
		c.Request.Header.Set("Authorization", "Bearer abc.def.ghi")

		handler.Verify(c)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "abc.def.ghi", mockSvc.lastToken)
	})
}
