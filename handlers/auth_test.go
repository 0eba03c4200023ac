package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/terrenospy/terrenospy/internal/config"
)

func newAuthRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewAuthHandler(cfg).Register(r)
	return r
}

func authConfig() *config.Config {
	return &config.Config{
		Admin: config.AdminConfig{Username: "admin", Password: "s3cret"},
		JWT:   config.JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Hour},
	}
}

func postLogin(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestLoginSuccessAndMe(t *testing.T) {
	r := newAuthRouter(authConfig())

	w := postLogin(r, `{"username":"admin","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AccessToken string `json:"accessToken"`
		ExpiresIn   int    `json:"expiresIn"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, 3600, resp.ExpiresIn)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"username":"admin"`)
	require.Contains(t, w.Body.String(), `"role":"admin"`)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r := newAuthRouter(authConfig())

	for _, body := range []string{
		`{"username":"admin","password":"wrong"}`,
		`{"username":"intruder","password":"s3cret"}`,
	} {
		w := postLogin(r, body)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.JSONEq(t, `{"error": "credenciales inválidas"}`, w.Body.String())
	}
}

func TestLoginRejectsMissingFields(t *testing.T) {
	r := newAuthRouter(authConfig())
	w := postLogin(r, `{"username":"admin"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginUnconfigured(t *testing.T) {
	cfg := authConfig()
	cfg.Admin.Password = ""
	r := newAuthRouter(cfg)

	w := postLogin(r, `{"username":"admin","password":"anything"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMeRejectsBadTokens(t *testing.T) {
	r := newAuthRouter(authConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
