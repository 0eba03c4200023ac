package handlers

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/terrenospy/terrenospy/internal/config"
	"github.com/terrenospy/terrenospy/internal/tokens"
	"github.com/terrenospy/terrenospy/pkg/logger"
)

// LoginRequest carries the admin panel credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler gates the admin panel behind the configured credential pair.
// A successful login returns a short-lived HS256 access token.
type AuthHandler struct {
	cfg *config.Config
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// Register wires the auth routes.
func (h *AuthHandler) Register(r *gin.Engine) {
	r.POST("/api/auth/login", h.Login)
	r.GET("/api/me", h.Me)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.cfg.Admin.Password == "" || h.cfg.JWT.Secret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "admin login not configured"})
		return
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.cfg.Admin.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.Admin.Password)) == 1
	if !userOK || !passOK {
		logger.Warnf("failed admin login attempt for %q", req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "credenciales inválidas"})
		return
	}
	ttl := h.cfg.JWT.AccessTokenTTL
	access, err := tokens.GenerateAccessToken(h.cfg.JWT.Secret, h.cfg.Admin.Username, ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": access, "expiresIn": int(ttl.Seconds())})
}

// Me validates the Bearer token and returns the admin identity.
func (h *AuthHandler) Me(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
		return
	}
	var raw string
	if n, _ := fmt.Sscanf(auth, "Bearer %s", &raw); n != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
		return
	}
	claims, err := tokens.ParseAccessToken(h.cfg.JWT.Secret, raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": gin.H{"username": claims["sub"], "role": claims["role"]}})
}
