package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Handler exchanges the shared client key for a short-lived token.
// KeyHash is a bcrypt hash of that key; an empty hash disables the endpoint.
type Handler struct {
	KeyHash []byte
	Tokens  TokenService
}

func NewHandler(keyHash string, tokens TokenService) *Handler {
	return &Handler{KeyHash: []byte(keyHash), Tokens: tokens}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/token", h.token)
}

type tokenReq struct {
	ClientID string `json:"client_id"`
	Key      string `json:"key"`
}

func (h *Handler) token(c *gin.Context) {
	if len(h.KeyHash) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "token issuing disabled"})
		return
	}

	var req tokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.ClientID = strings.TrimSpace(req.ClientID)
	if req.ClientID == "" || req.Key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "client_id and key required"})
		return
	}

	if err := bcrypt.CompareHashAndPassword(h.KeyHash, []byte(req.Key)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, exp, err := h.Tokens.Sign(req.ClientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}
