package handlers

import (
	"crypto/subtle"
	"net/http"

	"council/internal/auth"

	"github.com/gin-gonic/gin"
)

// AuthHandler mints voter tokens. Identity resolution lives outside this
// service; the calling system authenticates with a shared key and tells us
// who the voter is.
type AuthHandler struct {
	issuerKey string
}

func NewAuthHandler(issuerKey string) *AuthHandler {
	return &AuthHandler{issuerKey: issuerKey}
}

type tokenRequest struct {
	IssuerKey string `json:"issuer_key" binding:"required"`
	VoterID   string `json:"voter_id" binding:"required"`
	TenantID  string `json:"tenant_id" binding:"required"`
}

// IssueToken issues a JWT for a voter
// POST /api/auth/token
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.issuerKey == "" || subtle.ConstantTimeCompare([]byte(req.IssuerKey), []byte(h.issuerKey)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid issuer key"})
		return
	}

	token, err := auth.GenerateToken(req.VoterID, req.TenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
