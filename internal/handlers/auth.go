package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"event-tickets/internal/auth"
	"event-tickets/internal/ledger"
	"event-tickets/internal/services"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Message issues a single-use login challenge for a wallet
// GET /auth/message?wallet=<address>
func (h *AuthHandler) Message(c *gin.Context) {
	addr, err := ledger.ParseAddress(c.Query("wallet"))
	if err != nil {
		respondError(c, err)
		return
	}

	challenge, err := h.authService.IssueChallenge(c.Request.Context(), addr.String())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    challenge.Message,
		"nonce":      challenge.Nonce.String(),
		"expires_at": challenge.ExpiresAt,
	})
}

// WalletLogin authenticates a wallet by its ed25519 signature of an issued challenge.
// POST /auth/wallet
func (h *AuthHandler) WalletLogin(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		Nonce         string `json:"nonce" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	addr, err := ledger.ParseAddress(req.WalletAddress)
	if err != nil {
		respondError(c, err)
		return
	}
	nonce, err := uuid.Parse(req.Nonce)
	if err != nil {
		badRequest(c, "invalid nonce")
		return
	}

	user, err := h.authService.Login(c.Request.Context(), addr.String(), nonce, req.Signature)
	switch {
	case errors.Is(err, services.ErrInvalidChallenge),
		errors.Is(err, auth.ErrInvalidSignature),
		errors.Is(err, auth.ErrInvalidPublicKey):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "UNAUTHENTICATED"})
		return
	case err != nil:
		respondError(c, err)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.WalletAddress)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// GetMe returns the currently authenticated user's profile
// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "UNAUTHENTICATED"})
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found", "code": "NOT_FOUND"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}
