package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"event-tickets/internal/auth"
	"event-tickets/internal/ledger"
	"event-tickets/internal/logger"
	"event-tickets/internal/models"
	"event-tickets/internal/services"
)

// Currency renders base-unit amounts for display
type Currency struct {
	Decimals int32
	Symbol   string
}

func (cur Currency) display(u uint64) string {
	return models.Units(u).Display(cur.Decimals)
}

var statusByCode = map[string]int{
	"SALE_CLOSED":          http.StatusConflict,
	"INSUFFICIENT_SUPPLY":  http.StatusConflict,
	"INSUFFICIENT_PAYMENT": http.StatusPaymentRequired,
	"INSUFFICIENT_FUNDS":   http.StatusPaymentRequired,
	"ARITHMETIC_OVERFLOW":  http.StatusUnprocessableEntity,
	"UNAUTHORIZED":         http.StatusForbidden,
	"DUPLICATE_EVENT":      http.StatusConflict,
	"NOT_FOUND":            http.StatusNotFound,
	"TRANSFER_REJECTED":    http.StatusConflict,
	"REENTRANT_CALL":       http.StatusConflict,
	"INVALID_ADDRESS":      http.StatusBadRequest,
	"INVALID_IDENTIFIER":   http.StatusBadRequest,
}

// respondError writes err as {"error", "code"} with a status chosen by its code
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrFaucetDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "FAUCET_DISABLED"})
		return
	case errors.Is(err, services.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_AMOUNT"})
		return
	}

	code := ledger.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		logger.WithContext(c.Request.Context()).Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "INTERNAL"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "BAD_REQUEST"})
}

// caller returns the authenticated wallet as a ledger address
func caller(c *gin.Context) (ledger.Address, bool) {
	wallet, ok := auth.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "UNAUTHENTICATED"})
		return "", false
	}
	return ledger.Address(wallet), true
}
