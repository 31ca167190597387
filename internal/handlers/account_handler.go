package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"event-tickets/internal/ledger"
	"event-tickets/internal/models"
	"event-tickets/internal/services"
)

// AccountHandler serves currency accounts
type AccountHandler struct {
	accounts *services.AccountService
	currency Currency
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accounts *services.AccountService, currency Currency) *AccountHandler {
	return &AccountHandler{accounts: accounts, currency: currency}
}

func (h *AccountHandler) respondAccount(c *gin.Context, addr ledger.Address) {
	view, err := h.accounts.GetAccount(c.Request.Context(), addr)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": models.AccountResponse{
		Address:        view.Address.String(),
		Balance:        models.Units(view.Balance),
		BalanceDisplay: h.currency.display(view.Balance),
		ReceiveBlocked: view.ReceiveBlocked,
		Currency:       h.currency.Symbol,
		Deposits:       toTransactions(view.Deposits),
	}})
}

// GetAccount returns an account's balance
// GET /api/accounts/:address
func (h *AccountHandler) GetAccount(c *gin.Context) {
	addr, err := ledger.ParseAddress(c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondAccount(c, addr)
}

// Deposit credits the caller from the faucet
// POST /api/accounts/deposit
func (h *AccountHandler) Deposit(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req models.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if _, err := h.accounts.Deposit(c.Request.Context(), who, uint64(req.Amount)); err != nil {
		respondError(c, err)
		return
	}
	h.respondAccount(c, who)
}

// SetReceive sets whether the caller's account accepts transfers
// PUT /api/accounts/me/receive
func (h *AccountHandler) SetReceive(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req models.ReceiveSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.accounts.SetReceiveBlocked(c.Request.Context(), who, req.Blocked); err != nil {
		respondError(c, err)
		return
	}
	h.respondAccount(c, who)
}
