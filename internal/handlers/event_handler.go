package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"event-tickets/internal/ledger"
	"event-tickets/internal/models"
	"event-tickets/internal/services"
)

// EventHandler serves event sales
type EventHandler struct {
	tickets  *services.TicketService
	currency Currency
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(tickets *services.TicketService, currency Currency) *EventHandler {
	return &EventHandler{tickets: tickets, currency: currency}
}

func (h *EventHandler) toResponse(info ledger.EventInfo) models.EventResponse {
	return models.EventResponse{
		ID:                      info.ID,
		Owner:                   info.Owner.String(),
		TicketPrice:             models.Units(info.TicketPrice),
		TicketPriceDisplay:      h.currency.display(info.TicketPrice),
		AvailableTickets:        models.Units(info.AvailableTickets),
		SaleActive:              info.SaleActive,
		BalanceCollected:        models.Units(info.BalanceCollected),
		BalanceCollectedDisplay: h.currency.display(info.BalanceCollected),
		Currency:                h.currency.Symbol,
		CreatedAt:               info.CreatedAt,
	}
}

// ListEvents returns every event in creation order
// GET /api/events
func (h *EventHandler) ListEvents(c *gin.Context) {
	events, err := h.tickets.ListEvents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	data := make([]models.EventResponse, len(events))
	for i, info := range events {
		data[i] = h.toResponse(info)
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

// GetEvent returns one event's sale state
// GET /api/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	info, err := h.tickets.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.toResponse(info)})
}

// GetTickets returns the number of tickets an address holds
// GET /api/events/:id/tickets/:address
func (h *EventHandler) GetTickets(c *gin.Context) {
	holder, err := ledger.ParseAddress(c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	id := c.Param("id")
	n, err := h.tickets.Tickets(c.Request.Context(), id, holder)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": models.TicketsResponse{
		EventID: id,
		Holder:  holder.String(),
		Tickets: models.Units(n),
	}})
}

// GetTransactions returns the event's ledger log
// GET /api/events/:id/transactions
func (h *EventHandler) GetTransactions(c *gin.Context) {
	entries, err := h.tickets.Transactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	data := toTransactions(entries)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data, "count": len(data)})
}

// CreateEvent opens a sale owned by the caller
// POST /api/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	owner, ok := caller(c)
	if !ok {
		return
	}
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	info, err := h.tickets.CreateEvent(c.Request.Context(), owner, req.ID, uint64(req.Supply), uint64(req.TicketPrice))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": h.toResponse(info)})
}

// BuyTickets buys tickets with the attached payment
// POST /api/events/:id/buy
func (h *EventHandler) BuyTickets(c *gin.Context) {
	buyer, ok := caller(c)
	if !ok {
		return
	}
	var req models.BuyTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	id := c.Param("id")
	p, err := h.tickets.BuyTickets(c.Request.Context(), id, buyer, uint64(req.Quantity), uint64(req.Payment))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": models.PurchaseResponse{
		EventID:       id,
		Quantity:      models.Units(p.Quantity),
		Cost:          models.Units(p.Cost),
		CostDisplay:   h.currency.display(p.Cost),
		Refund:        models.Units(p.Refund),
		RefundDisplay: h.currency.display(p.Refund),
		Tickets:       models.Units(p.Holding),
	}})
}

// WithdrawFunds pays the collected balance to the owner
// POST /api/events/:id/withdraw
func (h *EventHandler) WithdrawFunds(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id := c.Param("id")
	amount, err := h.tickets.WithdrawFunds(c.Request.Context(), id, who)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": models.WithdrawResponse{
		EventID:       id,
		Amount:        models.Units(amount),
		AmountDisplay: h.currency.display(amount),
	}})
}

// AddTickets increases supply
// POST /api/events/:id/tickets
func (h *EventHandler) AddTickets(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req models.AddTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	h.ownerCall(c, func(id string) error {
		return h.tickets.AddTickets(c.Request.Context(), id, who, uint64(req.Quantity))
	})
}

// StopSale pauses purchases
// POST /api/events/:id/stop
func (h *EventHandler) StopSale(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	h.ownerCall(c, func(id string) error {
		return h.tickets.StopSale(c.Request.Context(), id, who)
	})
}

// ContinueSale resumes purchases
// POST /api/events/:id/continue
func (h *EventHandler) ContinueSale(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	h.ownerCall(c, func(id string) error {
		return h.tickets.ContinueSale(c.Request.Context(), id, who)
	})
}

// ownerCall runs an owner operation and responds with the resulting state
func (h *EventHandler) ownerCall(c *gin.Context, call func(id string) error) {
	id := c.Param("id")
	if err := call(id); err != nil {
		respondError(c, err)
		return
	}
	info, err := h.tickets.GetEvent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.toResponse(info)})
}

func toTransactions(entries []ledger.Entry) []models.LedgerTransaction {
	rows := make([]models.LedgerTransaction, len(entries))
	for i, e := range entries {
		rows[i] = models.LedgerTransaction{
			ID:        e.ID,
			Kind:      string(e.Kind),
			Caller:    e.Caller.String(),
			Quantity:  models.Units(e.Quantity),
			Amount:    models.Units(e.Amount),
			CreatedAt: e.CreatedAt,
		}
		if e.EventID != "" {
			eventID := e.EventID
			rows[i].EventID = &eventID
		}
	}
	return rows
}
