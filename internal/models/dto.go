package models

import (
	"time"
)

// ---- Request/Response DTOs ----
// Amounts are base-unit decimal strings; *Display fields carry the same amount
// in whole currency units.

// CreateEventRequest is the request body for creating an event sale
type CreateEventRequest struct {
	ID          string `json:"id" binding:"required"`
	Supply      Units  `json:"supply"`
	TicketPrice Units  `json:"ticket_price"`
}

// BuyTicketsRequest is the request body for buying tickets with attached payment
type BuyTicketsRequest struct {
	Quantity Units `json:"quantity"`
	Payment  Units `json:"payment"`
}

// AddTicketsRequest is the request body for increasing supply
type AddTicketsRequest struct {
	Quantity Units `json:"quantity"`
}

// DepositRequest is the request body for the faucet
type DepositRequest struct {
	Amount Units `json:"amount"`
}

// ReceiveSettingRequest toggles whether the caller's account accepts transfers
type ReceiveSettingRequest struct {
	Blocked bool `json:"blocked"`
}

// EventResponse is the API response for an event sale
type EventResponse struct {
	ID                      string    `json:"id"`
	Owner                   string    `json:"owner"`
	TicketPrice             Units     `json:"ticket_price"`
	TicketPriceDisplay      string    `json:"ticket_price_display"`
	AvailableTickets        Units     `json:"available_tickets"`
	SaleActive              bool      `json:"sale_active"`
	BalanceCollected        Units     `json:"balance_collected"`
	BalanceCollectedDisplay string    `json:"balance_collected_display"`
	Currency                string    `json:"currency"`
	CreatedAt               time.Time `json:"created_at"`
}

// PurchaseResponse is the API response for a successful purchase
type PurchaseResponse struct {
	EventID       string `json:"event_id"`
	Quantity      Units  `json:"quantity"`
	Cost          Units  `json:"cost"`
	CostDisplay   string `json:"cost_display"`
	Refund        Units  `json:"refund"`
	RefundDisplay string `json:"refund_display"`
	Tickets       Units  `json:"tickets"`
}

// WithdrawResponse is the API response for a withdrawal
type WithdrawResponse struct {
	EventID       string `json:"event_id"`
	Amount        Units  `json:"amount"`
	AmountDisplay string `json:"amount_display"`
}

// TicketsResponse is the API response for a holder's ticket count
type TicketsResponse struct {
	EventID string `json:"event_id"`
	Holder  string `json:"holder"`
	Tickets Units  `json:"tickets"`
}

// AccountResponse is the API response for a ledger account
type AccountResponse struct {
	Address        string              `json:"address"`
	Balance        Units               `json:"balance"`
	BalanceDisplay string              `json:"balance_display"`
	ReceiveBlocked bool                `json:"receive_blocked"`
	Currency       string              `json:"currency"`
	Deposits       []LedgerTransaction `json:"deposits,omitempty"`
}
