package models

import (
	"time"
)

// EventSaleRecord is the persisted state of one event's ticket sale.
// Seq orders events by creation.
type EventSaleRecord struct {
	Seq              uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	EventID          string    `gorm:"size:64;uniqueIndex;not null" json:"event_id"`
	Owner            string    `gorm:"size:64;not null;index" json:"owner"`
	TicketPrice      Units     `gorm:"not null" json:"ticket_price"`
	AvailableTickets Units     `gorm:"not null" json:"available_tickets"`
	SaleActive       bool      `gorm:"not null" json:"sale_active"`
	BalanceCollected Units     `gorm:"not null" json:"balance_collected"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for EventSaleRecord model
func (EventSaleRecord) TableName() string {
	return "event_sales"
}

// TicketHolding is the number of tickets one holder owns for one event.
type TicketHolding struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   string    `gorm:"size:64;not null;uniqueIndex:idx_holding_event_holder" json:"event_id"`
	Holder    string    `gorm:"size:64;not null;uniqueIndex:idx_holding_event_holder" json:"holder"`
	Quantity  Units     `gorm:"not null" json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for TicketHolding model
func (TicketHolding) TableName() string {
	return "ticket_holdings"
}
