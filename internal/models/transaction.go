package models

import (
	"time"

	"github.com/google/uuid"
)

// LedgerTransaction is one row of the append-only ledger log. Rows are inserted
// in the transaction of the call that produced them and never updated.
type LedgerTransaction struct {
	Seq       uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	ID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"id"`
	Kind      string    `gorm:"size:32;not null;index" json:"kind"` // CREATE_EVENT, BUY, REFUND, WITHDRAW, ADD_TICKETS, STOP_SALE, CONTINUE_SALE, DEPOSIT
	EventID   *string   `gorm:"size:64;index" json:"event_id,omitempty"`
	Caller    string    `gorm:"size:64;not null;index" json:"caller"`
	Quantity  Units     `gorm:"not null" json:"quantity"`
	Amount    Units     `gorm:"not null" json:"amount"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for LedgerTransaction model
func (LedgerTransaction) TableName() string {
	return "ledger_transactions"
}
