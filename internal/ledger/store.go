package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EntryKind names the kind of a committed ledger transaction.
type EntryKind string

const (
	EntryCreateEvent  EntryKind = "CREATE_EVENT"
	EntryBuy          EntryKind = "BUY"
	EntryRefund       EntryKind = "REFUND"
	EntryWithdraw     EntryKind = "WITHDRAW"
	EntryAddTickets   EntryKind = "ADD_TICKETS"
	EntryStopSale     EntryKind = "STOP_SALE"
	EntryContinueSale EntryKind = "CONTINUE_SALE"
	EntryDeposit      EntryKind = "DEPOSIT"
)

// Entry is one row of the append-only transaction log. Entries are written
// only when the call that produced them commits.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Kind      EntryKind `json:"kind"`
	EventID   string    `json:"event_id,omitempty"`
	Caller    Address   `json:"caller"`
	Quantity  uint64    `json:"quantity"`
	Amount    uint64    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Txn is what a mutation sees of the ledger beyond its own EventSale record.
type Txn interface {
	// Debit takes value attached to the call from an account.
	Debit(ctx context.Context, from Address, amount uint64) error
	// Send queues an outbound transfer. Queued transfers run after the record
	// and log have been written; a failed transfer aborts the whole call.
	Send(to Address, amount uint64)
	// Record appends a log entry to be written with the record.
	Record(e Entry)
}

// Mutation runs inside a store transaction with exclusive access to sale.
// Returning an error discards every effect of the call.
type Mutation func(ctx context.Context, sale *EventSale, txn Txn) error

// Store persists EventSale records and executes calls against them atomically.
type Store interface {
	// Insert adds a new record with its creation entry, or fails with ErrDuplicateEvent.
	Insert(ctx context.Context, sale *EventSale, entry Entry) error
	// Update runs fn against the record id under that record's critical section.
	// Holdings for caller are loaded before fn runs.
	Update(ctx context.Context, id string, caller Address, fn Mutation) error
	Info(ctx context.Context, id string) (EventInfo, error)
	// IDs returns event identifiers in creation order.
	IDs(ctx context.Context) ([]string, error)
	// List returns every event's projection in creation order.
	List(ctx context.Context) ([]EventInfo, error)
	Tickets(ctx context.Context, id string, holder Address) (uint64, error)
	Entries(ctx context.Context, id string) ([]Entry, error)
}

// Accounts holds the currency balances value transfers move between.
type Accounts interface {
	Balance(ctx context.Context, addr Address) (uint64, error)
	ReceiveBlocked(ctx context.Context, addr Address) (bool, error)
	// Deposit mints amount into addr and logs entry. It returns the new balance.
	Deposit(ctx context.Context, addr Address, amount uint64, entry Entry) (uint64, error)
	// Deposits lists the DEPOSIT entries credited to addr, oldest first.
	Deposits(ctx context.Context, addr Address) ([]Entry, error)
	SetReceiveBlocked(ctx context.Context, addr Address, blocked bool) error
}

type transfer struct {
	to     Address
	amount uint64
}
