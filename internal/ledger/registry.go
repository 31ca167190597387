package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EventCreated is published once per successful CreateEvent.
type EventCreated struct {
	Identifier string    `json:"identifier"`
	Owner      Address   `json:"owner"`
	CreatedAt  time.Time `json:"created_at"`
}

// Notifier receives creation notifications after the creation has committed.
type Notifier interface {
	NotifyEventCreated(ctx context.Context, ev EventCreated) error
}

// Registry indexes EventSale records by identifier and routes calls to them.
type Registry struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Registry)

func WithNotifier(n Notifier) Option {
	return func(r *Registry) { r.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(store Store, opts ...Option) *Registry {
	r := &Registry{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateEvent opens a sale for id owned by caller.
func (r *Registry) CreateEvent(ctx context.Context, caller Address, id string, supply, price uint64) (EventInfo, error) {
	if inCall(ctx, id) {
		return EventInfo{}, ErrReentrantCall
	}
	now := r.now().UTC()
	sale, err := NewEventSale(id, caller, supply, price, now)
	if err != nil {
		return EventInfo{}, err
	}
	entry := r.entry(EntryCreateEvent, id, caller, supply, price)
	if err := r.store.Insert(ctx, sale, entry); err != nil {
		return EventInfo{}, err
	}

	if r.notifier != nil {
		ev := EventCreated{Identifier: id, Owner: caller, CreatedAt: now}
		if err := r.notifier.NotifyEventCreated(ctx, ev); err != nil {
			r.logger.Error("Failed to publish event created notification",
				"error", err,
				"event_id", id)
		}
	}
	return sale.Info(), nil
}

// Events returns every identifier in creation order.
func (r *Registry) Events(ctx context.Context) ([]string, error) {
	return r.store.IDs(ctx)
}

// ListEvents returns every event's projection in creation order. It is not
// available to calls nested inside another registry call.
func (r *Registry) ListEvents(ctx context.Context) ([]EventInfo, error) {
	if _, nested := ctx.Value(activeCallKey{}).(*activeCall); nested {
		return nil, ErrReentrantCall
	}
	return r.store.List(ctx)
}

func (r *Registry) EventInfo(ctx context.Context, id string) (EventInfo, error) {
	if inCall(ctx, id) {
		return EventInfo{}, ErrReentrantCall
	}
	return r.store.Info(ctx, id)
}

func (r *Registry) AvailableTickets(ctx context.Context, id string) (uint64, error) {
	info, err := r.EventInfo(ctx, id)
	return info.AvailableTickets, err
}

func (r *Registry) TicketPrice(ctx context.Context, id string) (uint64, error) {
	info, err := r.EventInfo(ctx, id)
	return info.TicketPrice, err
}

func (r *Registry) SaleActive(ctx context.Context, id string) (bool, error) {
	info, err := r.EventInfo(ctx, id)
	return info.SaleActive, err
}

// Tickets returns holder's ticket count for id, 0 for unknown holders.
func (r *Registry) Tickets(ctx context.Context, id string, holder Address) (uint64, error) {
	if inCall(ctx, id) {
		return 0, ErrReentrantCall
	}
	return r.store.Tickets(ctx, id, holder)
}

func (r *Registry) Transactions(ctx context.Context, id string) ([]Entry, error) {
	if inCall(ctx, id) {
		return nil, ErrReentrantCall
	}
	return r.store.Entries(ctx, id)
}

// BuyTickets debits payment from caller, sells quantity tickets and refunds
// any overpayment, all or nothing.
func (r *Registry) BuyTickets(ctx context.Context, id string, caller Address, quantity, payment uint64) (Purchase, error) {
	var purchase Purchase
	err := r.execute(ctx, id, caller, func(ctx context.Context, sale *EventSale, txn Txn) error {
		p, err := sale.Buy(caller, quantity, payment)
		if err != nil {
			return err
		}
		if err := txn.Debit(ctx, caller, payment); err != nil {
			return err
		}
		txn.Record(r.entry(EntryBuy, id, caller, quantity, p.Cost))
		if p.Refund > 0 {
			txn.Record(r.entry(EntryRefund, id, caller, 0, p.Refund))
			txn.Send(caller, p.Refund)
		}
		purchase = p
		return nil
	})
	if err != nil {
		return Purchase{}, err
	}
	return purchase, nil
}

// WithdrawFunds pays the whole collected balance to the owner.
func (r *Registry) WithdrawFunds(ctx context.Context, id string, caller Address) (uint64, error) {
	var withdrawn uint64
	err := r.execute(ctx, id, caller, func(ctx context.Context, sale *EventSale, txn Txn) error {
		amount, err := sale.Withdraw(caller)
		if err != nil {
			return err
		}
		txn.Record(r.entry(EntryWithdraw, id, caller, 0, amount))
		if amount > 0 {
			txn.Send(sale.Owner(), amount)
		}
		withdrawn = amount
		return nil
	})
	if err != nil {
		return 0, err
	}
	return withdrawn, nil
}

func (r *Registry) AddTickets(ctx context.Context, id string, caller Address, quantity uint64) error {
	return r.execute(ctx, id, caller, func(ctx context.Context, sale *EventSale, txn Txn) error {
		if err := sale.AddTickets(caller, quantity); err != nil {
			return err
		}
		txn.Record(r.entry(EntryAddTickets, id, caller, quantity, 0))
		return nil
	})
}

func (r *Registry) StopSale(ctx context.Context, id string, caller Address) error {
	return r.execute(ctx, id, caller, func(ctx context.Context, sale *EventSale, txn Txn) error {
		if err := sale.StopSale(caller); err != nil {
			return err
		}
		txn.Record(r.entry(EntryStopSale, id, caller, 0, 0))
		return nil
	})
}

func (r *Registry) ContinueSale(ctx context.Context, id string, caller Address) error {
	return r.execute(ctx, id, caller, func(ctx context.Context, sale *EventSale, txn Txn) error {
		if err := sale.ContinueSale(caller); err != nil {
			return err
		}
		txn.Record(r.entry(EntryContinueSale, id, caller, 0, 0))
		return nil
	})
}

func (r *Registry) execute(ctx context.Context, id string, caller Address, fn Mutation) error {
	if caller == "" {
		return fmt.Errorf("%w: empty caller", ErrInvalidAddress)
	}
	if inCall(ctx, id) {
		return ErrReentrantCall
	}
	return r.store.Update(enterCall(ctx, id), id, caller, fn)
}

func (r *Registry) entry(kind EntryKind, id string, caller Address, quantity, amount uint64) Entry {
	return Entry{
		ID:        uuid.New(),
		Kind:      kind,
		EventID:   id,
		Caller:    caller,
		Quantity:  quantity,
		Amount:    amount,
		CreatedAt: r.now().UTC(),
	}
}

// NewDepositEntry builds the log entry for minting amount into addr.
func NewDepositEntry(addr Address, amount uint64, now time.Time) Entry {
	return Entry{
		ID:        uuid.New(),
		Kind:      EntryDeposit,
		Caller:    addr,
		Amount:    amount,
		CreatedAt: now.UTC(),
	}
}

// activeCall marks, on the context, the events whose calls are in progress on
// this call path. Outbound transfers receive the marked context.
type activeCall struct {
	id     string
	parent *activeCall
}

type activeCallKey struct{}

func enterCall(ctx context.Context, id string) context.Context {
	parent, _ := ctx.Value(activeCallKey{}).(*activeCall)
	return context.WithValue(ctx, activeCallKey{}, &activeCall{id: id, parent: parent})
}

func inCall(ctx context.Context, id string) bool {
	for c, _ := ctx.Value(activeCallKey{}).(*activeCall); c != nil; c = c.parent {
		if c.id == id {
			return true
		}
	}
	return false
}
