package services

import (
	"context"

	"event-tickets/internal/ledger"
	"event-tickets/internal/logger"
	"event-tickets/internal/metrics"
)

// TicketService exposes the event registry to the API layer, logging and
// counting every call.
type TicketService struct {
	registry *ledger.Registry
	metrics  *metrics.Metrics
}

// NewTicketService creates a new TicketService
func NewTicketService(registry *ledger.Registry, m *metrics.Metrics) *TicketService {
	return &TicketService{registry: registry, metrics: m}
}

// CreateEvent opens a new sale owned by caller
func (s *TicketService) CreateEvent(ctx context.Context, caller ledger.Address, id string, supply, price uint64) (ledger.EventInfo, error) {
	info, err := s.registry.CreateEvent(ctx, caller, id, supply, price)
	s.observe(ctx, "create_event", id, caller, err, "supply", supply, "ticket_price", price)
	return info, err
}

// ListEvents returns every event in creation order
func (s *TicketService) ListEvents(ctx context.Context) ([]ledger.EventInfo, error) {
	return s.registry.ListEvents(ctx)
}

func (s *TicketService) GetEvent(ctx context.Context, id string) (ledger.EventInfo, error) {
	return s.registry.EventInfo(ctx, id)
}

func (s *TicketService) Tickets(ctx context.Context, id string, holder ledger.Address) (uint64, error) {
	return s.registry.Tickets(ctx, id, holder)
}

func (s *TicketService) Transactions(ctx context.Context, id string) ([]ledger.Entry, error) {
	return s.registry.Transactions(ctx, id)
}

// BuyTickets sells quantity tickets to caller against the attached payment
func (s *TicketService) BuyTickets(ctx context.Context, id string, caller ledger.Address, quantity, payment uint64) (ledger.Purchase, error) {
	p, err := s.registry.BuyTickets(ctx, id, caller, quantity, payment)
	s.observe(ctx, "buy_tickets", id, caller, err, "quantity", quantity, "payment", payment, "refund", p.Refund)
	if err == nil {
		s.metrics.ObservePurchase(p)
	}
	return p, err
}

// WithdrawFunds pays the collected balance to the owner
func (s *TicketService) WithdrawFunds(ctx context.Context, id string, caller ledger.Address) (uint64, error) {
	amount, err := s.registry.WithdrawFunds(ctx, id, caller)
	s.observe(ctx, "withdraw_funds", id, caller, err, "amount", amount)
	if err == nil {
		s.metrics.ObserveWithdrawal(amount)
	}
	return amount, err
}

func (s *TicketService) AddTickets(ctx context.Context, id string, caller ledger.Address, quantity uint64) error {
	err := s.registry.AddTickets(ctx, id, caller, quantity)
	s.observe(ctx, "add_tickets", id, caller, err, "quantity", quantity)
	return err
}

func (s *TicketService) StopSale(ctx context.Context, id string, caller ledger.Address) error {
	err := s.registry.StopSale(ctx, id, caller)
	s.observe(ctx, "stop_sale", id, caller, err)
	return err
}

func (s *TicketService) ContinueSale(ctx context.Context, id string, caller ledger.Address) error {
	err := s.registry.ContinueSale(ctx, id, caller)
	s.observe(ctx, "continue_sale", id, caller, err)
	return err
}

func (s *TicketService) observe(ctx context.Context, op, id string, caller ledger.Address, err error, attrs ...any) {
	s.metrics.ObserveCall(op, err)

	log := logger.WithContext(ctx).With("op", op, "event_id", id, "caller", caller.String())
	switch {
	case err == nil:
		log.Info("Ledger call committed", attrs...)
	case isRejection(err):
		log.Warn("Ledger call rejected", append(attrs, "error", err, "code", ledger.Code(err))...)
	default:
		log.Error("Ledger call failed", append(attrs, "error", err)...)
	}
}

// isRejection reports whether err is a ledger rule rejecting the call rather
// than an infrastructure failure.
func isRejection(err error) bool {
	return ledger.Code(err) != "INTERNAL"
}
