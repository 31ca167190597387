package ledger

import (
	"fmt"
	"time"
)

// EventSale is the accounting record of one event's ticket sale.
//
// Every mutating method validates completely before it writes, so a method that
// returns an error leaves the record untouched. EventSale is not safe for
// concurrent use; a Store serializes calls per record.
type EventSale struct {
	id               string
	owner            Address
	ticketPrice      uint64
	availableTickets uint64
	saleActive       bool
	balanceCollected uint64
	ticketsOwned     map[Address]uint64
	createdAt        time.Time
}

// EventSaleState is the plain-data form of an EventSale used by stores.
// Holdings may be partial: a store only needs to load the entries a call touches.
type EventSaleState struct {
	ID               string
	Owner            Address
	TicketPrice      uint64
	AvailableTickets uint64
	SaleActive       bool
	BalanceCollected uint64
	Holdings         map[Address]uint64
	CreatedAt        time.Time
}

// EventInfo is a read-only projection of an EventSale for display.
type EventInfo struct {
	ID               string    `json:"id"`
	Owner            Address   `json:"owner"`
	TicketPrice      uint64    `json:"ticket_price"`
	AvailableTickets uint64    `json:"available_tickets"`
	SaleActive       bool      `json:"sale_active"`
	BalanceCollected uint64    `json:"balance_collected"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewEventSale opens an active sale owned by owner.
func NewEventSale(id string, owner Address, supply, price uint64, now time.Time) (*EventSale, error) {
	if err := ValidateIdentifier(id); err != nil {
		return nil, err
	}
	if owner == "" {
		return nil, fmt.Errorf("%w: empty owner", ErrInvalidAddress)
	}
	return &EventSale{
		id:               id,
		owner:            owner,
		ticketPrice:      price,
		availableTickets: supply,
		saleActive:       true,
		ticketsOwned:     make(map[Address]uint64),
		createdAt:        now.UTC(),
	}, nil
}

// RestoreEventSale rebuilds a record from stored state.
func RestoreEventSale(st EventSaleState) *EventSale {
	owned := make(map[Address]uint64, len(st.Holdings))
	for addr, n := range st.Holdings {
		owned[addr] = n
	}
	return &EventSale{
		id:               st.ID,
		owner:            st.Owner,
		ticketPrice:      st.TicketPrice,
		availableTickets: st.AvailableTickets,
		saleActive:       st.SaleActive,
		balanceCollected: st.BalanceCollected,
		ticketsOwned:     owned,
		createdAt:        st.CreatedAt,
	}
}

// State returns a deep copy of the record.
func (s *EventSale) State() EventSaleState {
	holdings := make(map[Address]uint64, len(s.ticketsOwned))
	for addr, n := range s.ticketsOwned {
		holdings[addr] = n
	}
	return EventSaleState{
		ID:               s.id,
		Owner:            s.owner,
		TicketPrice:      s.ticketPrice,
		AvailableTickets: s.availableTickets,
		SaleActive:       s.saleActive,
		BalanceCollected: s.balanceCollected,
		Holdings:         holdings,
		CreatedAt:        s.createdAt,
	}
}

func (s *EventSale) Info() EventInfo {
	return EventInfo{
		ID:               s.id,
		Owner:            s.owner,
		TicketPrice:      s.ticketPrice,
		AvailableTickets: s.availableTickets,
		SaleActive:       s.saleActive,
		BalanceCollected: s.balanceCollected,
		CreatedAt:        s.createdAt,
	}
}

func (s *EventSale) ID() string               { return s.id }
func (s *EventSale) Owner() Address           { return s.owner }
func (s *EventSale) TicketPrice() uint64      { return s.ticketPrice }
func (s *EventSale) AvailableTickets() uint64 { return s.availableTickets }
func (s *EventSale) SaleActive() bool         { return s.saleActive }
func (s *EventSale) BalanceCollected() uint64 { return s.balanceCollected }

// TicketsOf returns the number of tickets addr holds, 0 if none.
func (s *EventSale) TicketsOf(addr Address) uint64 {
	return s.ticketsOwned[addr]
}

// Purchase describes the effect of a successful Buy.
type Purchase struct {
	Quantity uint64 `json:"quantity"`
	Cost     uint64 `json:"cost"`
	Refund   uint64 `json:"refund"`
	Holding  uint64 `json:"holding"`
}

// Buy sells quantity tickets to caller against payment. Payment is checked
// before supply, so an underpaid request for a sold-out event reports
// ErrInsufficientPayment. The returned Refund is
// the overpayment the caller must be paid back; sending it is the caller's job
// and must happen after the record has been written.
func (s *EventSale) Buy(caller Address, quantity, payment uint64) (Purchase, error) {
	if !s.saleActive {
		return Purchase{}, ErrSaleClosed
	}
	if quantity == 0 {
		return Purchase{}, ErrInsufficientSupply
	}
	required, err := CheckedMul(quantity, s.ticketPrice)
	if err != nil {
		return Purchase{}, err
	}
	if payment < required {
		return Purchase{}, ErrInsufficientPayment
	}
	if quantity > s.availableTickets {
		return Purchase{}, ErrInsufficientSupply
	}
	holding, err := CheckedAdd(s.ticketsOwned[caller], quantity)
	if err != nil {
		return Purchase{}, err
	}
	balance, err := CheckedAdd(s.balanceCollected, required)
	if err != nil {
		return Purchase{}, err
	}

	s.availableTickets -= quantity
	s.ticketsOwned[caller] = holding
	s.balanceCollected = balance

	return Purchase{
		Quantity: quantity,
		Cost:     required,
		Refund:   payment - required,
		Holding:  holding,
	}, nil
}

// Withdraw zeroes the collected balance and returns the amount owed to the owner.
func (s *EventSale) Withdraw(caller Address) (uint64, error) {
	if err := s.authorize(caller); err != nil {
		return 0, err
	}
	amount := s.balanceCollected
	s.balanceCollected = 0
	return amount, nil
}

// AddTickets increases supply by quantity.
func (s *EventSale) AddTickets(caller Address, quantity uint64) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	supply, err := CheckedAdd(s.availableTickets, quantity)
	if err != nil {
		return err
	}
	s.availableTickets = supply
	return nil
}

// StopSale pauses purchases. Stopping a paused sale is a no-op.
func (s *EventSale) StopSale(caller Address) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	s.saleActive = false
	return nil
}

// ContinueSale resumes purchases. Resuming an active sale is a no-op.
func (s *EventSale) ContinueSale(caller Address) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	s.saleActive = true
	return nil
}

func (s *EventSale) authorize(caller Address) error {
	if caller == "" || caller != s.owner {
		return ErrUnauthorized
	}
	return nil
}
