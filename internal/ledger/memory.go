package ledger

import (
	"context"
	"fmt"
	"sync"
)

// ReceiveHook is invoked before value is credited to an account, with the
// context of the call making the transfer. Returning an error refuses the
// transfer. Hooks that call back into a Registry must pass ctx through.
type ReceiveHook func(ctx context.Context, to Address, amount uint64) error

// MemoryStore keeps the ledger in process memory. Each event record has its own
// mutex; a failed call is undone by restoring the record snapshot and replaying
// the account journal backwards.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]*memEvent
	order  []string

	acctMu   sync.Mutex
	accounts map[Address]*memAccount
	minted   uint64
	deposits []Entry
	hooks    map[Address]ReceiveHook
}

type memEvent struct {
	mu      sync.Mutex
	sale    *EventSale
	entries []Entry
}

type memAccount struct {
	balance uint64
	blocked bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:   make(map[string]*memEvent),
		accounts: make(map[Address]*memAccount),
		hooks:    make(map[Address]ReceiveHook),
	}
}

// SetReceiveHook installs hook for transfers into addr. A nil hook removes it.
func (s *MemoryStore) SetReceiveHook(addr Address, hook ReceiveHook) {
	s.acctMu.Lock()
	defer s.acctMu.Unlock()
	if hook == nil {
		delete(s.hooks, addr)
		return
	}
	s.hooks[addr] = hook
}

func (s *MemoryStore) Insert(ctx context.Context, sale *EventSale, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[sale.ID()]; ok {
		return ErrDuplicateEvent
	}
	s.events[sale.ID()] = &memEvent{
		sale:    RestoreEventSale(sale.State()),
		entries: []Entry{entry},
	}
	s.order = append(s.order, sale.ID())
	return nil
}

func (s *MemoryStore) event(id string) (*memEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ev, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, caller Address, fn Mutation) error {
	ev, err := s.event(id)
	if err != nil {
		return err
	}
	ev.mu.Lock()
	defer ev.mu.Unlock()

	snapshot := ev.sale.State()
	logLen := len(ev.entries)
	txn := &memTxn{store: s}
	abort := func(err error) error {
		txn.undo()
		ev.sale = RestoreEventSale(snapshot)
		ev.entries = ev.entries[:logLen]
		return err
	}

	if err := fn(ctx, ev.sale, txn); err != nil {
		return abort(err)
	}
	ev.entries = append(ev.entries, txn.entries...)

	for _, t := range txn.sends {
		if err := txn.admit(ctx, t.to, t.amount); err != nil {
			return abort(err)
		}
	}
	if err := txn.credit(); err != nil {
		return abort(err)
	}
	return nil
}

func (s *MemoryStore) Info(ctx context.Context, id string) (EventInfo, error) {
	ev, err := s.event(id)
	if err != nil {
		return EventInfo{}, err
	}
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return ev.sale.Info(), nil
}

func (s *MemoryStore) IDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]EventInfo, error) {
	s.mu.RLock()
	events := make([]*memEvent, len(s.order))
	for i, id := range s.order {
		events[i] = s.events[id]
	}
	s.mu.RUnlock()

	infos := make([]EventInfo, len(events))
	for i, ev := range events {
		ev.mu.Lock()
		infos[i] = ev.sale.Info()
		ev.mu.Unlock()
	}
	return infos, nil
}

func (s *MemoryStore) Tickets(ctx context.Context, id string, holder Address) (uint64, error) {
	ev, err := s.event(id)
	if err != nil {
		return 0, err
	}
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return ev.sale.TicketsOf(holder), nil
}

func (s *MemoryStore) Entries(ctx context.Context, id string) ([]Entry, error) {
	ev, err := s.event(id)
	if err != nil {
		return nil, err
	}
	ev.mu.Lock()
	defer ev.mu.Unlock()
	entries := make([]Entry, len(ev.entries))
	copy(entries, ev.entries)
	return entries, nil
}

func (s *MemoryStore) Balance(ctx context.Context, addr Address) (uint64, error) {
	s.acctMu.Lock()
	defer s.acctMu.Unlock()
	if a, ok := s.accounts[addr]; ok {
		return a.balance, nil
	}
	return 0, nil
}

func (s *MemoryStore) ReceiveBlocked(ctx context.Context, addr Address) (bool, error) {
	s.acctMu.Lock()
	defer s.acctMu.Unlock()
	if a, ok := s.accounts[addr]; ok {
		return a.blocked, nil
	}
	return false, nil
}

func (s *MemoryStore) Deposit(ctx context.Context, addr Address, amount uint64, entry Entry) (uint64, error) {
	s.acctMu.Lock()
	defer s.acctMu.Unlock()
	minted, err := CheckedAdd(s.minted, amount)
	if err != nil {
		return 0, err
	}
	a := s.account(addr)
	// Cannot overflow: no balance exceeds the total minted.
	a.balance += amount
	s.minted = minted
	s.deposits = append(s.deposits, entry)
	return a.balance, nil
}

func (s *MemoryStore) Deposits(ctx context.Context, addr Address) ([]Entry, error) {
	s.acctMu.Lock()
	defer s.acctMu.Unlock()
	var out []Entry
	for _, e := range s.deposits {
		if e.Caller == addr {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryStore) SetReceiveBlocked(ctx context.Context, addr Address, blocked bool) error {
	s.acctMu.Lock()
	defer s.acctMu.Unlock()
	s.account(addr).blocked = blocked
	return nil
}

// account returns addr's account, creating it. acctMu must be held.
func (s *MemoryStore) account(addr Address) *memAccount {
	a, ok := s.accounts[addr]
	if !ok {
		a = &memAccount{}
		s.accounts[addr] = a
	}
	return a
}

type memTxn struct {
	store   *MemoryStore
	sends   []transfer
	entries []Entry
	journal []func()
}

func (t *memTxn) Debit(ctx context.Context, from Address, amount uint64) error {
	s := t.store
	s.acctMu.Lock()
	defer s.acctMu.Unlock()
	a := s.account(from)
	if a.balance < amount {
		return ErrInsufficientFunds
	}
	a.balance -= amount
	t.journal = append(t.journal, func() { a.balance += amount })
	return nil
}

func (t *memTxn) Send(to Address, amount uint64) {
	t.sends = append(t.sends, transfer{to: to, amount: amount})
}

func (t *memTxn) Record(e Entry) {
	t.entries = append(t.entries, e)
}

// admit asks the recipient whether it accepts amount.
func (t *memTxn) admit(ctx context.Context, to Address, amount uint64) error {
	s := t.store
	s.acctMu.Lock()
	hook := s.hooks[to]
	blocked := s.account(to).blocked
	s.acctMu.Unlock()

	if blocked {
		return ErrTransferRejected
	}
	if hook != nil {
		if err := hook(ctx, to, amount); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferRejected, err)
		}
	}
	return nil
}

// credit applies every queued transfer at once, or none of them.
func (t *memTxn) credit() error {
	s := t.store
	s.acctMu.Lock()
	defer s.acctMu.Unlock()

	next := make(map[Address]uint64, len(t.sends))
	for _, tr := range t.sends {
		cur, ok := next[tr.to]
		if !ok {
			cur = s.account(tr.to).balance
		}
		balance, err := CheckedAdd(cur, tr.amount)
		if err != nil {
			return err
		}
		next[tr.to] = balance
	}
	for addr, balance := range next {
		s.accounts[addr].balance = balance
	}
	return nil
}

// undo reverts the account journal newest first.
func (t *memTxn) undo() {
	s := t.store
	s.acctMu.Lock()
	defer s.acctMu.Unlock()
	for i := len(t.journal) - 1; i >= 0; i-- {
		t.journal[i]()
	}
	t.journal = nil
}
