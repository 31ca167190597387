package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"event-tickets/internal/ledger"
	"event-tickets/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	owner  ledger.Address = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	buyerA ledger.Address = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	buyerB ledger.Address = "HN7cABqLq46Es1jh92dQQisAq662SmxELLLsHHe4YWrH"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.EventSaleRecord{},
		&models.TicketHolding{},
		&models.Account{},
		&models.LedgerTransaction{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func setupStore(t *testing.T) (*ledger.Registry, *LedgerStore) {
	t.Helper()
	store := NewLedgerStore(setupTestDB(t))
	return ledger.NewRegistry(store), store
}

func deposit(t *testing.T, store *LedgerStore, addr ledger.Address, amount uint64) {
	t.Helper()
	entry := ledger.NewDepositEntry(addr, amount, time.Now())
	if _, err := store.Deposit(context.Background(), addr, amount, entry); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
}

func balance(t *testing.T, store *LedgerStore, addr ledger.Address) uint64 {
	t.Helper()
	b, err := store.Balance(context.Background(), addr)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	return b
}

func TestLedgerStoreScenario(t *testing.T) {
	ctx := context.Background()
	reg, store := setupStore(t)
	const price = 10_000_000

	if _, err := reg.CreateEvent(ctx, owner, "concert", 6, price); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	deposit(t, store, buyerA, 1_000_000_000)
	deposit(t, store, buyerB, 1_000_000_000)

	if _, err := reg.BuyTickets(ctx, "concert", buyerA, 1, price); err != nil {
		t.Fatalf("first buy failed: %v", err)
	}
	if _, err := reg.BuyTickets(ctx, "concert", buyerA, 5, 5*price); err != nil {
		t.Fatalf("second buy failed: %v", err)
	}
	if n, _ := reg.Tickets(ctx, "concert", buyerA); n != 6 {
		t.Errorf("expected 6 tickets, got %d", n)
	}
	if n, _ := reg.AvailableTickets(ctx, "concert"); n != 0 {
		t.Errorf("expected 0 available, got %d", n)
	}

	if _, err := reg.BuyTickets(ctx, "concert", buyerB, 1, price/2); !errors.Is(err, ledger.ErrInsufficientPayment) {
		t.Fatalf("expected ErrInsufficientPayment, got %v", err)
	}
	if b := balance(t, store, buyerB); b != 1_000_000_000 {
		t.Errorf("rejected buyer charged: %d", b)
	}

	if err := reg.StopSale(ctx, "concert", owner); err != nil {
		t.Fatalf("StopSale failed: %v", err)
	}
	if _, err := reg.BuyTickets(ctx, "concert", buyerB, 1, price); !errors.Is(err, ledger.ErrSaleClosed) {
		t.Errorf("expected ErrSaleClosed, got %v", err)
	}
	if err := reg.AddTickets(ctx, "concert", owner, 10); err != nil {
		t.Fatalf("AddTickets failed: %v", err)
	}
	if n, _ := reg.AvailableTickets(ctx, "concert"); n != 10 {
		t.Errorf("expected 10 available, got %d", n)
	}
	if _, err := reg.WithdrawFunds(ctx, "concert", buyerB); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}

	amount, err := reg.WithdrawFunds(ctx, "concert", owner)
	if err != nil || amount != 6*price {
		t.Fatalf("WithdrawFunds: got %d, %v", amount, err)
	}
	if b := balance(t, store, owner); b != 6*price {
		t.Errorf("owner balance %d, expected %d", b, 6*price)
	}

	entries, err := reg.Transactions(ctx, "concert")
	if err != nil {
		t.Fatalf("Transactions failed: %v", err)
	}
	want := []ledger.EntryKind{
		ledger.EntryCreateEvent, ledger.EntryBuy, ledger.EntryBuy,
		ledger.EntryStopSale, ledger.EntryAddTickets, ledger.EntryWithdraw,
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, kind := range want {
		if entries[i].Kind != kind {
			t.Errorf("entry %d: expected %s, got %s", i, kind, entries[i].Kind)
		}
	}
}

func TestLedgerStoreRefundRollback(t *testing.T) {
	ctx := context.Background()
	reg, store := setupStore(t)
	reg.CreateEvent(ctx, owner, "concert", 10, 100)
	deposit(t, store, buyerA, 1000)
	if err := store.SetReceiveBlocked(ctx, buyerA, true); err != nil {
		t.Fatalf("SetReceiveBlocked failed: %v", err)
	}

	if _, err := reg.BuyTickets(ctx, "concert", buyerA, 2, 300); !errors.Is(err, ledger.ErrTransferRejected) {
		t.Fatalf("expected ErrTransferRejected, got %v", err)
	}
	info, _ := reg.EventInfo(ctx, "concert")
	if info.AvailableTickets != 10 || info.BalanceCollected != 0 {
		t.Errorf("event changed: %+v", info)
	}
	if n, _ := reg.Tickets(ctx, "concert", buyerA); n != 0 {
		t.Errorf("buyer kept %d tickets", n)
	}
	if b := balance(t, store, buyerA); b != 1000 {
		t.Errorf("debit not rolled back: %d", b)
	}
	if entries, _ := reg.Transactions(ctx, "concert"); len(entries) != 1 {
		t.Errorf("rolled back call left log rows: %d", len(entries))
	}

	store.SetReceiveBlocked(ctx, buyerA, false)
	p, err := reg.BuyTickets(ctx, "concert", buyerA, 2, 300)
	if err != nil {
		t.Fatalf("BuyTickets failed: %v", err)
	}
	if p.Refund != 100 || balance(t, store, buyerA) != 800 {
		t.Errorf("expected refund 100 and balance 800, got %+v and %d", p, balance(t, store, buyerA))
	}
}

func TestLedgerStoreInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	reg, store := setupStore(t)
	reg.CreateEvent(ctx, owner, "concert", 10, 100)
	deposit(t, store, buyerA, 99)

	if _, err := reg.BuyTickets(ctx, "concert", buyerA, 1, 100); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if _, err := reg.BuyTickets(ctx, "concert", buyerB, 1, 100); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds for unfunded account, got %v", err)
	}
	if n, _ := reg.AvailableTickets(ctx, "concert"); n != 10 {
		t.Errorf("supply changed: %d", n)
	}
}

func TestLedgerStoreLargeAmounts(t *testing.T) {
	ctx := context.Background()
	reg, store := setupStore(t)
	const supply = uint64(1) << 63

	if _, err := reg.CreateEvent(ctx, owner, "overflow", supply, 2); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	deposit(t, store, buyerA, 10)

	_, err := reg.BuyTickets(ctx, "overflow", buyerA, supply, 1)
	if !errors.Is(err, ledger.ErrArithmeticOverflow) {
		t.Fatalf("expected ErrArithmeticOverflow, got %v", err)
	}
	n, err := reg.AvailableTickets(ctx, "overflow")
	if err != nil || n != supply {
		t.Fatalf("supply not preserved: %d (%v)", n, err)
	}
	if err := reg.AddTickets(ctx, "overflow", owner, supply-1); err != nil {
		t.Fatalf("AddTickets failed: %v", err)
	}
	if n, _ := reg.AvailableTickets(ctx, "overflow"); n != 1<<64-1 {
		t.Errorf("expected max uint64 supply, got %d", n)
	}
	if err := reg.AddTickets(ctx, "overflow", owner, 1); !errors.Is(err, ledger.ErrArithmeticOverflow) {
		t.Errorf("expected ErrArithmeticOverflow, got %v", err)
	}
}

func TestLedgerStoreRouting(t *testing.T) {
	ctx := context.Background()
	reg, store := setupStore(t)

	reg.CreateEvent(ctx, owner, "concert", 1, 1)
	reg.CreateEvent(ctx, owner, "festival", 1, 1)
	if _, err := reg.CreateEvent(ctx, buyerA, "concert", 5, 5); !errors.Is(err, ledger.ErrDuplicateEvent) {
		t.Errorf("expected ErrDuplicateEvent, got %v", err)
	}

	ids, err := reg.Events(ctx)
	if err != nil || len(ids) != 2 || ids[0] != "concert" || ids[1] != "festival" {
		t.Errorf("unexpected ids %v (%v)", ids, err)
	}
	if _, err := reg.EventInfo(ctx, "missing"); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := reg.Tickets(ctx, "missing", buyerA); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("expected ErrNotFound for tickets, got %v", err)
	}
	if err := reg.StopSale(ctx, "missing", owner); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("expected ErrNotFound for stop, got %v", err)
	}
	if n, err := reg.Tickets(ctx, "concert", buyerB); err != nil || n != 0 {
		t.Errorf("expected 0 tickets for unknown holder, got %d (%v)", n, err)
	}

	deposit(t, store, buyerA, 5)
	deposit(t, store, buyerA, 7)
	deposits, err := store.Deposits(ctx, buyerA)
	if err != nil || len(deposits) != 2 || deposits[1].Amount != 7 {
		t.Errorf("unexpected deposits %+v (%v)", deposits, err)
	}
	if balance(t, store, buyerA) != 12 {
		t.Errorf("expected balance 12, got %d", balance(t, store, buyerA))
	}
}

func TestLedgerStoreList(t *testing.T) {
	ctx := context.Background()
	reg, store := setupStore(t)

	if events, err := reg.ListEvents(ctx); err != nil || len(events) != 0 {
		t.Fatalf("expected no events, got %+v (%v)", events, err)
	}

	reg.CreateEvent(ctx, owner, "festival", 10, 50)
	reg.CreateEvent(ctx, owner, "concert", 5, 100)
	deposit(t, store, buyerA, 1000)
	if _, err := reg.BuyTickets(ctx, "concert", buyerA, 2, 200); err != nil {
		t.Fatalf("BuyTickets failed: %v", err)
	}

	events, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(events) != 2 || events[0].ID != "festival" || events[1].ID != "concert" {
		t.Fatalf("unexpected events: %+v", events)
	}
	if events[1].Owner != owner || events[1].AvailableTickets != 3 || events[1].BalanceCollected != 200 {
		t.Errorf("unexpected concert: %+v", events[1])
	}
}
