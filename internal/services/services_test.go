package services

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/mr-tron/base58"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"event-tickets/internal/ledger"
	"event-tickets/internal/metrics"
	"event-tickets/internal/models"
)

const (
	owner ledger.Address = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	buyer ledger.Address = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.User{}, &models.LoginChallenge{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func setupServices(t *testing.T) (*TicketService, *AccountService, *metrics.Metrics) {
	t.Helper()
	store := ledger.NewMemoryStore()
	m := metrics.New()
	return NewTicketService(ledger.NewRegistry(store), m), NewAccountService(store, true), m
}

func TestTicketServiceCountsCalls(t *testing.T) {
	ctx := context.Background()
	tickets, accounts, m := setupServices(t)

	if _, err := tickets.CreateEvent(ctx, owner, "concert", 5, 100); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	if _, err := accounts.Deposit(ctx, buyer, 1000); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if _, err := tickets.BuyTickets(ctx, "concert", buyer, 2, 250); err != nil {
		t.Fatalf("BuyTickets failed: %v", err)
	}
	if err := tickets.StopSale(ctx, "concert", buyer); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if amount, err := tickets.WithdrawFunds(ctx, "concert", owner); err != nil || amount != 200 {
		t.Fatalf("WithdrawFunds: got %d, %v", amount, err)
	}

	expected := `
# HELP tickets_sold_total Tickets sold.
# TYPE tickets_sold_total counter
tickets_sold_total 2
# HELP tickets_refunded_units_total Overpayment refunded to buyers, in base units.
# TYPE tickets_refunded_units_total counter
tickets_refunded_units_total 50
# HELP tickets_withdrawn_units_total Collected balance paid out to owners, in base units.
# TYPE tickets_withdrawn_units_total counter
tickets_withdrawn_units_total 200
`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"tickets_sold_total", "tickets_refunded_units_total", "tickets_withdrawn_units_total")
	if err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}

	calls := `
# HELP tickets_calls_total Ledger calls by operation and result code.
# TYPE tickets_calls_total counter
tickets_calls_total{op="buy_tickets",result="OK"} 1
tickets_calls_total{op="create_event",result="OK"} 1
tickets_calls_total{op="stop_sale",result="UNAUTHORIZED"} 1
tickets_calls_total{op="withdraw_funds",result="OK"} 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(calls), "tickets_calls_total"); err != nil {
		t.Errorf("unexpected call counts: %v", err)
	}
}

func TestListEventsInCreationOrder(t *testing.T) {
	ctx := context.Background()
	tickets, _, _ := setupServices(t)
	for _, id := range []string{"b-show", "a-show", "c-show"} {
		if _, err := tickets.CreateEvent(ctx, owner, id, 1, 1); err != nil {
			t.Fatalf("CreateEvent %s failed: %v", id, err)
		}
	}
	events, err := tickets.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 3 || events[0].ID != "b-show" || events[2].ID != "c-show" {
		t.Errorf("unexpected order: %+v", events)
	}
}

func TestAccountService(t *testing.T) {
	ctx := context.Background()
	_, accounts, _ := setupServices(t)

	if _, err := accounts.Deposit(ctx, buyer, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
	balance, err := accounts.Deposit(ctx, buyer, 500)
	if err != nil || balance != 500 {
		t.Fatalf("Deposit: got %d, %v", balance, err)
	}
	if err := accounts.SetReceiveBlocked(ctx, buyer, true); err != nil {
		t.Fatalf("SetReceiveBlocked failed: %v", err)
	}

	view, err := accounts.GetAccount(ctx, buyer)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if view.Balance != 500 || !view.ReceiveBlocked || len(view.Deposits) != 1 {
		t.Errorf("unexpected view: %+v", view)
	}
	if view.Deposits[0].Kind != ledger.EntryDeposit || view.Deposits[0].Amount != 500 {
		t.Errorf("unexpected deposit entry: %+v", view.Deposits[0])
	}

	disabled := NewAccountService(ledger.NewMemoryStore(), false)
	if _, err := disabled.Deposit(ctx, buyer, 1); !errors.Is(err, ErrFaucetDisabled) {
		t.Errorf("expected ErrFaucetDisabled, got %v", err)
	}
}

func TestProcessWalletLogin(t *testing.T) {
	ctx := context.Background()
	service := NewAuthService(setupTestDB(t), "sign in", time.Minute)

	first, err := service.ProcessWalletLogin(ctx, owner.String())
	if err != nil {
		t.Fatalf("ProcessWalletLogin failed: %v", err)
	}
	second, err := service.ProcessWalletLogin(ctx, owner.String())
	if err != nil {
		t.Fatalf("second ProcessWalletLogin failed: %v", err)
	}
	if first.ID == 0 || first.ID != second.ID {
		t.Errorf("expected same user, got %d and %d", first.ID, second.ID)
	}

	user, err := service.GetUserByID(ctx, first.ID)
	if err != nil || user.WalletAddress != owner.String() {
		t.Errorf("GetUserByID: got %+v, %v", user, err)
	}
}

func TestLoginChallengeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	service := NewAuthService(setupTestDB(t), "sign in", time.Minute)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	wallet := base58.Encode(pub)

	challenge, err := service.IssueChallenge(ctx, wallet)
	if err != nil {
		t.Fatalf("IssueChallenge failed: %v", err)
	}
	if !strings.Contains(challenge.Message, challenge.Nonce.String()) || !strings.HasPrefix(challenge.Message, "sign in") {
		t.Errorf("message does not bind the nonce: %q", challenge.Message)
	}
	sig := base58.Encode(ed25519.Sign(priv, []byte(challenge.Message)))

	if _, err := service.Login(ctx, owner.String(), challenge.Nonce, sig); !errors.Is(err, ErrInvalidChallenge) {
		t.Errorf("other wallet: expected ErrInvalidChallenge, got %v", err)
	}
	user, err := service.Login(ctx, wallet, challenge.Nonce, sig)
	if err != nil || user.WalletAddress != wallet {
		t.Fatalf("Login: got %+v, %v", user, err)
	}
	if _, err := service.Login(ctx, wallet, challenge.Nonce, sig); !errors.Is(err, ErrInvalidChallenge) {
		t.Errorf("reused signature: expected ErrInvalidChallenge, got %v", err)
	}
}

func TestLoginChallengeExpires(t *testing.T) {
	ctx := context.Background()
	service := NewAuthService(setupTestDB(t), "sign in", time.Minute)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	wallet := base58.Encode(pub)

	challenge, err := service.IssueChallenge(ctx, wallet)
	if err != nil {
		t.Fatalf("IssueChallenge failed: %v", err)
	}
	sig := base58.Encode(ed25519.Sign(priv, []byte(challenge.Message)))

	issued := challenge.CreatedAt
	service.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := service.Login(ctx, wallet, challenge.Nonce, sig); !errors.Is(err, ErrInvalidChallenge) {
		t.Errorf("expired challenge: expected ErrInvalidChallenge, got %v", err)
	}
}
