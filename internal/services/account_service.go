package services

import (
	"context"
	"errors"
	"time"

	"event-tickets/internal/ledger"
	"event-tickets/internal/logger"
)

var (
	ErrFaucetDisabled = errors.New("faucet is disabled")
	ErrInvalidAmount  = errors.New("amount must be positive")
)

// AccountView is an account's balance, transfer setting and deposit history
type AccountView struct {
	Address        ledger.Address
	Balance        uint64
	ReceiveBlocked bool
	Deposits       []ledger.Entry
}

// AccountService manages the currency accounts payments move between
type AccountService struct {
	accounts      ledger.Accounts
	faucetEnabled bool
	now           func() time.Time
}

// NewAccountService creates a new AccountService
func NewAccountService(accounts ledger.Accounts, faucetEnabled bool) *AccountService {
	return &AccountService{
		accounts:      accounts,
		faucetEnabled: faucetEnabled,
		now:           time.Now,
	}
}

func (s *AccountService) GetAccount(ctx context.Context, addr ledger.Address) (*AccountView, error) {
	balance, err := s.accounts.Balance(ctx, addr)
	if err != nil {
		return nil, err
	}
	blocked, err := s.accounts.ReceiveBlocked(ctx, addr)
	if err != nil {
		return nil, err
	}
	deposits, err := s.accounts.Deposits(ctx, addr)
	if err != nil {
		return nil, err
	}
	return &AccountView{
		Address:        addr,
		Balance:        balance,
		ReceiveBlocked: blocked,
		Deposits:       deposits,
	}, nil
}

// Deposit credits amount to addr from the faucet
func (s *AccountService) Deposit(ctx context.Context, addr ledger.Address, amount uint64) (uint64, error) {
	if !s.faucetEnabled {
		return 0, ErrFaucetDisabled
	}
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	balance, err := s.accounts.Deposit(ctx, addr, amount, ledger.NewDepositEntry(addr, amount, s.now()))
	if err != nil {
		logger.WithContext(ctx).Warn("Deposit failed", "address", addr.String(), "amount", amount, "error", err)
		return 0, err
	}
	logger.WithContext(ctx).Info("Deposit credited", "address", addr.String(), "amount", amount, "balance", balance)
	return balance, nil
}

// SetReceiveBlocked sets whether addr refuses incoming transfers
func (s *AccountService) SetReceiveBlocked(ctx context.Context, addr ledger.Address, blocked bool) error {
	if err := s.accounts.SetReceiveBlocked(ctx, addr, blocked); err != nil {
		return err
	}
	logger.WithContext(ctx).Info("Receive setting changed", "address", addr.String(), "blocked", blocked)
	return nil
}
