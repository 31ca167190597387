package repository

import (
	"context"
	"errors"
	"fmt"

	"event-tickets/internal/ledger"
	"event-tickets/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerStore persists the ticket ledger with gorm. Every call runs in one
// database transaction holding a row lock on the event record.
type LedgerStore struct {
	db *gorm.DB
}

func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

var (
	_ ledger.Store    = (*LedgerStore)(nil)
	_ ledger.Accounts = (*LedgerStore)(nil)
)

// forUpdate adds SELECT ... FOR UPDATE where the dialect supports it. SQLite
// serializes writers on its own.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Insert creates the event record and its creation log row
func (s *LedgerStore) Insert(ctx context.Context, sale *ledger.EventSale, entry ledger.Entry) error {
	st := sale.State()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.EventSaleRecord{}).Where("event_id = ?", st.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check event: %w", err)
		}
		if count > 0 {
			return ledger.ErrDuplicateEvent
		}

		record := models.EventSaleRecord{
			EventID:          st.ID,
			Owner:            st.Owner.String(),
			TicketPrice:      models.Units(st.TicketPrice),
			AvailableTickets: models.Units(st.AvailableTickets),
			SaleActive:       st.SaleActive,
			BalanceCollected: models.Units(st.BalanceCollected),
			CreatedAt:        st.CreatedAt,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		row := toTransaction(entry)
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, ledger.ErrDuplicateEvent) && s.exists(ctx, st.ID) {
		// lost a race on the unique index
		return ledger.ErrDuplicateEvent
	}
	return err
}

func (s *LedgerStore) exists(ctx context.Context, id string) bool {
	var count int64
	s.db.WithContext(ctx).Model(&models.EventSaleRecord{}).Where("event_id = ?", id).Count(&count)
	return count > 0
}

// Update runs fn against the locked event row. The mutation's log entries and
// outbound transfers are written in the same transaction.
func (s *LedgerStore) Update(ctx context.Context, id string, caller ledger.Address, fn ledger.Mutation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.EventSaleRecord
		err := forUpdate(tx).Where("event_id = ?", id).First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledger.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load event: %w", err)
		}

		holding, err := s.loadHolding(tx, id, caller)
		if err != nil {
			return err
		}

		sale := ledger.RestoreEventSale(ledger.EventSaleState{
			ID:               record.EventID,
			Owner:            ledger.Address(record.Owner),
			TicketPrice:      uint64(record.TicketPrice),
			AvailableTickets: uint64(record.AvailableTickets),
			SaleActive:       record.SaleActive,
			BalanceCollected: uint64(record.BalanceCollected),
			Holdings:         map[ledger.Address]uint64{caller: uint64(holding.Quantity)},
			CreatedAt:        record.CreatedAt,
		})

		txn := &dbTxn{store: s, tx: tx}
		if err := fn(ctx, sale, txn); err != nil {
			return err
		}

		st := sale.State()
		record.AvailableTickets = models.Units(st.AvailableTickets)
		record.SaleActive = st.SaleActive
		record.BalanceCollected = models.Units(st.BalanceCollected)
		if err := tx.Save(&record).Error; err != nil {
			return fmt.Errorf("failed to save event: %w", err)
		}

		if n := models.Units(st.Holdings[caller]); n != holding.Quantity {
			holding.Quantity = n
			if err := tx.Save(holding).Error; err != nil {
				return fmt.Errorf("failed to save holding: %w", err)
			}
		}

		if len(txn.entries) > 0 {
			rows := make([]models.LedgerTransaction, len(txn.entries))
			for i, e := range txn.entries {
				rows[i] = toTransaction(e)
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to record transactions: %w", err)
			}
		}

		for _, t := range txn.sends {
			if err := s.credit(tx, t.to, t.amount); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *LedgerStore) loadHolding(tx *gorm.DB, id string, holder ledger.Address) (*models.TicketHolding, error) {
	var holding models.TicketHolding
	err := tx.Where("event_id = ? AND holder = ?", id, holder.String()).First(&holding).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.TicketHolding{EventID: id, Holder: holder.String()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load holding: %w", err)
	}
	return &holding, nil
}

// Info returns the event's display projection
func (s *LedgerStore) Info(ctx context.Context, id string) (ledger.EventInfo, error) {
	var record models.EventSaleRecord
	err := s.db.WithContext(ctx).Where("event_id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.EventInfo{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.EventInfo{}, fmt.Errorf("failed to load event: %w", err)
	}
	return toEventInfo(record), nil
}

// List loads every event in one query, oldest first
func (s *LedgerStore) List(ctx context.Context) ([]ledger.EventInfo, error) {
	var records []models.EventSaleRecord
	if err := s.db.WithContext(ctx).Order("seq ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	infos := make([]ledger.EventInfo, len(records))
	for i, r := range records {
		infos[i] = toEventInfo(r)
	}
	return infos, nil
}

// IDs returns event identifiers in creation order
func (s *LedgerStore) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.EventSaleRecord{}).
		Order("seq ASC").
		Pluck("event_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return ids, nil
}

// Tickets returns the holder's count, 0 when the holder never bought
func (s *LedgerStore) Tickets(ctx context.Context, id string, holder ledger.Address) (uint64, error) {
	if !s.exists(ctx, id) {
		return 0, ledger.ErrNotFound
	}
	var holding models.TicketHolding
	err := s.db.WithContext(ctx).
		Where("event_id = ? AND holder = ?", id, holder.String()).
		First(&holding).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load holding: %w", err)
	}
	return uint64(holding.Quantity), nil
}

// Entries lists the event's log rows oldest first
func (s *LedgerStore) Entries(ctx context.Context, id string) ([]ledger.Entry, error) {
	if !s.exists(ctx, id) {
		return nil, ledger.ErrNotFound
	}
	var rows []models.LedgerTransaction
	err := s.db.WithContext(ctx).Where("event_id = ?", id).Order("seq ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return toEntries(rows), nil
}

// Balance returns the account balance, 0 for unknown accounts
func (s *LedgerStore) Balance(ctx context.Context, addr ledger.Address) (uint64, error) {
	acct, err := s.findAccount(ctx, addr)
	if err != nil || acct == nil {
		return 0, err
	}
	return uint64(acct.Balance), nil
}

func (s *LedgerStore) ReceiveBlocked(ctx context.Context, addr ledger.Address) (bool, error) {
	acct, err := s.findAccount(ctx, addr)
	if err != nil || acct == nil {
		return false, err
	}
	return acct.ReceiveBlocked, nil
}

func (s *LedgerStore) findAccount(ctx context.Context, addr ledger.Address) (*models.Account, error) {
	var acct models.Account
	err := s.db.WithContext(ctx).Where("address = ?", addr.String()).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return &acct, nil
}

// Deposit mints amount into addr and logs it
func (s *LedgerStore) Deposit(ctx context.Context, addr ledger.Address, amount uint64, entry ledger.Entry) (uint64, error) {
	var balance uint64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acct, err := s.lockAccount(tx, addr)
		if err != nil {
			return err
		}
		next, err := ledger.CheckedAdd(uint64(acct.Balance), amount)
		if err != nil {
			return err
		}
		acct.Balance = models.Units(next)
		if err := tx.Save(acct).Error; err != nil {
			return fmt.Errorf("failed to save account: %w", err)
		}
		row := toTransaction(entry)
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to record deposit: %w", err)
		}
		balance = next
		return nil
	})
	return balance, err
}

// Deposits lists DEPOSIT rows credited to addr oldest first
func (s *LedgerStore) Deposits(ctx context.Context, addr ledger.Address) ([]ledger.Entry, error) {
	var rows []models.LedgerTransaction
	err := s.db.WithContext(ctx).
		Where("kind = ? AND caller = ?", string(ledger.EntryDeposit), addr.String()).
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	return toEntries(rows), nil
}

func (s *LedgerStore) SetReceiveBlocked(ctx context.Context, addr ledger.Address, blocked bool) error {
	acct := models.Account{Address: addr.String(), ReceiveBlocked: blocked}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"receive_blocked", "updated_at"}),
	}).Create(&acct).Error
}

// lockAccount returns addr's account row locked for the rest of tx, creating it if needed.
func (s *LedgerStore) lockAccount(tx *gorm.DB, addr ledger.Address) (*models.Account, error) {
	acct := models.Account{Address: addr.String()}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&acct).Error; err != nil {
		return nil, fmt.Errorf("failed to open account: %w", err)
	}
	if err := forUpdate(tx).Where("address = ?", addr.String()).First(&acct).Error; err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	return &acct, nil
}

func (s *LedgerStore) credit(tx *gorm.DB, to ledger.Address, amount uint64) error {
	acct, err := s.lockAccount(tx, to)
	if err != nil {
		return err
	}
	if acct.ReceiveBlocked {
		return ledger.ErrTransferRejected
	}
	next, err := ledger.CheckedAdd(uint64(acct.Balance), amount)
	if err != nil {
		return err
	}
	acct.Balance = models.Units(next)
	if err := tx.Save(acct).Error; err != nil {
		return fmt.Errorf("failed to credit account: %w", err)
	}
	return nil
}

type transfer struct {
	to     ledger.Address
	amount uint64
}

// dbTxn is the ledger.Txn of one gorm transaction
type dbTxn struct {
	store   *LedgerStore
	tx      *gorm.DB
	sends   []transfer
	entries []ledger.Entry
}

func (t *dbTxn) Debit(ctx context.Context, from ledger.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	acct, err := t.store.lockAccount(t.tx, from)
	if err != nil {
		return err
	}
	if uint64(acct.Balance) < amount {
		return ledger.ErrInsufficientFunds
	}
	acct.Balance -= models.Units(amount)
	if err := t.tx.Save(acct).Error; err != nil {
		return fmt.Errorf("failed to debit account: %w", err)
	}
	return nil
}

func (t *dbTxn) Send(to ledger.Address, amount uint64) {
	t.sends = append(t.sends, transfer{to: to, amount: amount})
}

func (t *dbTxn) Record(e ledger.Entry) {
	t.entries = append(t.entries, e)
}

func toEventInfo(record models.EventSaleRecord) ledger.EventInfo {
	return ledger.EventInfo{
		ID:               record.EventID,
		Owner:            ledger.Address(record.Owner),
		TicketPrice:      uint64(record.TicketPrice),
		AvailableTickets: uint64(record.AvailableTickets),
		SaleActive:       record.SaleActive,
		BalanceCollected: uint64(record.BalanceCollected),
		CreatedAt:        record.CreatedAt.UTC(),
	}
}

func toTransaction(e ledger.Entry) models.LedgerTransaction {
	row := models.LedgerTransaction{
		ID:        e.ID,
		Kind:      string(e.Kind),
		Caller:    e.Caller.String(),
		Quantity:  models.Units(e.Quantity),
		Amount:    models.Units(e.Amount),
		CreatedAt: e.CreatedAt,
	}
	if e.EventID != "" {
		eventID := e.EventID
		row.EventID = &eventID
	}
	return row
}

func toEntries(rows []models.LedgerTransaction) []ledger.Entry {
	entries := make([]ledger.Entry, len(rows))
	for i, r := range rows {
		entries[i] = ledger.Entry{
			ID:        r.ID,
			Kind:      ledger.EntryKind(r.Kind),
			Caller:    ledger.Address(r.Caller),
			Quantity:  uint64(r.Quantity),
			Amount:    uint64(r.Amount),
			CreatedAt: r.CreatedAt.UTC(),
		}
		if r.EventID != nil {
			entries[i].EventID = *r.EventID
		}
	}
	return entries
}
