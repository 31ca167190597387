package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"event-tickets/internal/config"
	"event-tickets/internal/logger"
)

// reconcile audits a postgres ledger: every minted unit is either in an
// account or collected by an event, and every event's tickets are either sold
// or still available.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	if cfg.Database.Driver != "postgres" {
		logger.Fatal("reconcile only supports DB_DRIVER=postgres")
	}

	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// one consistent snapshot for every query below
	tx, err := db.BeginTx(ctx, snapshotOptions)
	if err != nil {
		logger.Fatal("Failed to begin transaction", "error", err)
	}
	defer tx.Rollback()

	ok := checkValue(tx)
	ok = checkTickets(tx) && ok
	if !ok {
		os.Exit(1)
	}
	logger.Get().Info("Ledger reconciled")
}

var snapshotOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

func sum(tx *sql.Tx, query string, args ...any) decimal.Decimal {
	var s sql.NullString
	if err := tx.QueryRow(query, args...).Scan(&s); err != nil {
		logger.Fatal("Query failed", "query", query, "error", err)
	}
	if !s.Valid {
		return decimal.Zero
	}
	return decimal.RequireFromString(s.String)
}

func checkValue(tx *sql.Tx) bool {
	minted := sum(tx, "SELECT SUM(amount) FROM ledger_transactions WHERE kind = 'DEPOSIT'")
	held := sum(tx, "SELECT SUM(balance) FROM accounts")
	collected := sum(tx, "SELECT SUM(balance_collected) FROM event_sales")

	log := logger.WithFields("minted", minted.String(), "held", held.String(), "collected", collected.String())
	if !held.Add(collected).Equal(minted) {
		log.Error("Value not conserved")
		return false
	}
	log.Info("Value conserved")
	return true
}

func checkTickets(tx *sql.Tx) bool {
	rows, err := tx.Query("SELECT event_id, available_tickets FROM event_sales ORDER BY seq")
	if err != nil {
		logger.Fatal("Failed to list events", "error", err)
	}
	type event struct {
		id        string
		available decimal.Decimal
	}
	var events []event
	for rows.Next() {
		var id, available string
		if err := rows.Scan(&id, &available); err != nil {
			logger.Fatal("Failed to scan event", "error", err)
		}
		events = append(events, event{id: id, available: decimal.RequireFromString(available)})
	}
	if err := rows.Err(); err != nil {
		logger.Fatal("Failed to list events", "error", err)
	}
	rows.Close()

	ok := true
	for _, ev := range events {
		issued := sum(tx, "SELECT SUM(quantity) FROM ledger_transactions WHERE event_id = $1 AND kind IN ('CREATE_EVENT', 'ADD_TICKETS')", ev.id)
		sold := sum(tx, "SELECT SUM(quantity) FROM ticket_holdings WHERE event_id = $1", ev.id)
		if !sold.Add(ev.available).Equal(issued) {
			logger.Get().Error("Tickets not conserved",
				"event_id", ev.id,
				"issued", issued.String(),
				"sold", sold.String(),
				"available", ev.available.String())
			ok = false
		}
	}
	logger.Get().Info("Tickets checked", "events", len(events))
	return ok
}
