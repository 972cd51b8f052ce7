// Package pg archives marketplace events and payments in Postgres. The
// archive is write-behind: the in-memory service stays authoritative and
// archive failures never block marketplace operations.
package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"rentledger.org/internal/market"
	"rentledger.org/internal/stream"
)

// Archive persists the event and payment history.
type Archive struct {
	db *sql.DB
}

// Open connects to Postgres using the pgx stdlib driver.
func Open(dsn string) (*Archive, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Archive{db: db}, nil
}

// NewArchive wraps an existing connection pool. Used by tests.
func NewArchive(db *sql.DB) *Archive {
	return &Archive{db: db}
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// Ping verifies database connectivity for readiness checks.
func (a *Archive) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// RecordEvent appends one marketplace event to the archive.
func (a *Archive) RecordEvent(ctx context.Context, ev stream.Event) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO marketplace_events (event_type, property_id, contract_id, amount, occurred_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		string(ev.Type), ev.PropertyID, ev.ContractID, ev.Amount, ev.Timestamp)
	if err != nil {
		return fmt.Errorf("record event %s: %w", ev.Type, err)
	}
	return nil
}

// RecordPayment appends one escrow payment to the archive.
func (a *Archive) RecordPayment(ctx context.Context, p market.Payment) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO payments_archive (payment_id, kind, contract_id, amount, paid_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Kind.String(), p.ContractID, p.Amount, p.PaidAt.UTC())
	if err != nil {
		return fmt.Errorf("record payment %d: %w", p.ID, err)
	}
	return nil
}

// RecentEvents returns the newest archived events, newest first.
func (a *Archive) RecentEvents(ctx context.Context, limit int) ([]stream.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT event_type, property_id, contract_id, amount, occurred_at
		 FROM marketplace_events ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []stream.Event
	for rows.Next() {
		var (
			ev         stream.Event
			eventType  string
			propertyID sql.NullInt64
			contractID sql.NullInt64
			amount     sql.NullInt64
		)
		if err := rows.Scan(&eventType, &propertyID, &contractID, &amount, &ev.Timestamp); err != nil {
			return nil, err
		}
		ev.Type = stream.EventType(eventType)
		ev.PropertyID = uint64(propertyID.Int64)
		ev.ContractID = uint64(contractID.Int64)
		ev.Amount = amount.Int64
		out = append(out, ev)
	}
	return out, rows.Err()
}
