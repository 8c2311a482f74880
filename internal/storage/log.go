// Package storage persists an audit trail of activation lifecycle events.
// The log is optional: a nil Log drops every write, so the bot runs fine
// without a database.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"smsrent/internal/logger"
)

// Lifecycle events recorded in the activation log.
const (
	EventRequested = "requested"
	EventCode      = "code_received"
	EventCancelled = "cancelled"
)

// Entry is one activation lifecycle event.
type Entry struct {
	ID           int64     `db:"id"`
	UserID       int64     `db:"user_id"`
	ActivationID string    `db:"activation_id"`
	Service      string    `db:"service"`
	CountryID    int       `db:"country_id"`
	Phone        string    `db:"phone"`
	Event        string    `db:"event"`
	SMSCode      string    `db:"sms_code"`
	CreatedAt    time.Time `db:"created_at"`
}

// Log appends activation lifecycle events to Postgres.
type Log struct {
	db *sqlx.DB
}

// NewLog wraps an open database handle.
func NewLog(db *sqlx.DB) *Log {
	return &Log{db: db}
}

// Record appends one lifecycle event. A nil receiver is a no-op; a write
// failure is logged and swallowed since the audit trail must never break the
// user interaction that produced it.
func (l *Log) Record(ctx context.Context, e Entry) {
	if l == nil || l.db == nil {
		return
	}
	const q = `
		INSERT INTO activation_log (user_id, activation_id, service, country_id, phone, event, sms_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`
	if _, err := l.db.ExecContext(ctx, q,
		e.UserID, e.ActivationID, e.Service, e.CountryID, e.Phone, e.Event, e.SMSCode,
	); err != nil {
		logger.DB.Warn("activation log write failed",
			slog.String("event", "db.activation_log"),
			slog.String("activation_id", e.ActivationID),
			slog.String("err", err.Error()),
		)
	}
}

// Recent returns the latest lifecycle events for a user, newest first.
func (l *Log) Recent(ctx context.Context, userID int64, limit int) ([]Entry, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	const q = `
		SELECT id, user_id, activation_id, service, country_id, phone, event, sms_code, created_at
		FROM activation_log
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	var out []Entry
	if err := l.db.SelectContext(ctx, &out, q, userID, limit); err != nil {
		return nil, fmt.Errorf("activation log select: %w", err)
	}
	return out, nil
}
