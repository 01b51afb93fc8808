package postgres

import (
	"context"
	"database/sql"
)

// InitSchema creates the ledger tables if they do not exist. Safe to run on
// every startup.
func InitSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS trips (
			id VARCHAR(64) PRIMARY KEY,
			rider_id VARCHAR(64) NOT NULL,
			driver_id VARCHAR(64) NOT NULL DEFAULT '',
			status VARCHAR(32) NOT NULL,
			fare NUMERIC(12,2) NOT NULL DEFAULT 0,
			currency VARCHAR(8) NOT NULL DEFAULT 'USD',
			requested_at TIMESTAMPTZ,
			accepted_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			cancelled_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS payment_holds (
			id VARCHAR(64) PRIMARY KEY,
			trip_id VARCHAR(64) NOT NULL UNIQUE,
			rider_id VARCHAR(64) NOT NULL,
			amount NUMERIC(12,2) NOT NULL,
			refunded_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			currency VARCHAR(8) NOT NULL,
			status VARCHAR(32) NOT NULL,
			hold_ref VARCHAR(128) NOT NULL DEFAULT '',
			capture_ref VARCHAR(128) NOT NULL DEFAULT '',
			last_event_id VARCHAR(128) NOT NULL DEFAULT '',
			last_refund_key VARCHAR(128) NOT NULL DEFAULT '',
			settled BOOLEAN NOT NULL DEFAULT FALSE,
			placed_at TIMESTAMPTZ,
			captured_at TIMESTAMPTZ,
			released_at TIMESTAMPTZ,
			refunded_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_holds_status ON payment_holds(status)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_holds_hold_ref ON payment_holds(hold_ref)`,
		`CREATE TABLE IF NOT EXISTS hold_transitions (
			id VARCHAR(64) PRIMARY KEY,
			hold_id VARCHAR(64) NOT NULL,
			from_status VARCHAR(32) NOT NULL,
			to_status VARCHAR(32) NOT NULL,
			actor VARCHAR(16) NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_hold_transitions_hold ON hold_transitions(hold_id, occurred_at)`,
		`CREATE TABLE IF NOT EXISTS strikes (
			id VARCHAR(64) PRIMARY KEY,
			driver_id VARCHAR(64) NOT NULL,
			trip_id VARCHAR(64) NOT NULL,
			type VARCHAR(32) NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			severity VARCHAR(16) NOT NULL,
			status VARCHAR(16) NOT NULL,
			issued_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_strikes_driver_status ON strikes(driver_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_strikes_trip_type ON strikes(trip_id, type)`,
		`CREATE TABLE IF NOT EXISTS suspensions (
			id VARCHAR(64) PRIMARY KEY,
			driver_id VARCHAR(64) NOT NULL,
			type VARCHAR(16) NOT NULL,
			status VARCHAR(16) NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			strike_ids TEXT[] NOT NULL DEFAULT '{}',
			started_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_suspensions_one_active
			ON suspensions(driver_id) WHERE status = 'ACTIVE'`,
		`CREATE TABLE IF NOT EXISTS disputes (
			id VARCHAR(64) PRIMARY KEY,
			trip_id VARCHAR(64) NOT NULL,
			hold_id VARCHAR(64) NOT NULL,
			raised_by VARCHAR(64) NOT NULL,
			status VARCHAR(16) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			requested_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			resolution TEXT NOT NULL DEFAULT '',
			resolved_by VARCHAR(64) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			resolved_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_disputes_trip ON disputes(trip_id)`,
		`CREATE TABLE IF NOT EXISTS appeals (
			id VARCHAR(64) PRIMARY KEY,
			driver_id VARCHAR(64) NOT NULL,
			strike_id VARCHAR(64) NOT NULL DEFAULT '',
			suspension_id VARCHAR(64) NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			resolution TEXT NOT NULL DEFAULT '',
			resolved_by VARCHAR(64) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			resolved_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS drivers (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(128) NOT NULL DEFAULT '',
			phone VARCHAR(32) NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL DEFAULT 'OFFLINE',
			eligible BOOLEAN NOT NULL DEFAULT TRUE
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
