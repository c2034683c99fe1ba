package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createEventsTable,
		createTicketTypesTable,
		createRegistrationsTable,
		createSettlementAccountsTable,
		createReminderJobsTable,
		createRegistrationsActiveIndex,
		createRegistrationsTicketIndex,
		createReminderJobsDueIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id BIGSERIAL PRIMARY KEY,
    title VARCHAR(500) NOT NULL,
    description TEXT,
    organiser_id BIGINT NOT NULL,
    organiser_institution VARCHAR(255) NOT NULL DEFAULT '',
    capacity INTEGER,
    paid BOOLEAN NOT NULL DEFAULT FALSE,
    start_at TIMESTAMPTZ NOT NULL,
    end_at TIMESTAMPTZ,
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createTicketTypesTable = `
CREATE TABLE IF NOT EXISTS ticket_types (
    id BIGSERIAL PRIMARY KEY,
    event_id BIGINT NOT NULL REFERENCES events(id),
    name VARCHAR(255) NOT NULL,
    price_ref VARCHAR(255) NOT NULL,
    price_amount BIGINT NOT NULL,
    currency VARCHAR(8) NOT NULL,
    quantity INTEGER,
    release_start TIMESTAMPTZ,
    release_end TIMESTAMPTZ,
    release_order INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createRegistrationsTable = `
CREATE TABLE IF NOT EXISTS registrations (
    id BIGSERIAL PRIMARY KEY,
    event_id BIGINT NOT NULL REFERENCES events(id),
    user_id BIGINT NOT NULL,
    ticket_type_id BIGINT REFERENCES ticket_types(id),
    name VARCHAR(255) NOT NULL DEFAULT '',
    email VARCHAR(255) NOT NULL,
    institution VARCHAR(255) NOT NULL DEFAULT '',
    external BOOLEAN NOT NULL DEFAULT FALSE,
    cancelled BOOLEAN NOT NULL DEFAULT FALSE,
    cancelled_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createSettlementAccountsTable = `
CREATE TABLE IF NOT EXISTS settlement_accounts (
    organiser_id BIGINT PRIMARY KEY,
    account_id VARCHAR(255) NOT NULL,
    card_payments_enabled BOOLEAN NOT NULL DEFAULT FALSE,
    transfers_enabled BOOLEAN NOT NULL DEFAULT FALSE,
    payouts_enabled BOOLEAN NOT NULL DEFAULT FALSE,
    onboarding_complete BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createReminderJobsTable = `
CREATE TABLE IF NOT EXISTS reminder_jobs (
    id BIGSERIAL PRIMARY KEY,
    event_id BIGINT NOT NULL REFERENCES events(id),
    user_id BIGINT NOT NULL,
    email VARCHAR(255) NOT NULL,
    event_title VARCHAR(500) NOT NULL DEFAULT '',
    fire_at TIMESTAMPTZ NOT NULL,
    attempts INTEGER NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// One active registration per (event, user). Cancelled rows stay behind for
// stats and do not block re-registration.
const createRegistrationsActiveIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS registrations_active_unique
    ON registrations (event_id, user_id)
    WHERE NOT cancelled;`

// Speeds up per-release sold counts on the paid registration path.
const createRegistrationsTicketIndex = `
CREATE INDEX IF NOT EXISTS registrations_ticket_type
    ON registrations (ticket_type_id)
    WHERE NOT cancelled;`

const createReminderJobsDueIndex = `
CREATE INDEX IF NOT EXISTS reminder_jobs_due
    ON reminder_jobs (fire_at)
    WHERE status = 'PENDING';`
