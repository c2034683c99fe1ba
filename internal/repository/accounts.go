package repository

import (
	"context"
	"database/sql"

	"campushub/internal/database"
	"campushub/internal/models"
)

type SettlementAccountRepository struct {
	db *database.DB
}

func NewSettlementAccountRepository(db *database.DB) *SettlementAccountRepository {
	return &SettlementAccountRepository{db: db}
}

func (r *SettlementAccountRepository) GetByOrganiser(ctx context.Context, organiserID int64) (*models.SettlementAccount, error) {
	account := &models.SettlementAccount{}
	query := `
		SELECT organiser_id, account_id, card_payments_enabled, transfers_enabled,
		       payouts_enabled, onboarding_complete, created_at, updated_at
		FROM settlement_accounts
		WHERE organiser_id = $1`

	err := r.db.QueryRowContext(ctx, query, organiserID).Scan(
		&account.OrganiserID,
		&account.AccountID,
		&account.CardPaymentsEnabled,
		&account.TransfersEnabled,
		&account.PayoutsEnabled,
		&account.OnboardingComplete,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return account, err
}

func (r *SettlementAccountRepository) Create(ctx context.Context, account *models.SettlementAccount) error {
	query := `
		INSERT INTO settlement_accounts (organiser_id, account_id, card_payments_enabled,
		                                 transfers_enabled, payouts_enabled, onboarding_complete)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		account.OrganiserID,
		account.AccountID,
		account.CardPaymentsEnabled,
		account.TransfersEnabled,
		account.PayoutsEnabled,
		account.OnboardingComplete,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
}

// UpdateFlags refreshes the cached capability flags from processor truth.
// Last write wins: the record is always refreshed from the authoritative
// account object before being trusted.
func (r *SettlementAccountRepository) UpdateFlags(ctx context.Context, account *models.SettlementAccount) error {
	query := `
		UPDATE settlement_accounts
		SET card_payments_enabled = $1, transfers_enabled = $2, payouts_enabled = $3,
		    onboarding_complete = $4, updated_at = NOW()
		WHERE organiser_id = $5`

	_, err := r.db.ExecContext(ctx, query,
		account.CardPaymentsEnabled,
		account.TransfersEnabled,
		account.PayoutsEnabled,
		account.OnboardingComplete,
		account.OrganiserID,
	)

	return err
}
