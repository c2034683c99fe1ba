package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "campushub/internal/errors"
	"campushub/internal/external"
	"campushub/internal/logger"
	"campushub/internal/models"
)

const statusCacheTTL = 60 * time.Second

type SettlementService struct {
	accounts  AccountStore
	processor ProcessorClient
	cache     StatusCache
}

func NewSettlementService(accounts AccountStore, processor ProcessorClient, cache StatusCache) *SettlementService {
	return &SettlementService{
		accounts:  accounts,
		processor: processor,
		cache:     cache,
	}
}

// DeriveStatus maps a processor account object onto the categorical
// onboarding state. Precedence: disabled > more info required > approved.
// A nil account means onboarding never started.
func DeriveStatus(state *external.AccountState) models.SettlementStatus {
	switch {
	case state == nil:
		return models.SettlementNotStarted
	case state.DisabledReason != "":
		return models.SettlementDisabled
	case len(state.OutstandingRequirements) > 0:
		return models.SettlementMoreInfoRequired
	default:
		return models.SettlementApproved
	}
}

// EnsureAccount returns the organiser's settlement sub-account, creating it
// on first use, together with a fresh onboarding link. Accounts are never
// deleted, only updated.
func (s *SettlementService) EnsureAccount(ctx context.Context, organiserID int64) (*models.CreateSettlementAccountResponse, error) {
	account, err := s.accounts.GetByOrganiser(ctx, organiserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement account: %w", err)
	}

	if account == nil {
		state, err := s.processor.CreateAccount(ctx, organiserID)
		if err != nil {
			return nil, fmt.Errorf("failed to create settlement account: %w", err)
		}

		account = &models.SettlementAccount{
			OrganiserID:         organiserID,
			AccountID:           state.ID,
			CardPaymentsEnabled: state.CardPaymentsEnabled,
			TransfersEnabled:    state.TransfersEnabled,
			PayoutsEnabled:      state.PayoutsEnabled,
			OnboardingComplete:  state.DetailsSubmitted,
		}
		if err := s.accounts.Create(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to store settlement account: %w", err)
		}

		logger.WithContext(ctx).Info("Created settlement account",
			"organiser_id", organiserID,
			"account_id", state.ID)
	}

	onboardingURL, err := s.processor.CreateOnboardingLink(ctx, account.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to create onboarding link: %w", err)
	}

	return &models.CreateSettlementAccountResponse{
		AccountID:     account.AccountID,
		OnboardingURL: onboardingURL,
	}, nil
}

// Status computes the organiser's settlement onboarding state from the
// processor's live account object. The local record and the Redis snapshot
// are read-through caches; neither is trusted as the source of truth. When
// the processor cannot be reached the status is inconclusive, never
// not_started, so callers do not prompt re-onboarding by mistake.
func (s *SettlementService) Status(ctx context.Context, organiserID int64) (*models.SettlementStatusResponse, error) {
	account, err := s.accounts.GetByOrganiser(ctx, organiserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement account: %w", err)
	}
	if account == nil {
		return &models.SettlementStatusResponse{
			HasAccount: false,
			Status:     models.SettlementNotStarted,
		}, nil
	}

	if s.cache != nil {
		cached, err := s.cache.GetSettlementStatus(ctx, organiserID)
		if err != nil {
			logger.WithContext(ctx).Warn("Settlement status cache read failed", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	state, err := s.processor.GetAccount(ctx, account.AccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrProcessorUnavailable) {
			logger.WithContext(ctx).Error("Payment processor unreachable during status check",
				"error", err,
				"organiser_id", organiserID)
			return &models.SettlementStatusResponse{
				HasAccount:          true,
				Status:              models.SettlementInconclusive,
				CardPaymentsEnabled: account.CardPaymentsEnabled,
				TransfersEnabled:    account.TransfersEnabled,
				PayoutsEnabled:      account.PayoutsEnabled,
			}, err
		}
		return nil, fmt.Errorf("failed to get processor account: %w", err)
	}

	status := &models.SettlementStatusResponse{
		HasAccount:          true,
		Status:              DeriveStatus(state),
		CardPaymentsEnabled: state.CardPaymentsEnabled,
		TransfersEnabled:    state.TransfersEnabled,
		PayoutsEnabled:      state.PayoutsEnabled,
	}

	// Refresh the cached flags; last write wins.
	account.CardPaymentsEnabled = state.CardPaymentsEnabled
	account.TransfersEnabled = state.TransfersEnabled
	account.PayoutsEnabled = state.PayoutsEnabled
	account.OnboardingComplete = state.DetailsSubmitted
	if err := s.accounts.UpdateFlags(ctx, account); err != nil {
		logger.WithContext(ctx).Error("Failed to update settlement account flags",
			"error", err,
			"organiser_id", organiserID)
	}

	if s.cache != nil {
		if err := s.cache.SetSettlementStatus(ctx, organiserID, status, statusCacheTTL); err != nil {
			logger.WithContext(ctx).Warn("Settlement status cache write failed", "error", err)
		}
	}

	return status, nil
}

// AccountForCheckout returns the organiser's sub-account if and only if it
// can take a payment right now. A missing or unapproved account refuses the
// checkout with a specific reason; a paid event never silently falls back
// to free registration.
func (s *SettlementService) AccountForCheckout(ctx context.Context, organiserID int64) (*models.SettlementAccount, error) {
	account, err := s.accounts.GetByOrganiser(ctx, organiserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement account: %w", err)
	}
	if account == nil {
		return nil, apperrors.ErrSettlementNotConfigured
	}

	state, err := s.processor.GetAccount(ctx, account.AccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrProcessorUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get processor account: %w", err)
	}

	if DeriveStatus(state) != models.SettlementApproved || !state.CardPaymentsEnabled {
		return nil, apperrors.ErrSettlementNotConfigured
	}

	return account, nil
}
