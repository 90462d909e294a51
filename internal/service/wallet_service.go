package service

import (
	"context"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// WalletService exposes the credit ledger. Amount guards live here;
// atomicity against concurrent calls lives in the store's conditional
// updates.
type WalletService interface {
	Credit(ctx context.Context, accountID string, amount int, reason string) (*model.Account, error)
	// Debit fails with repository.ErrInsufficientFunds when amount
	// exceeds the balance; no entry is written in that case.
	Debit(ctx context.Context, accountID string, amount int, reason string) (*model.Account, error)
}

type walletService struct {
	repo   repository.AccountRepository
	logger zerolog.Logger
}

// NewWalletService creates a new WalletService with a scoped logger.
func NewWalletService(repo repository.AccountRepository, logger zerolog.Logger) WalletService {
	return &walletService{
		repo:   repo,
		logger: logger.With().Str("service", "WalletService").Logger(),
	}
}

func (s *walletService) Credit(ctx context.Context, accountID string, amount int, reason string) (*model.Account, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	acc, err := s.repo.Credit(ctx, accountID, amount, reason)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", accountID).Int("amount", amount).Msg("Failed to credit wallet")
		return nil, err
	}
	return acc, nil
}

func (s *walletService) Debit(ctx context.Context, accountID string, amount int, reason string) (*model.Account, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	acc, err := s.repo.Debit(ctx, accountID, amount, reason)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", accountID).Int("amount", amount).Msg("Failed to debit wallet")
		return nil, err
	}
	return acc, nil
}
