package service

import (
	"context"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// AccountService defines business logic methods for accounts and
// their entitlement state.
type AccountService interface {
	// Register creates a free-plan account. A referral code that
	// resolves to an existing account credits the referrer; an
	// unknown code registers without one.
	Register(ctx context.Context, acc *model.Account, referrerCode string) (*model.Account, error)
	Get(ctx context.Context, id string) (*model.Account, error)
	// CanPost evaluates the posting entitlement against the current
	// account snapshot. Read-only; CreateListing re-checks the quota
	// atomically when it commits.
	CanPost(ctx context.Context, id string) (model.Entitlement, error)
}

type accountService struct {
	repo   repository.AccountRepository
	events *Events
	logger zerolog.Logger
}

// NewAccountService creates a new AccountService with a scoped logger.
func NewAccountService(repo repository.AccountRepository, events *Events, logger zerolog.Logger) AccountService {
	return &accountService{
		repo:   repo,
		events: events,
		logger: logger.With().Str("service", "AccountService").Logger(),
	}
}

func (s *accountService) Register(ctx context.Context, acc *model.Account, referrerCode string) (*model.Account, error) {
	if err := s.repo.Create(ctx, acc, referrerCode); err != nil {
		s.logger.Error().Err(err).Str("account_id", acc.ID).Msg("Failed to create account")
		return nil, err
	}
	if acc.ReferrerID != nil {
		s.events.RewardGranted(ctx, *acc.ReferrerID, model.RewardRegistration, model.RewardReasonRegistration)
	}
	return acc, nil
}

func (s *accountService) Get(ctx context.Context, id string) (*model.Account, error) {
	acc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", id).Msg("Failed to fetch account")
		return nil, err
	}
	return acc, nil
}

func (s *accountService) CanPost(ctx context.Context, id string) (model.Entitlement, error) {
	acc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", id).Msg("Failed to fetch account for entitlement check")
		return model.Entitlement{}, err
	}
	return acc.CanPost(time.Now()), nil
}
