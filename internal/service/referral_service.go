package service

import (
	"context"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// ReferralService grants the one-time referral rewards. Each trigger
// is guarded by an atomic flag check-and-set in the store, which
// flips the flag and credits the referrer in one transaction; the
// callers that lose the flip are no-ops. A referrer that no longer
// resolves is skipped silently, as that is not a failure of the
// triggering user's own flow.
type ReferralService interface {
	// RewardFirstUpload fires after a listing creation commits.
	RewardFirstUpload(ctx context.Context, accountID string) error
	// RewardSubscription fires after a cash plan purchase completes.
	RewardSubscription(ctx context.Context, accountID string) error
}

type referralService struct {
	accounts repository.AccountRepository
	listings repository.ListingRepository
	events   *Events
	logger   zerolog.Logger
}

// NewReferralService creates a new ReferralService with a scoped logger.
func NewReferralService(accounts repository.AccountRepository, listings repository.ListingRepository, events *Events, logger zerolog.Logger) ReferralService {
	return &referralService{
		accounts: accounts,
		listings: listings,
		events:   events,
		logger:   logger.With().Str("service", "ReferralService").Logger(),
	}
}

func (s *referralService) RewardFirstUpload(ctx context.Context, accountID string) error {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", accountID).Msg("Failed to fetch account for first-upload reward")
		return err
	}
	if acc.FirstItemUploaded {
		return nil
	}
	count, err := s.listings.CountByCreator(ctx, accountID)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", accountID).Msg("Failed to count listings for first-upload reward")
		return err
	}
	if count < 1 {
		return nil
	}
	won, err := s.accounts.MarkFirstItemUploaded(ctx, accountID, model.RewardFirstUpload, model.RewardReasonFirstUpload)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", accountID).Msg("Failed to grant first-upload reward")
		return err
	}
	if !won {
		// Another request flipped the flag first.
		return nil
	}
	s.announce(ctx, acc, model.RewardFirstUpload, model.RewardReasonFirstUpload)
	return nil
}

func (s *referralService) RewardSubscription(ctx context.Context, accountID string) error {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", accountID).Msg("Failed to fetch account for subscription reward")
		return err
	}
	if acc.SubscriptionPurchased {
		return nil
	}
	won, err := s.accounts.MarkSubscriptionPurchased(ctx, accountID, model.RewardSubscription, model.RewardReasonSubscription)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", accountID).Msg("Failed to grant subscription reward")
		return err
	}
	if !won {
		return nil
	}
	s.announce(ctx, acc, model.RewardSubscription, model.RewardReasonSubscription)
	return nil
}

func (s *referralService) announce(ctx context.Context, acc *model.Account, amount int, reason string) {
	if acc.ReferrerID == nil {
		return
	}
	s.events.RewardGranted(ctx, *acc.ReferrerID, amount, reason)
}
