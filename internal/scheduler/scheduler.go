package scheduler

import (
	"context"
	"sync"
	"time"

	"app/internal/config"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// Scheduler drives the periodic maintenance jobs: the monthly
// free-plan reset, expired-listing deactivation, OTP purging and chat
// purging. Each job runs on its own ticker so one slow or failing job
// never delays the others.
type Scheduler struct {
	cfg      *config.Config
	accounts repository.AccountRepository
	listings repository.ListingRepository
	otps     repository.OTPRepository
	chats    repository.ChatRepository
	logger   zerolog.Logger
}

func New(
	cfg *config.Config,
	accounts repository.AccountRepository,
	listings repository.ListingRepository,
	otps repository.OTPRepository,
	chats repository.ChatRepository,
	logger zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		accounts: accounts,
		listings: listings,
		otps:     otps,
		chats:    chats,
		logger:   logger.With().Str("service", "Scheduler").Logger(),
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info().Msg("Starting scheduler")

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runMonthlyReset(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runInterval(ctx, "listing_deactivation",
			time.Duration(s.cfg.ListingExpiryIntervalHours)*time.Hour,
			func(ctx context.Context) (int64, error) {
				return s.listings.DeactivateExpired(ctx, time.Now())
			})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runInterval(ctx, "otp_purge",
			time.Duration(s.cfg.OTPPurgeIntervalHours)*time.Hour,
			func(ctx context.Context) (int64, error) {
				return s.otps.PurgeStale(ctx, time.Duration(s.cfg.OTPMaxAgeHours)*time.Hour)
			})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runInterval(ctx, "chat_purge",
			time.Duration(s.cfg.ChatPurgeIntervalHours)*time.Hour,
			func(ctx context.Context) (int64, error) {
				return s.chats.PurgeExpired(ctx)
			})
	}()

	wg.Wait()
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// runInterval runs one job on a fixed period. Failures are logged and
// the next tick retries.
func (s *Scheduler) runInterval(ctx context.Context, job string, every time.Duration, fn func(context.Context) (int64, error)) {
	logger := s.logger.With().Str("job", job).Logger()
	logger.Info().Str("interval", every.String()).Msg("Job scheduled")

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Job stopped")
			return
		case <-ticker.C:
			n, err := fn(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("Job run failed")
				continue
			}
			logger.Info().Int64("affected", n).Msg("Job run complete")
		}
	}
}

// runMonthlyReset fires at midnight on the first of every month,
// moving free-tier accounts onto the monthly free plan.
func (s *Scheduler) runMonthlyReset(ctx context.Context) {
	logger := s.logger.With().Str("job", "monthly_free_reset").Logger()

	for {
		next := nextMonthStart(time.Now())
		logger.Info().Time("next_run", next).Msg("Job scheduled")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info().Msg("Job stopped")
			return
		case <-timer.C:
			n, err := s.accounts.ResetFreePlans(ctx, time.Now())
			if err != nil {
				logger.Error().Err(err).Msg("Job run failed")
				continue
			}
			logger.Info().Int64("affected", n).Msg("Job run complete")
		}
	}
}

// nextMonthStart returns midnight on the first of the month after now.
func nextMonthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
}
