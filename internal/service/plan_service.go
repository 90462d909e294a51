package service

import (
	"context"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// PlanService upgrades accounts onto purchasable plans. Both funding
// paths converge on the store's single apply operation: the plan
// window restarts, the period counter resets and the plan's allotment
// is added on top of any unused quota.
type PlanService interface {
	// ApplyPlanViaCash maps a captured payment amount to a catalog
	// entry and applies it. Fires the one-time subscription reward.
	ApplyPlanViaCash(ctx context.Context, accountID string, amount int) (*model.Account, error)
	// ApplyPlanViaCredits debits the plan's credit price and applies
	// the plan in one transaction; insufficient credits abort the
	// whole operation with no partial mutation.
	ApplyPlanViaCredits(ctx context.Context, accountID string, planType model.PlanType) (*model.Account, error)
	Catalog() []model.Plan
}

type planService struct {
	accounts repository.AccountRepository
	referral ReferralService
	logger   zerolog.Logger
}

// NewPlanService creates a new PlanService with a scoped logger.
func NewPlanService(accounts repository.AccountRepository, referral ReferralService, logger zerolog.Logger) PlanService {
	return &planService{
		accounts: accounts,
		referral: referral,
		logger:   logger.With().Str("service", "PlanService").Logger(),
	}
}

func (s *planService) ApplyPlanViaCash(ctx context.Context, accountID string, amount int) (*model.Account, error) {
	plan, ok := model.PlanByCashAmount(amount)
	if !ok {
		s.logger.Warn().Str("account_id", accountID).Int("amount", amount).Msg("Payment amount maps to no plan")
		return nil, ErrInvalidPlan
	}
	acc, err := s.accounts.ApplyPlan(ctx, accountID, plan, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", accountID).Str("plan", string(plan.Name)).Msg("Failed to apply plan")
		return nil, err
	}
	// The upgrade stands even if the reward bookkeeping fails; the
	// flag guard keeps a retry from double-crediting.
	if err := s.referral.RewardSubscription(ctx, accountID); err != nil {
		s.logger.Error().Err(err).Str("account_id", accountID).Msg("Subscription reward failed after plan upgrade")
	}
	return acc, nil
}

func (s *planService) ApplyPlanViaCredits(ctx context.Context, accountID string, planType model.PlanType) (*model.Account, error) {
	plan, ok := model.PlanByName(planType)
	if !ok {
		s.logger.Warn().Str("account_id", accountID).Str("plan", string(planType)).Msg("Unknown plan for credit redemption")
		return nil, ErrInvalidPlan
	}
	acc, err := s.accounts.RedeemPlan(ctx, accountID, plan, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", accountID).Str("plan", string(planType)).Msg("Failed to redeem plan with credits")
		return nil, err
	}
	return acc, nil
}

func (s *planService) Catalog() []model.Plan {
	plans := make([]model.Plan, 0, len(model.Catalog))
	for _, name := range []model.PlanType{model.PlanBasic, model.PlanPremium, model.PlanSuper, model.PlanGold} {
		plans = append(plans, model.Catalog[name])
	}
	return plans
}
