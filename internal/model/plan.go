package model

import "time"

// Plan is a static catalog entry for a purchasable tier. CashPrice is
// the gateway amount in currency units; CreditPrice is the wallet
// cost when redeeming with credits.
type Plan struct {
	Name          PlanType
	DurationDays  int
	MaxAdsGranted int
	CashPrice     int
	CreditPrice   int
}

// Referral reward amounts, credited to the referring account.
const (
	RewardRegistration = 10
	RewardFirstUpload  = 30
	RewardSubscription = 50
)

// Wallet entry reasons written by the reward engine.
const (
	RewardReasonRegistration = "referral registration"
	RewardReasonFirstUpload  = "first upload"
	RewardReasonSubscription = "subscription"
	// RewardReasonWelcome seeds the referred account's own wallet at
	// registration, mirroring the referrer's registration reward.
	RewardReasonWelcome = "referred signup welcome"
)

// Free-tier grants applied outside the purchase paths.
const (
	FreePlanDurationDays = 7
	FreePlanMaxAds       = 5
	MonthlyResetDuration = 10
	MonthlyResetMaxAds   = 1
	ListingValidityDays  = 15
)

// Catalog maps purchasable plan names to their grants and prices.
var Catalog = map[PlanType]Plan{
	PlanBasic:   {Name: PlanBasic, DurationDays: 10, MaxAdsGranted: 10, CashPrice: 49, CreditPrice: 200},
	PlanPremium: {Name: PlanPremium, DurationDays: 30, MaxAdsGranted: 30, CashPrice: 99, CreditPrice: 500},
	PlanSuper:   {Name: PlanSuper, DurationDays: 45, MaxAdsGranted: 50, CashPrice: 149, CreditPrice: 750},
	PlanGold:    {Name: PlanGold, DurationDays: 60, MaxAdsGranted: 100, CashPrice: 199, CreditPrice: 1000},
}

// PlanByName returns the catalog entry for the given plan type.
func PlanByName(name PlanType) (Plan, bool) {
	p, ok := Catalog[name]
	return p, ok
}

// PlanByCashAmount maps a captured payment amount to a plan.
func PlanByCashAmount(amount int) (Plan, bool) {
	for _, p := range Catalog {
		if p.CashPrice == amount {
			return p, true
		}
	}
	return Plan{}, false
}

// End returns the plan window end for a purchase applied at start.
func (p Plan) End(start time.Time) time.Time {
	return start.AddDate(0, 0, p.DurationDays)
}
