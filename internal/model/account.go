package model

import "time"

// PlanType identifies an account's current plan tier.
type PlanType string

const (
	PlanFree        PlanType = "free"
	PlanFreeMonthly PlanType = "free_monthly"
	PlanBasic       PlanType = "basic"
	PlanPremium     PlanType = "premium"
	PlanSuper       PlanType = "super"
	PlanGold        PlanType = "gold"
)

// Paid reports whether the plan is a purchased tier.
func (p PlanType) Paid() bool {
	switch p {
	case PlanBasic, PlanPremium, PlanSuper, PlanGold:
		return true
	}
	return false
}

// Account is the persistent entitlement and wallet record for one user.
type Account struct {
	ID                    string        `db:"id" json:"id"`
	Name                  string        `db:"name" json:"name"`
	Email                 string        `db:"email" json:"email"`
	Phone                 string        `db:"phone" json:"phone"`
	PlanType              PlanType      `db:"plan_type" json:"plan_type"`
	PlanStart             time.Time     `db:"plan_start_date" json:"plan_start"`
	PlanEnd               time.Time     `db:"plan_end_date" json:"plan_end"`
	AdsPostedInPeriod     int           `db:"ads_posted_in_period" json:"ads_posted_in_period"`
	MaxAdsAllowed         int           `db:"max_ads_allowed" json:"max_ads_allowed"`
	WalletBalance         int           `db:"wallet_balance" json:"wallet_balance"`
	WalletHistory         []WalletEntry `db:"wallet_history" json:"wallet_history"`
	ReferrerID            *string       `db:"referrer_id" json:"referrer_id,omitempty"`
	ReferralCode          string        `db:"referral_code" json:"referral_code"`
	FirstItemUploaded     bool          `db:"first_item_uploaded" json:"first_item_uploaded"`
	SubscriptionPurchased bool          `db:"subscription_purchased" json:"subscription_purchased"`
	CreatedAt             time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time     `db:"updated_at" json:"updated_at"`
}

// WalletEntry is one immutable line of an account's wallet history.
// Credits carry a positive amount, debits a negative one; the sum of
// all entries equals the account's wallet balance.
type WalletEntry struct {
	Amount    int       `json:"amount"`
	Kind      string    `json:"type"` // credit | debit
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	WalletKindCredit = "credit"
	WalletKindDebit  = "debit"
)

// Entitlement evaluation reasons, surfaced to callers so the HTTP
// layer can route the user to the upgrade page or the limit notice.
const (
	ReasonFreePlanExpired     = "free plan expired"
	ReasonPlanExpired         = "plan expired"
	ReasonPostingLimitReached = "posting limit reached"
)

// Entitlement is the result of a posting-permission check.
type Entitlement struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CanPost evaluates whether the account may create a listing at the
// given instant. Rules are ordered; the first match wins. The method
// has no side effects and must be called on a consistent snapshot of
// the account row.
func (a *Account) CanPost(now time.Time) Entitlement {
	switch {
	case !a.PlanType.Paid() && now.After(a.PlanEnd):
		return Entitlement{Allowed: false, Reason: ReasonFreePlanExpired}
	case a.PlanType.Paid() && now.After(a.PlanEnd):
		return Entitlement{Allowed: false, Reason: ReasonPlanExpired}
	case a.AdsPostedInPeriod >= a.MaxAdsAllowed:
		return Entitlement{Allowed: false, Reason: ReasonPostingLimitReached}
	}
	return Entitlement{Allowed: true}
}

// HistorySum returns the signed sum of the wallet history. It must
// equal WalletBalance at all times.
func (a *Account) HistorySum() int {
	sum := 0
	for _, e := range a.WalletHistory {
		sum += e.Amount
	}
	return sum
}
