package dto

import "time"

// AccountCreateDTO is the registration payload. The account ID comes
// from the authenticated subject, not the body.
type AccountCreateDTO struct {
	Name         string `json:"name" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required,max=20"`
	ReferralCode string `json:"referral_code,omitempty"`
}

type AccountResponseDTO struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	PlanType          string    `json:"plan_type"`
	PlanStart         time.Time `json:"plan_start"`
	PlanEnd           time.Time `json:"plan_end"`
	AdsPostedInPeriod int       `json:"ads_posted_in_period"`
	MaxAdsAllowed     int       `json:"max_ads_allowed"`
	WalletBalance     int       `json:"wallet_balance"`
	ReferralCode      string    `json:"referral_code"`
	CreatedAt         time.Time `json:"created_at"`
}

type EntitlementResponseDTO struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}
