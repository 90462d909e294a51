package dto

type PlanResponseDTO struct {
	Name          string `json:"name"`
	DurationDays  int    `json:"duration_days"`
	MaxAdsGranted int    `json:"max_ads_granted"`
	CashPrice     int    `json:"cash_price"`
	CreditPrice   int    `json:"credit_price"`
}

type PlanRedeemDTO struct {
	PlanType string `json:"plan_type" validate:"required,oneof=basic premium super gold"`
}
