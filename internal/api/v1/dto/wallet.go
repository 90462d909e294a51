package dto

import "time"

type WalletEntryDTO struct {
	Amount    int       `json:"amount"`
	Kind      string    `json:"kind"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

type WalletResponseDTO struct {
	Balance int              `json:"balance"`
	History []WalletEntryDTO `json:"history"`
}

// WalletMutationDTO is used by the admin credit and debit endpoints.
type WalletMutationDTO struct {
	AccountID string `json:"account_id" validate:"required"`
	Amount    int    `json:"amount" validate:"required,gt=0"`
	Reason    string `json:"reason" validate:"required,max=200"`
}
