package model

import "time"

// Payment statuses recorded from gateway confirmations.
const (
	PaymentCaptured = "captured"
	PaymentFailed   = "failed"
)

// Payment is a persisted gateway payment record for an account.
type Payment struct {
	ID        int64     `db:"id" json:"id"`
	AccountID string    `db:"account_id" json:"account_id"`
	PaymentID string    `db:"payment_id" json:"payment_id"`
	OrderID   string    `db:"order_id" json:"order_id"`
	Amount    int       `db:"amount" json:"amount"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
