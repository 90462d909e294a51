package dto

type OrderCreateDTO struct {
	Amount int `json:"amount" validate:"required,gt=0"`
}

type OrderResponseDTO struct {
	OrderID  string `json:"order_id"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

type PaymentConfirmDTO struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
	Amount    int    `json:"amount" validate:"required,gt=0"`
}
