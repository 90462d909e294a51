package repository

import (
	"context"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentRepository persists gateway payment confirmations.
type PaymentRepository interface {
	Save(ctx context.Context, p *model.Payment) error
	ListByAccount(ctx context.Context, accountID string) ([]model.Payment, error)
}

type paymentRepo struct {
	pool *pgxpool.Pool
}

// NewPaymentRepo creates a new PaymentRepository.
func NewPaymentRepo(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepo{pool: pool}
}

func (r *paymentRepo) Save(ctx context.Context, p *model.Payment) error {
	const q = `
		INSERT INTO payments (account_id, payment_id, order_id, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, q, p.AccountID, p.PaymentID, p.OrderID, p.Amount, p.Status).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("save payment %s for account %s: %w", p.PaymentID, p.AccountID, err)
	}
	return nil
}

func (r *paymentRepo) ListByAccount(ctx context.Context, accountID string) ([]model.Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, payment_id, order_id, amount, status, created_at
		FROM payments WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list payments for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.AccountID, &p.PaymentID, &p.OrderID, &p.Amount, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payment rows: %w", err)
	}
	return payments, nil
}
