package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// OTPRepository lets the scheduler purge stale one-time-password
// request records.
type OTPRepository interface {
	// PurgeStale deletes requests older than maxAge and returns the
	// number of rows removed.
	PurgeStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

type otpRepo struct {
	pool *pgxpool.Pool
}

// NewOTPRepo creates a new OTPRepository.
func NewOTPRepo(pool *pgxpool.Pool) OTPRepository {
	return &otpRepo{pool: pool}
}

func (r *otpRepo) PurgeStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM otp_requests WHERE requested_at <= NOW() - $1::interval`,
		fmt.Sprintf("%d seconds", int(maxAge.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("purge stale otp requests: %w", err)
	}
	return tag.RowsAffected(), nil
}
