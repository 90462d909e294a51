package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the tables this service owns. Statements are
// idempotent so the bootstrap is safe to run on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id VARCHAR(255) PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			email VARCHAR(100) UNIQUE,
			phone VARCHAR(20) UNIQUE,
			plan_type VARCHAR(20) NOT NULL DEFAULT 'free',
			plan_start_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			plan_end_date TIMESTAMPTZ NOT NULL,
			ads_posted_in_period INT NOT NULL DEFAULT 0,
			max_ads_allowed INT NOT NULL DEFAULT 5,
			wallet_balance INT NOT NULL DEFAULT 0 CHECK (wallet_balance >= 0),
			wallet_history JSONB NOT NULL DEFAULT '[]',
			referrer_id VARCHAR(255) REFERENCES accounts(id) ON DELETE SET NULL,
			referral_code VARCHAR(255) UNIQUE NOT NULL,
			first_item_uploaded BOOLEAN NOT NULL DEFAULT FALSE,
			subscription_purchased BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS listings (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			price VARCHAR(255) NOT NULL,
			images TEXT[] NOT NULL DEFAULT '{}',
			category_id BIGINT NOT NULL,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			created_by VARCHAR(255) NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			is_approved BOOLEAN DEFAULT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			listing_type VARCHAR(70) NOT NULL,
			posted_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			valid_until_date TIMESTAMPTZ NOT NULL,
			view_count INT NOT NULL DEFAULT 0,
			favorite_count INT NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_created_by ON listings (created_by)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_active_valid ON listings (valid_until_date) WHERE is_active`,
		`CREATE TABLE IF NOT EXISTS payments (
			id BIGSERIAL PRIMARY KEY,
			account_id VARCHAR(255) NOT NULL,
			payment_id VARCHAR(255) NOT NULL,
			order_id VARCHAR(255) NOT NULL,
			amount INT NOT NULL,
			status VARCHAR(20) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS otp_requests (
			id BIGSERIAL PRIMARY KEY,
			phone VARCHAR(20) NOT NULL,
			requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS chats (
			id BIGSERIAL PRIMARY KEY,
			listing_id BIGINT,
			sender_id VARCHAR(255) NOT NULL,
			receiver_id VARCHAR(255) NOT NULL,
			message TEXT NOT NULL,
			delete_after TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
