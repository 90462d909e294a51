package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListingRepository stores listings and charges posting quota.
type ListingRepository interface {
	// CreateWithQuota inserts the listing and increments the owner's
	// ads_posted_in_period in one transaction. The increment is
	// guarded by ads_posted_in_period < max_ads_allowed; when the
	// guard fails the whole transaction rolls back and
	// ErrPostingLimitReached is returned, so a listing row never
	// exists without its quota charge.
	CreateWithQuota(ctx context.Context, l *model.Listing) error
	GetByID(ctx context.Context, id int64) (*model.Listing, error)
	// SetApproval resolves the pending tri-state moderation flag.
	SetApproval(ctx context.Context, id int64, approved bool) (*model.Listing, error)
	IncrementViewCount(ctx context.Context, id int64) error
	CountByCreator(ctx context.Context, accountID string) (int, error)
	// DeactivateExpired flips is_active off for listings past their
	// validity window. Idempotent; each row transitions at most once.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type listingRepo struct {
	pool *pgxpool.Pool
}

// NewListingRepo creates a new ListingRepository.
func NewListingRepo(pool *pgxpool.Pool) ListingRepository {
	return &listingRepo{pool: pool}
}

const listingColumns = `id, name, description, price, images, category_id, latitude, longitude,
       created_by, is_approved, is_active, listing_type, posted_date, valid_until_date,
       view_count, favorite_count`

func scanListing(row pgx.Row) (*model.Listing, error) {
	var l model.Listing
	err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Description,
		&l.Price,
		&l.Images,
		&l.CategoryID,
		&l.Latitude,
		&l.Longitude,
		&l.CreatedBy,
		&l.IsApproved,
		&l.IsActive,
		&l.ListingType,
		&l.PostedDate,
		&l.ValidUntil,
		&l.ViewCount,
		&l.FavoriteCount,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listingRepo) CreateWithQuota(ctx context.Context, l *model.Listing) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE accounts
			SET ads_posted_in_period = ads_posted_in_period + 1,
			    updated_at = NOW()
			WHERE id = $1 AND ads_posted_in_period < max_ads_allowed`,
			l.CreatedBy)
		if err != nil {
			return fmt.Errorf("charge posting quota for account %s: %w", l.CreatedBy, err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, l.CreatedBy,
			).Scan(&exists); err != nil {
				return fmt.Errorf("check account %s: %w", l.CreatedBy, err)
			}
			if !exists {
				return ErrAccountNotFound
			}
			return ErrPostingLimitReached
		}

		images := l.Images
		if images == nil {
			images = []string{}
		}
		now := time.Now()
		created, err := scanListing(tx.QueryRow(ctx, `
			INSERT INTO listings
				(name, description, price, images, category_id, latitude, longitude,
				 created_by, is_approved, listing_type, posted_date, valid_until_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULL, $9, $10, $11)
			RETURNING `+listingColumns,
			l.Name, l.Description, l.Price, images, l.CategoryID,
			l.Latitude, l.Longitude, l.CreatedBy, l.ListingType,
			now, now.AddDate(0, 0, model.ListingValidityDays)))
		if err != nil {
			return fmt.Errorf("insert listing for account %s: %w", l.CreatedBy, err)
		}
		*l = *created
		return nil
	})
}

func (r *listingRepo) GetByID(ctx context.Context, id int64) (*model.Listing, error) {
	l, err := scanListing(r.pool.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch listing %d: %w", id, err)
	}
	return l, nil
}

func (r *listingRepo) SetApproval(ctx context.Context, id int64, approved bool) (*model.Listing, error) {
	l, err := scanListing(r.pool.QueryRow(ctx, `
		UPDATE listings SET is_approved = $2 WHERE id = $1
		RETURNING `+listingColumns, id, approved))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set approval for listing %d: %w", id, err)
	}
	return l, nil
}

func (r *listingRepo) IncrementViewCount(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE listings SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment view count for listing %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrListingNotFound
	}
	return nil
}

func (r *listingRepo) CountByCreator(ctx context.Context, accountID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM listings WHERE created_by = $1`, accountID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count listings for account %s: %w", accountID, err)
	}
	return count, nil
}

func (r *listingRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE listings SET is_active = FALSE
		WHERE valid_until_date < $1 AND is_active`, now)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired listings: %w", err)
	}
	return tag.RowsAffected(), nil
}
