package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepository is the store for entitlement and wallet state.
// Every read-then-write span on an account row is expressed as a
// conditional UPDATE or runs inside a single transaction, so two
// concurrent mutations can never jointly violate the wallet or quota
// invariants.
type AccountRepository interface {
	// Create inserts a new free-plan account. When referrerCode
	// resolves to an existing account (case-insensitive match against
	// referral codes), the referrer is credited the registration
	// reward and the new wallet is seeded with a matching welcome
	// credit, all in one transaction. An unresolvable code is not an
	// error.
	Create(ctx context.Context, acc *model.Account, referrerCode string) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	// FindByReferralCode returns (nil, nil) when no account carries
	// the code.
	FindByReferralCode(ctx context.Context, code string) (*model.Account, error)
	// Credit appends a positive wallet entry and raises the balance.
	Credit(ctx context.Context, id string, amount int, reason string) (*model.Account, error)
	// Debit appends a negative wallet entry and lowers the balance.
	// Returns ErrInsufficientFunds when amount exceeds the balance;
	// the guard and the append are one atomic statement.
	Debit(ctx context.Context, id string, amount int, reason string) (*model.Account, error)
	// ApplyPlan sets the plan window, zeroes the period counter and
	// adds the plan's allotment to max_ads_allowed.
	ApplyPlan(ctx context.Context, id string, plan model.Plan, now time.Time) (*model.Account, error)
	// RedeemPlan debits the plan's credit price and applies the plan
	// in one transaction; on ErrInsufficientFunds nothing is changed.
	RedeemPlan(ctx context.Context, id string, plan model.Plan, now time.Time) (*model.Account, error)
	// MarkFirstItemUploaded flips the one-shot flag and, when this
	// call wins the flip, credits the account's referrer with reward
	// in the same transaction. A missing referrer is not an error.
	MarkFirstItemUploaded(ctx context.Context, id string, reward int, reason string) (won bool, err error)
	// MarkSubscriptionPurchased flips the one-shot flag, same
	// contract as MarkFirstItemUploaded.
	MarkSubscriptionPurchased(ctx context.Context, id string, reward int, reason string) (won bool, err error)
	// ResetFreePlans moves every free-tier account onto the monthly
	// free plan and returns the number of accounts touched.
	ResetFreePlans(ctx context.Context, now time.Time) (int64, error)
}

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx, so wallet
// statements can run standalone or inside an enclosing transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type accountRepo struct {
	pool *pgxpool.Pool
}

// NewAccountRepo creates a new AccountRepository.
func NewAccountRepo(pool *pgxpool.Pool) AccountRepository {
	return &accountRepo{pool: pool}
}

const accountColumns = `id, name, email, phone, plan_type, plan_start_date, plan_end_date,
       ads_posted_in_period, max_ads_allowed, wallet_balance, wallet_history,
       referrer_id, referral_code, first_item_uploaded, subscription_purchased,
       created_at, updated_at`

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	var rawHistory []byte
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.Phone,
		&a.PlanType,
		&a.PlanStart,
		&a.PlanEnd,
		&a.AdsPostedInPeriod,
		&a.MaxAdsAllowed,
		&a.WalletBalance,
		&rawHistory,
		&a.ReferrerID,
		&a.ReferralCode,
		&a.FirstItemUploaded,
		&a.SubscriptionPurchased,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rawHistory, &a.WalletHistory); err != nil {
		return nil, fmt.Errorf("unmarshal wallet_history for account %s: %w", a.ID, err)
	}
	return &a, nil
}

func (r *accountRepo) Create(ctx context.Context, acc *model.Account, referrerCode string) error {
	now := time.Now()
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var referrerID *string
		if referrerCode != "" {
			var id string
			err := tx.QueryRow(ctx,
				`SELECT id FROM accounts WHERE LOWER(referral_code) = LOWER($1)`,
				referrerCode,
			).Scan(&id)
			switch {
			case errors.Is(err, pgx.ErrNoRows):
				// Unknown code: register without a referrer.
			case err != nil:
				return fmt.Errorf("resolve referral code: %w", err)
			default:
				referrerID = &id
				if _, err := creditWallet(ctx, tx, id, model.RewardRegistration, model.RewardReasonRegistration); err != nil {
					return fmt.Errorf("credit referrer %s: %w", id, err)
				}
			}
		}

		balance := 0
		history := []model.WalletEntry{}
		if referrerID != nil {
			balance = model.RewardRegistration
			history = append(history, model.WalletEntry{
				Amount:    model.RewardRegistration,
				Kind:      model.WalletKindCredit,
				Reason:    model.RewardReasonWelcome,
				Timestamp: now,
			})
		}
		rawHistory, err := json.Marshal(history)
		if err != nil {
			return fmt.Errorf("marshal wallet_history: %w", err)
		}

		const q = `
			INSERT INTO accounts
				(id, name, email, phone, plan_type, plan_start_date, plan_end_date,
				 ads_posted_in_period, max_ads_allowed, wallet_balance, wallet_history,
				 referrer_id, referral_code)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9, $10, $11, $12)
			RETURNING ` + accountColumns
		created, scanErr := scanAccount(tx.QueryRow(ctx, q,
			acc.ID, acc.Name, acc.Email, acc.Phone,
			model.PlanFree, now, now.AddDate(0, 0, model.FreePlanDurationDays),
			model.FreePlanMaxAds, balance, rawHistory,
			referrerID, acc.ID,
		))
		if scanErr != nil {
			var pgErr *pgconn.PgError
			if errors.As(scanErr, &pgErr) && pgErr.Code == "23505" {
				return ErrConflict
			}
			return fmt.Errorf("insert account %s: %w", acc.ID, scanErr)
		}
		*acc = *created
		return nil
	})
}

func (r *accountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	acc, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch account %s: %w", id, err)
	}
	return acc, nil
}

func (r *accountRepo) FindByReferralCode(ctx context.Context, code string) (*model.Account, error) {
	acc, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE LOWER(referral_code) = LOWER($1)`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch account by referral code: %w", err)
	}
	return acc, nil
}

// creditWallet appends one history entry and raises the balance in a
// single statement.
func creditWallet(ctx context.Context, q dbtx, id string, amount int, reason string) (*model.Account, error) {
	entry, err := marshalEntry(amount, model.WalletKindCredit, reason)
	if err != nil {
		return nil, err
	}
	const query = `
		UPDATE accounts
		SET wallet_balance = wallet_balance + $2,
		    wallet_history = wallet_history || $3::jsonb,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns
	acc, err := scanAccount(q.QueryRow(ctx, query, id, amount, entry))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("credit wallet for account %s: %w", id, err)
	}
	return acc, nil
}

// debitWallet is the conditional counterpart of creditWallet: the
// balance guard and the history append commit atomically or not at
// all.
func debitWallet(ctx context.Context, q dbtx, id string, amount int, reason string) (*model.Account, error) {
	entry, err := marshalEntry(-amount, model.WalletKindDebit, reason)
	if err != nil {
		return nil, err
	}
	const query = `
		UPDATE accounts
		SET wallet_balance = wallet_balance - $2,
		    wallet_history = wallet_history || $3::jsonb,
		    updated_at = NOW()
		WHERE id = $1 AND wallet_balance >= $2
		RETURNING ` + accountColumns
	acc, err := scanAccount(q.QueryRow(ctx, query, id, amount, entry))
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if checkErr := q.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, id,
		).Scan(&exists); checkErr != nil {
			return nil, fmt.Errorf("check account %s: %w", id, checkErr)
		}
		if !exists {
			return nil, ErrAccountNotFound
		}
		return nil, ErrInsufficientFunds
	}
	if err != nil {
		return nil, fmt.Errorf("debit wallet for account %s: %w", id, err)
	}
	return acc, nil
}

func marshalEntry(amount int, kind, reason string) ([]byte, error) {
	raw, err := json.Marshal([]model.WalletEntry{{
		Amount:    amount,
		Kind:      kind,
		Reason:    reason,
		Timestamp: time.Now(),
	}})
	if err != nil {
		return nil, fmt.Errorf("marshal wallet entry: %w", err)
	}
	return raw, nil
}

func (r *accountRepo) Credit(ctx context.Context, id string, amount int, reason string) (*model.Account, error) {
	return creditWallet(ctx, r.pool, id, amount, reason)
}

func (r *accountRepo) Debit(ctx context.Context, id string, amount int, reason string) (*model.Account, error) {
	return debitWallet(ctx, r.pool, id, amount, reason)
}

func applyPlan(ctx context.Context, q dbtx, id string, plan model.Plan, now time.Time) (*model.Account, error) {
	const query = `
		UPDATE accounts
		SET plan_type = $2,
		    plan_start_date = $3,
		    plan_end_date = $4,
		    ads_posted_in_period = 0,
		    max_ads_allowed = max_ads_allowed + $5,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns
	acc, err := scanAccount(q.QueryRow(ctx, query,
		id, plan.Name, now, plan.End(now), plan.MaxAdsGranted))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("apply plan %s to account %s: %w", plan.Name, id, err)
	}
	return acc, nil
}

func (r *accountRepo) ApplyPlan(ctx context.Context, id string, plan model.Plan, now time.Time) (*model.Account, error) {
	return applyPlan(ctx, r.pool, id, plan, now)
}

func (r *accountRepo) RedeemPlan(ctx context.Context, id string, plan model.Plan, now time.Time) (*model.Account, error) {
	var acc *model.Account
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		reason := fmt.Sprintf("purchased %s plan with credits", plan.Name)
		if _, err := debitWallet(ctx, tx, id, plan.CreditPrice, reason); err != nil {
			return err
		}
		updated, err := applyPlan(ctx, tx, id, plan, now)
		if err != nil {
			return err
		}
		acc = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// markFlag flips a one-shot boolean column and, when this call wins
// the flip, credits the referrer inside the same transaction, so a
// failed credit also rolls the flag back. Reports whether this call
// was the one that flipped it.
func (r *accountRepo) markFlag(ctx context.Context, id, column string, reward int, reason string) (bool, error) {
	var won bool
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := fmt.Sprintf(
			`UPDATE accounts SET %s = TRUE, updated_at = NOW()
			 WHERE id = $1 AND NOT %s
			 RETURNING referrer_id`,
			column, column)
		var referrerID *string
		err := tx.QueryRow(ctx, query, id).Scan(&referrerID)
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if checkErr := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, id,
			).Scan(&exists); checkErr != nil {
				return fmt.Errorf("check account %s: %w", id, checkErr)
			}
			if !exists {
				return ErrAccountNotFound
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("set %s for account %s: %w", column, id, err)
		}
		won = true
		if referrerID == nil {
			return nil
		}
		if _, err := creditWallet(ctx, tx, *referrerID, reward, reason); err != nil {
			if errors.Is(err, ErrAccountNotFound) {
				return nil
			}
			return fmt.Errorf("credit referrer %s: %w", *referrerID, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return won, nil
}

func (r *accountRepo) MarkFirstItemUploaded(ctx context.Context, id string, reward int, reason string) (bool, error) {
	return r.markFlag(ctx, id, "first_item_uploaded", reward, reason)
}

func (r *accountRepo) MarkSubscriptionPurchased(ctx context.Context, id string, reward int, reason string) (bool, error) {
	return r.markFlag(ctx, id, "subscription_purchased", reward, reason)
}

func (r *accountRepo) ResetFreePlans(ctx context.Context, now time.Time) (int64, error) {
	const q = `
		UPDATE accounts
		SET plan_type = $1,
		    plan_start_date = $2,
		    plan_end_date = $3,
		    ads_posted_in_period = 0,
		    max_ads_allowed = $4,
		    updated_at = NOW()
		WHERE plan_type IN ($5, $1)
	`
	tag, err := r.pool.Exec(ctx, q,
		model.PlanFreeMonthly, now, now.AddDate(0, 0, model.MonthlyResetDuration),
		model.MonthlyResetMaxAds, model.PlanFree)
	if err != nil {
		return 0, fmt.Errorf("reset free plans: %w", err)
	}
	return tag.RowsAffected(), nil
}
