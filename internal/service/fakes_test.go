package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"app/internal/model"
	"app/internal/repository"
)

// fakeAccountRepo is a mutex-guarded in-memory AccountRepository that
// honors the store's atomicity contracts: conditional debits, guarded
// flag flips and all-or-nothing redemptions.
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*model.Account)}
}

func (f *fakeAccountRepo) put(acc *model.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *acc
	f.accounts[acc.ID] = &cp
}

func (f *fakeAccountRepo) snapshot(id string) *model.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return nil
	}
	cp := *acc
	cp.WalletHistory = append([]model.WalletEntry(nil), acc.WalletHistory...)
	return &cp
}

func (f *fakeAccountRepo) Create(ctx context.Context, acc *model.Account, referrerCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()

	var referrerID *string
	if referrerCode != "" {
		for _, other := range f.accounts {
			if strings.EqualFold(other.ReferralCode, referrerCode) {
				id := other.ID
				referrerID = &id
				other.WalletBalance += model.RewardRegistration
				other.WalletHistory = append(other.WalletHistory, model.WalletEntry{
					Amount:    model.RewardRegistration,
					Kind:      model.WalletKindCredit,
					Reason:    model.RewardReasonRegistration,
					Timestamp: now,
				})
				break
			}
		}
	}

	acc.PlanType = model.PlanFree
	acc.PlanStart = now
	acc.PlanEnd = now.AddDate(0, 0, model.FreePlanDurationDays)
	acc.AdsPostedInPeriod = 0
	acc.MaxAdsAllowed = model.FreePlanMaxAds
	acc.ReferrerID = referrerID
	acc.ReferralCode = acc.ID
	acc.CreatedAt = now
	if referrerID != nil {
		acc.WalletBalance = model.RewardRegistration
		acc.WalletHistory = []model.WalletEntry{{
			Amount:    model.RewardRegistration,
			Kind:      model.WalletKindCredit,
			Reason:    model.RewardReasonWelcome,
			Timestamp: now,
		}}
	}

	cp := *acc
	f.accounts[acc.ID] = &cp
	return nil
}

func (f *fakeAccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	acc := f.snapshot(id)
	if acc == nil {
		return nil, repository.ErrAccountNotFound
	}
	return acc, nil
}

func (f *fakeAccountRepo) FindByReferralCode(ctx context.Context, code string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, acc := range f.accounts {
		if strings.EqualFold(acc.ReferralCode, code) {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountRepo) Credit(ctx context.Context, id string, amount int, reason string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	acc.WalletBalance += amount
	acc.WalletHistory = append(acc.WalletHistory, model.WalletEntry{
		Amount: amount, Kind: model.WalletKindCredit, Reason: reason, Timestamp: time.Now(),
	})
	cp := *acc
	return &cp, nil
}

func (f *fakeAccountRepo) Debit(ctx context.Context, id string, amount int, reason string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.debitLocked(id, amount, reason)
}

func (f *fakeAccountRepo) debitLocked(id string, amount int, reason string) (*model.Account, error) {
	acc, ok := f.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	if acc.WalletBalance < amount {
		return nil, repository.ErrInsufficientFunds
	}
	acc.WalletBalance -= amount
	acc.WalletHistory = append(acc.WalletHistory, model.WalletEntry{
		Amount: -amount, Kind: model.WalletKindDebit, Reason: reason, Timestamp: time.Now(),
	})
	cp := *acc
	return &cp, nil
}

func (f *fakeAccountRepo) ApplyPlan(ctx context.Context, id string, plan model.Plan, now time.Time) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applyPlanLocked(id, plan, now)
}

func (f *fakeAccountRepo) applyPlanLocked(id string, plan model.Plan, now time.Time) (*model.Account, error) {
	acc, ok := f.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	acc.PlanType = plan.Name
	acc.PlanStart = now
	acc.PlanEnd = plan.End(now)
	acc.AdsPostedInPeriod = 0
	acc.MaxAdsAllowed += plan.MaxAdsGranted
	cp := *acc
	return &cp, nil
}

func (f *fakeAccountRepo) RedeemPlan(ctx context.Context, id string, plan model.Plan, now time.Time) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.debitLocked(id, plan.CreditPrice, "purchased "+string(plan.Name)+" plan with credits"); err != nil {
		return nil, err
	}
	return f.applyPlanLocked(id, plan, now)
}

func (f *fakeAccountRepo) MarkFirstItemUploaded(ctx context.Context, id string, reward int, reason string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return false, repository.ErrAccountNotFound
	}
	if acc.FirstItemUploaded {
		return false, nil
	}
	acc.FirstItemUploaded = true
	f.creditReferrerLocked(acc, reward, reason)
	return true, nil
}

func (f *fakeAccountRepo) MarkSubscriptionPurchased(ctx context.Context, id string, reward int, reason string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return false, repository.ErrAccountNotFound
	}
	if acc.SubscriptionPurchased {
		return false, nil
	}
	acc.SubscriptionPurchased = true
	f.creditReferrerLocked(acc, reward, reason)
	return true, nil
}

// creditReferrerLocked credits the referrer under the same lock hold
// that flipped the one-shot flag. A vanished referrer is skipped.
func (f *fakeAccountRepo) creditReferrerLocked(acc *model.Account, reward int, reason string) {
	if acc.ReferrerID == nil {
		return
	}
	ref, ok := f.accounts[*acc.ReferrerID]
	if !ok {
		return
	}
	ref.WalletBalance += reward
	ref.WalletHistory = append(ref.WalletHistory, model.WalletEntry{
		Amount: reward, Kind: model.WalletKindCredit, Reason: reason, Timestamp: time.Now(),
	})
}

func (f *fakeAccountRepo) ResetFreePlans(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, acc := range f.accounts {
		if acc.PlanType != model.PlanFree && acc.PlanType != model.PlanFreeMonthly {
			continue
		}
		acc.PlanType = model.PlanFreeMonthly
		acc.PlanStart = now
		acc.PlanEnd = now.AddDate(0, 0, model.MonthlyResetDuration)
		acc.AdsPostedInPeriod = 0
		acc.MaxAdsAllowed = model.MonthlyResetMaxAds
		n++
	}
	return n, nil
}

// fakeListingRepo stores listings in memory and charges quota against
// a fakeAccountRepo under the same lock discipline as the store.
type fakeListingRepo struct {
	mu       sync.Mutex
	accounts *fakeAccountRepo
	listings map[int64]*model.Listing
	nextID   int64
}

func newFakeListingRepo(accounts *fakeAccountRepo) *fakeListingRepo {
	return &fakeListingRepo{accounts: accounts, listings: make(map[int64]*model.Listing), nextID: 1}
}

func (f *fakeListingRepo) CreateWithQuota(ctx context.Context, l *model.Listing) error {
	f.accounts.mu.Lock()
	acc, ok := f.accounts.accounts[l.CreatedBy]
	if !ok {
		f.accounts.mu.Unlock()
		return repository.ErrAccountNotFound
	}
	if acc.AdsPostedInPeriod >= acc.MaxAdsAllowed {
		f.accounts.mu.Unlock()
		return repository.ErrPostingLimitReached
	}
	acc.AdsPostedInPeriod++
	f.accounts.mu.Unlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	l.ID = f.nextID
	f.nextID++
	l.IsActive = true
	l.IsApproved = nil
	l.PostedDate = now
	l.ValidUntil = now.AddDate(0, 0, model.ListingValidityDays)
	cp := *l
	f.listings[l.ID] = &cp
	return nil
}

func (f *fakeListingRepo) GetByID(ctx context.Context, id int64) (*model.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return nil, repository.ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeListingRepo) SetApproval(ctx context.Context, id int64, approved bool) (*model.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return nil, repository.ErrListingNotFound
	}
	l.IsApproved = &approved
	cp := *l
	return &cp, nil
}

func (f *fakeListingRepo) IncrementViewCount(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return repository.ErrListingNotFound
	}
	l.ViewCount++
	return nil
}

func (f *fakeListingRepo) CountByCreator(ctx context.Context, accountID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, l := range f.listings {
		if l.CreatedBy == accountID {
			count++
		}
	}
	return count, nil
}

func (f *fakeListingRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, l := range f.listings {
		if l.IsActive && l.ValidUntil.Before(now) {
			l.IsActive = false
			n++
		}
	}
	return n, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments []model.Payment
}

func (f *fakePaymentRepo) Save(ctx context.Context, p *model.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = int64(len(f.payments) + 1)
	p.CreatedAt = time.Now()
	f.payments = append(f.payments, *p)
	return nil
}

func (f *fakePaymentRepo) ListByAccount(ctx context.Context, accountID string) ([]model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Payment
	for _, p := range f.payments {
		if p.AccountID == accountID {
			out = append(out, p)
		}
	}
	return out, nil
}
