package service

import (
	"context"
	"sync"
	"testing"

	"app/internal/model"

	"github.com/rs/zerolog"
)

func TestRewardFirstUpload(t *testing.T) {
	repo := newFakeAccountRepo()
	listings := newFakeListingRepo(repo)
	referrerID := "ref1"
	repo.put(&model.Account{ID: referrerID})
	repo.put(&model.Account{ID: "u1", ReferrerID: &referrerID, MaxAdsAllowed: 5})
	listings.CreateWithQuota(context.Background(), &model.Listing{CreatedBy: "u1"})

	svc := NewReferralService(repo, listings, nil, zerolog.Nop())
	if err := svc.RewardFirstUpload(context.Background(), "u1"); err != nil {
		t.Fatalf("RewardFirstUpload: %v", err)
	}

	ref := repo.snapshot(referrerID)
	if ref.WalletBalance != model.RewardFirstUpload {
		t.Errorf("referrer balance = %d, want %d", ref.WalletBalance, model.RewardFirstUpload)
	}
	if !repo.snapshot("u1").FirstItemUploaded {
		t.Error("first-upload flag must be set")
	}
}

func TestRewardFirstUploadIsIdempotent(t *testing.T) {
	repo := newFakeAccountRepo()
	listings := newFakeListingRepo(repo)
	referrerID := "ref1"
	repo.put(&model.Account{ID: referrerID})
	repo.put(&model.Account{ID: "u1", ReferrerID: &referrerID, MaxAdsAllowed: 5})
	listings.CreateWithQuota(context.Background(), &model.Listing{CreatedBy: "u1"})

	svc := NewReferralService(repo, listings, nil, zerolog.Nop())
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := svc.RewardFirstUpload(ctx, "u1"); err != nil {
			t.Fatalf("RewardFirstUpload #%d: %v", i+1, err)
		}
	}

	ref := repo.snapshot(referrerID)
	if ref.WalletBalance != model.RewardFirstUpload {
		t.Errorf("referrer balance = %d, want a single %d credit", ref.WalletBalance, model.RewardFirstUpload)
	}
}

func TestRewardFirstUploadConcurrent(t *testing.T) {
	repo := newFakeAccountRepo()
	listings := newFakeListingRepo(repo)
	referrerID := "ref1"
	repo.put(&model.Account{ID: referrerID})
	repo.put(&model.Account{ID: "u1", ReferrerID: &referrerID, MaxAdsAllowed: 5})
	listings.CreateWithQuota(context.Background(), &model.Listing{CreatedBy: "u1"})

	svc := NewReferralService(repo, listings, nil, zerolog.Nop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.RewardFirstUpload(ctx, "u1")
		}()
	}
	wg.Wait()

	ref := repo.snapshot(referrerID)
	if ref.WalletBalance != model.RewardFirstUpload {
		t.Errorf("referrer balance = %d, want a single %d credit", ref.WalletBalance, model.RewardFirstUpload)
	}
}

func TestRewardFirstUploadWithoutListing(t *testing.T) {
	repo := newFakeAccountRepo()
	listings := newFakeListingRepo(repo)
	referrerID := "ref1"
	repo.put(&model.Account{ID: referrerID})
	repo.put(&model.Account{ID: "u1", ReferrerID: &referrerID})

	svc := NewReferralService(repo, listings, nil, zerolog.Nop())
	if err := svc.RewardFirstUpload(context.Background(), "u1"); err != nil {
		t.Fatalf("RewardFirstUpload: %v", err)
	}
	if repo.snapshot("u1").FirstItemUploaded {
		t.Error("flag must not flip before any listing exists")
	}
	if repo.snapshot(referrerID).WalletBalance != 0 {
		t.Error("no listing, no reward")
	}
}

func TestRewardSkipsVanishedReferrer(t *testing.T) {
	repo := newFakeAccountRepo()
	listings := newFakeListingRepo(repo)
	gone := "gone"
	repo.put(&model.Account{ID: "u1", ReferrerID: &gone})

	svc := NewReferralService(repo, listings, nil, zerolog.Nop())
	if err := svc.RewardSubscription(context.Background(), "u1"); err != nil {
		t.Fatalf("a vanished referrer must not fail the trigger, got %v", err)
	}
	if !repo.snapshot("u1").SubscriptionPurchased {
		t.Error("flag must still flip when the referrer is gone")
	}
}

func TestRewardWithoutReferrer(t *testing.T) {
	repo := newFakeAccountRepo()
	listings := newFakeListingRepo(repo)
	repo.put(&model.Account{ID: "u1", MaxAdsAllowed: 5})
	listings.CreateWithQuota(context.Background(), &model.Listing{CreatedBy: "u1"})

	svc := NewReferralService(repo, listings, nil, zerolog.Nop())
	if err := svc.RewardFirstUpload(context.Background(), "u1"); err != nil {
		t.Fatalf("RewardFirstUpload: %v", err)
	}
	if !repo.snapshot("u1").FirstItemUploaded {
		t.Error("flag must flip even without a referrer")
	}
}
