package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

func TestWalletCreditAndDebit(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.put(&model.Account{ID: "u1"})
	svc := NewWalletService(repo, zerolog.Nop())
	ctx := context.Background()

	acc, err := svc.Credit(ctx, "u1", 200, "promo")
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if acc.WalletBalance != 200 {
		t.Errorf("balance = %d, want 200", acc.WalletBalance)
	}

	acc, err = svc.Debit(ctx, "u1", 50, "adjustment")
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if acc.WalletBalance != 150 {
		t.Errorf("balance = %d, want 150", acc.WalletBalance)
	}
	if got := acc.HistorySum(); got != acc.WalletBalance {
		t.Errorf("history sum %d does not match balance %d", got, acc.WalletBalance)
	}
	if len(acc.WalletHistory) != 2 {
		t.Errorf("history length = %d, want 2", len(acc.WalletHistory))
	}
	if acc.WalletHistory[1].Amount != -50 || acc.WalletHistory[1].Kind != model.WalletKindDebit {
		t.Errorf("debit entry = %+v", acc.WalletHistory[1])
	}
}

func TestWalletDebitInsufficientFunds(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.put(&model.Account{ID: "u1", WalletBalance: 30})
	svc := NewWalletService(repo, zerolog.Nop())

	if _, err := svc.Debit(context.Background(), "u1", 100, "too much"); !errors.Is(err, repository.ErrInsufficientFunds) {
		t.Fatalf("Debit error = %v, want ErrInsufficientFunds", err)
	}

	// A rejected debit must leave no trace.
	got := repo.snapshot("u1")
	if got.WalletBalance != 30 || len(got.WalletHistory) != 0 {
		t.Errorf("rejected debit mutated the account: %+v", got)
	}
}

func TestWalletRejectsNonPositiveAmounts(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.put(&model.Account{ID: "u1", WalletBalance: 100})
	svc := NewWalletService(repo, zerolog.Nop())
	ctx := context.Background()

	for _, amount := range []int{0, -5} {
		if _, err := svc.Credit(ctx, "u1", amount, "bad"); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Credit(%d) error = %v, want ErrInvalidAmount", amount, err)
		}
		if _, err := svc.Debit(ctx, "u1", amount, "bad"); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Debit(%d) error = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestWalletConcurrentDebits(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.put(&model.Account{ID: "u1"})
	svc := NewWalletService(repo, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Credit(ctx, "u1", 500, "seed"); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Debit(ctx, "u1", 500, "race")
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, repository.ErrInsufficientFunds):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || insufficient != 1 {
		t.Fatalf("got %d successes and %d rejections, want exactly one of each", ok, insufficient)
	}

	got := repo.snapshot("u1")
	if got.WalletBalance != 0 {
		t.Errorf("balance = %d, want 0", got.WalletBalance)
	}
	if got.HistorySum() != got.WalletBalance {
		t.Errorf("history sum %d does not match balance %d", got.HistorySum(), got.WalletBalance)
	}
}
