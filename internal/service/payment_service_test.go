package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"

	"app/internal/config"
	"app/internal/model"

	"github.com/rs/zerolog"
)

const testKeySecret = "test_key_secret"

func newPaymentTestService(t *testing.T, repo *fakeAccountRepo, payments *fakePaymentRepo) *PaymentService {
	t.Helper()
	cfg := &config.Config{
		Environment:      "development",
		GatewayKeyID:     "key_test",
		GatewayKeySecret: testKeySecret,
	}
	planSvc, _ := newPlanTestServices(repo)
	svc, err := NewPaymentService(context.Background(), cfg, payments, planSvc, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewPaymentService: %v", err)
	}
	return svc
}

func signConfirmation(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testKeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testKeySecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	svc := newPaymentTestService(t, newFakeAccountRepo(), &fakePaymentRepo{})

	if !svc.VerifySignature("order_1", "pay_1", signConfirmation("order_1", "pay_1")) {
		t.Error("valid signature rejected")
	}
	if svc.VerifySignature("order_1", "pay_1", "deadbeef") {
		t.Error("invalid signature accepted")
	}
	if svc.VerifySignature("order_1", "pay_2", signConfirmation("order_1", "pay_1")) {
		t.Error("signature for a different payment accepted")
	}
}

func TestConfirmPaymentAppliesPlan(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.put(&model.Account{ID: "u1", PlanType: model.PlanFree, MaxAdsAllowed: 5})
	payments := &fakePaymentRepo{}
	svc := newPaymentTestService(t, repo, payments)

	acc, err := svc.ConfirmPayment(context.Background(), "u1", "order_1", "pay_1",
		signConfirmation("order_1", "pay_1"), 99)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if acc.PlanType != model.PlanPremium {
		t.Errorf("plan = %s, want premium", acc.PlanType)
	}
	if len(payments.payments) != 1 || payments.payments[0].Status != model.PaymentCaptured {
		t.Errorf("payments = %+v, want one captured record", payments.payments)
	}
}

func TestConfirmPaymentBadSignature(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.put(&model.Account{ID: "u1", PlanType: model.PlanFree, MaxAdsAllowed: 5})
	payments := &fakePaymentRepo{}
	svc := newPaymentTestService(t, repo, payments)

	_, err := svc.ConfirmPayment(context.Background(), "u1", "order_1", "pay_1", "bogus", 99)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("error = %v, want ErrInvalidSignature", err)
	}

	// The failed attempt is recorded; the account stays untouched.
	if len(payments.payments) != 1 || payments.payments[0].Status != model.PaymentFailed {
		t.Errorf("payments = %+v, want one failed record", payments.payments)
	}
	if got := repo.snapshot("u1"); got.PlanType != model.PlanFree {
		t.Errorf("plan = %s, want free", got.PlanType)
	}
}

func TestConfirmPaymentUnknownAmount(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.put(&model.Account{ID: "u1", PlanType: model.PlanFree, MaxAdsAllowed: 5})
	svc := newPaymentTestService(t, repo, &fakePaymentRepo{})

	_, err := svc.ConfirmPayment(context.Background(), "u1", "order_1", "pay_1",
		signConfirmation("order_1", "pay_1"), 123)
	if !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("error = %v, want ErrInvalidPlan", err)
	}
}

func webhookBody(t *testing.T, event, paymentID, orderID, accountID string, amountSubunits int) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"event": event,
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]any{
					"id":       paymentID,
					"order_id": orderID,
					"amount":   amountSubunits,
					"notes":    map[string]string{"account_id": accountID},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal webhook body: %v", err)
	}
	return body
}

func TestHandleWebhookCaptured(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.put(&model.Account{ID: "u1", PlanType: model.PlanFree, MaxAdsAllowed: 5})
	payments := &fakePaymentRepo{}
	svc := newPaymentTestService(t, repo, payments)

	body := webhookBody(t, "payment.captured", "pay_1", "order_1", "u1", 4900)
	if err := svc.HandleWebhook(context.Background(), body, signBody(body)); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	got := repo.snapshot("u1")
	if got.PlanType != model.PlanBasic {
		t.Errorf("plan = %s, want basic", got.PlanType)
	}
	if len(payments.payments) != 1 || payments.payments[0].Amount != 49 {
		t.Errorf("payments = %+v, want one captured record of 49", payments.payments)
	}
}

func TestHandleWebhookFailedPayment(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.put(&model.Account{ID: "u1", PlanType: model.PlanFree, MaxAdsAllowed: 5})
	payments := &fakePaymentRepo{}
	svc := newPaymentTestService(t, repo, payments)

	body := webhookBody(t, "payment.failed", "pay_1", "order_1", "u1", 4900)
	if err := svc.HandleWebhook(context.Background(), body, signBody(body)); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	if got := repo.snapshot("u1"); got.PlanType != model.PlanFree {
		t.Errorf("failed payment must not upgrade, plan = %s", got.PlanType)
	}
	if len(payments.payments) != 1 || payments.payments[0].Status != model.PaymentFailed {
		t.Errorf("payments = %+v, want one failed record", payments.payments)
	}
}

func TestHandleWebhookBadSignature(t *testing.T) {
	svc := newPaymentTestService(t, newFakeAccountRepo(), &fakePaymentRepo{})

	body := webhookBody(t, "payment.captured", "pay_1", "order_1", "u1", 4900)
	if err := svc.HandleWebhook(context.Background(), body, "bogus"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("error = %v, want ErrInvalidSignature", err)
	}
}

func TestHandleWebhookIgnoresOtherEvents(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.put(&model.Account{ID: "u1", PlanType: model.PlanFree, MaxAdsAllowed: 5})
	payments := &fakePaymentRepo{}
	svc := newPaymentTestService(t, repo, payments)

	body := webhookBody(t, "order.paid", "pay_1", "order_1", "u1", 4900)
	if err := svc.HandleWebhook(context.Background(), body, signBody(body)); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if len(payments.payments) != 0 {
		t.Errorf("unhandled event must record nothing, got %+v", payments.payments)
	}
}
