package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"app/internal/config"
	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// PaymentService integrates the payment gateway. Order creation talks
// to the gateway REST API; confirmations and webhooks are verified
// with the gateway's HMAC-SHA256 signature scheme before any plan
// mutation is applied. Successful captures are persisted and routed
// through the cash plan path.
type PaymentService struct {
	cfg           *config.Config
	keySecret     string
	webhookSecret string
	payments      repository.PaymentRepository
	planSvc       PlanService
	httpClient    *http.Client
	logger        zerolog.Logger
}

// NewPaymentService builds the gateway integration. In non-development
// environments the key secret is loaded from Secret Manager when it is
// not present in the environment.
func NewPaymentService(ctx context.Context, cfg *config.Config, payments repository.PaymentRepository, planSvc PlanService, secrets SecretManagerService, logger zerolog.Logger) (*PaymentService, error) {
	keySecret := cfg.GatewayKeySecret
	if keySecret == "" && cfg.Environment != "development" {
		if secrets == nil {
			return nil, fmt.Errorf("gateway key secret is not configured")
		}
		loaded, err := secrets.AccessLatest(ctx, cfg.GatewaySecretName)
		if err != nil {
			return nil, fmt.Errorf("load gateway key secret: %w", err)
		}
		keySecret = loaded
	}
	webhookSecret := cfg.GatewayWebhookSecret
	if webhookSecret == "" {
		webhookSecret = keySecret
	}
	return &PaymentService{
		cfg:           cfg,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		payments:      payments,
		planSvc:       planSvc,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		logger:        logger.With().Str("service", "PaymentService").Logger(),
	}, nil
}

// GatewayOrder is the subset of the gateway's order object we use.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder registers a purchase intent with the gateway. The
// amount is in currency units; the gateway expects subunits.
func (s *PaymentService) CreateOrder(ctx context.Context, accountID string, amount int, currency string) (*GatewayOrder, error) {
	body, err := json.Marshal(map[string]any{
		"amount":   amount * 100,
		"currency": currency,
		"receipt":  fmt.Sprintf("receipt_%d", time.Now().UnixMilli()),
		"notes":    map[string]string{"account_id": accountID},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.GatewayBaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.cfg.GatewayKeyID, s.keySecret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", accountID).Msg("Gateway order request failed")
		return nil, fmt.Errorf("gateway order request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		s.logger.Error().Int("status", resp.StatusCode).Str("account_id", accountID).Msg("Gateway rejected order")
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var order GatewayOrder
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, fmt.Errorf("decode gateway order: %w", err)
	}
	return &order, nil
}

// VerifySignature checks the client-side confirmation signature: an
// HMAC-SHA256 hex digest of "orderID|paymentID" under the key secret.
func (s *PaymentService) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.keySecret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ConfirmPayment handles the client-side confirmation path. The
// signature proves the gateway issued the payment; a bad signature
// records a failed payment and mutates nothing else.
func (s *PaymentService) ConfirmPayment(ctx context.Context, accountID, orderID, paymentID, signature string, amount int) (*model.Account, error) {
	if !s.VerifySignature(orderID, paymentID, signature) {
		s.logger.Warn().Str("account_id", accountID).Str("order_id", orderID).Msg("Payment signature verification failed")
		if err := s.payments.Save(ctx, &model.Payment{
			AccountID: accountID,
			PaymentID: paymentID,
			OrderID:   orderID,
			Amount:    amount,
			Status:    model.PaymentFailed,
		}); err != nil {
			s.logger.Error().Err(err).Str("payment_id", paymentID).Msg("Failed to record rejected payment")
		}
		return nil, ErrInvalidSignature
	}

	if err := s.payments.Save(ctx, &model.Payment{
		AccountID: accountID,
		PaymentID: paymentID,
		OrderID:   orderID,
		Amount:    amount,
		Status:    model.PaymentCaptured,
	}); err != nil {
		return nil, err
	}
	return s.planSvc.ApplyPlanViaCash(ctx, accountID, amount)
}

// webhookPayload mirrors the gateway's event envelope.
type webhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string            `json:"id"`
				OrderID string            `json:"order_id"`
				Amount  int               `json:"amount"`
				Notes   map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook verifies the webhook body signature and applies the
// captured or failed payment. The raw body must be passed unmodified;
// the signature covers its exact bytes.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		s.logger.Warn().Msg("Webhook signature verification failed")
		return ErrInvalidSignature
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode webhook payload: %w", err)
	}
	payment := payload.Payload.Payment.Entity
	accountID := payment.Notes["account_id"]
	if accountID == "" {
		return fmt.Errorf("webhook payment %s carries no account id", payment.ID)
	}
	amount := payment.Amount / 100

	switch payload.Event {
	case "payment.captured":
		if err := s.payments.Save(ctx, &model.Payment{
			AccountID: accountID,
			PaymentID: payment.ID,
			OrderID:   payment.OrderID,
			Amount:    amount,
			Status:    model.PaymentCaptured,
		}); err != nil {
			return err
		}
		if _, err := s.planSvc.ApplyPlanViaCash(ctx, accountID, amount); err != nil {
			s.logger.Error().Err(err).Str("account_id", accountID).Int("amount", amount).Msg("Failed to apply plan from webhook capture")
			return err
		}
	case "payment.failed":
		if err := s.payments.Save(ctx, &model.Payment{
			AccountID: accountID,
			PaymentID: payment.ID,
			OrderID:   payment.OrderID,
			Amount:    amount,
			Status:    model.PaymentFailed,
		}); err != nil {
			return err
		}
	default:
		s.logger.Debug().Str("event", payload.Event).Msg("Ignoring webhook event")
	}
	return nil
}
