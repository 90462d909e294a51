package service

import (
	"context"
	"encoding/json"
	"time"

	"app/internal/model"
	"app/internal/pubsub"

	"github.com/rs/zerolog"
)

// Events publishes lifecycle notifications for downstream consumers.
// Publishing is best-effort: a failed publish is logged and never
// fails the mutation that triggered it. A nil *Events is a no-op
// emitter, for deployments without a project configured.
type Events struct {
	publisher    pubsub.Publisher
	listingTopic string
	rewardTopic  string
	logger       zerolog.Logger
}

// NewEvents creates an event emitter. A nil publisher disables
// publishing, for deployments without a project configured.
func NewEvents(publisher pubsub.Publisher, listingTopic, rewardTopic string, logger zerolog.Logger) *Events {
	return &Events{
		publisher:    publisher,
		listingTopic: listingTopic,
		rewardTopic:  rewardTopic,
		logger:       logger.With().Str("service", "Events").Logger(),
	}
}

func (e *Events) publish(ctx context.Context, topic string, payload any) {
	if e == nil || e.publisher == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		e.logger.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event payload")
		return
	}
	if _, err := e.publisher.Publish(ctx, topic, data); err != nil {
		e.logger.Error().Err(err).Str("topic", topic).Msg("Failed to publish event")
	}
}

// RewardGranted announces a wallet credit issued by the reward engine.
func (e *Events) RewardGranted(ctx context.Context, accountID string, amount int, reason string) {
	if e == nil {
		return
	}
	e.publish(ctx, e.rewardTopic, map[string]any{
		"event":      "reward.granted",
		"account_id": accountID,
		"amount":     amount,
		"reason":     reason,
		"at":         time.Now().UTC(),
	})
}

// ListingChanged announces a listing lifecycle transition
// (created, approved, rejected).
func (e *Events) ListingChanged(ctx context.Context, event string, l *model.Listing) {
	if e == nil {
		return
	}
	e.publish(ctx, e.listingTopic, map[string]any{
		"event":      event,
		"listing_id": l.ID,
		"account_id": l.CreatedBy,
		"at":         time.Now().UTC(),
	})
}
