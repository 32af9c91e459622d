package webhook

import (
	"context"
	"encoding/json"

	"github.com/openhousehq/openhouse/internal/config"
	"github.com/openhousehq/openhouse/internal/logger"
	"github.com/openhousehq/openhouse/internal/pubsub"
	"github.com/openhousehq/openhouse/internal/types"
)

// Service consumes lifecycle events from the webhook topic. Actual delivery
// to subscriber endpoints is owned by the downstream notification service;
// this consumer drains the topic and records what went through it.
type Service struct {
	pubSub pubsub.PubSub
	config *config.WebhookConfig
	logger *logger.Logger
	cancel context.CancelFunc
}

func NewService(pubSub pubsub.PubSub, cfg *config.Configuration, logger *logger.Logger) *Service {
	return &Service{
		pubSub: pubSub,
		config: &cfg.Webhook,
		logger: logger,
	}
}

// Start subscribes to the webhook topic and consumes until Stop is called
func (s *Service) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	messages, err := s.pubSub.Subscribe(ctx, s.config.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			var event types.WebhookEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				s.logger.Errorw("failed to decode webhook event",
					"error", err,
					"message_id", msg.UUID,
				)
				msg.Ack()
				continue
			}

			s.logger.Infow("webhook event consumed",
				"event_id", event.ID,
				"event_name", event.EventName,
				"user_id", event.UserID,
				"team_id", event.TeamID,
			)
			msg.Ack()
		}
	}()

	return nil
}

// Stop cancels the subscription
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}
