package usecase

import (
	"context"
	"strings"

	"lokapasar/internal/domain/repository"
	"lokapasar/internal/infrastructure/broadcast"
	"lokapasar/pkg/errors"
	"lokapasar/pkg/logger"
)

// RelayUseCase fans a freshly persisted message out to everyone subscribed
// to its conversation channel. Delivery is at-most-once: there is no retry
// and no acknowledgment from subscribers.
type RelayUseCase struct {
	messageRepo repository.MessageRepository
	publisher   broadcast.Publisher
}

func NewRelayUseCase(messageRepo repository.MessageRepository, publisher broadcast.Publisher) *RelayUseCase {
	return &RelayUseCase{
		messageRepo: messageRepo,
		publisher:   publisher,
	}
}

// Relay loads the message by id and publishes one new-message event to the
// channel named for its conversation. Every failure is surfaced to the
// caller with a distinguishable code; none is retried internally.
func (uc *RelayUseCase) Relay(ctx context.Context, messageID string) error {
	if strings.TrimSpace(messageID) == "" {
		return errors.BadRequest("messageId is required", nil)
	}

	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		logger.Error("Relay: failed to load message %s: %v", messageID, err)
		return err
	}

	if err := uc.publisher.Publish(ctx, message.ConversationID, message); err != nil {
		logger.Error("Relay: failed to publish message %s to conversation %s: %v",
			message.ID, message.ConversationID, err)
		return err
	}

	logger.Info("Relay: published message %s to %s", message.ID, broadcast.ChannelFor(message.ConversationID))
	return nil
}
