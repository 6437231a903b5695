package usecase

import (
	"context"
	"time"

	"lokapasar/internal/domain/entity"
	"lokapasar/internal/domain/repository"
	"lokapasar/internal/infrastructure/ratelimit"
	"lokapasar/pkg/errors"
	"lokapasar/pkg/logger"
)

// ChatUseCase owns the write paths around conversations and messages. It is
// the direct trigger for the relay: every persisted message is handed to the
// RelayUseCase immediately, without waiting for the change listener.
type ChatUseCase struct {
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	relay            *RelayUseCase
	rateLimiter      *ratelimit.RateLimiter
}

func NewChatUseCase(
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	relay *RelayUseCase,
) *ChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ChatUseCase{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		relay:            relay,
		rateLimiter:      rateLimiter,
	}
}

type OpenConversationInput struct {
	ListingID      string
	SellerID       string
	InitialMessage string
}

type SendMessageInput struct {
	ConversationID string
	Content        string
}

// SendMessageResult reports the persisted message together with whether the
// broadcast publish succeeded. A false Relayed means the message was saved
// but may not have reached the recipient's live session.
type SendMessageResult struct {
	Message *entity.Message `json:"message"`
	Relayed bool            `json:"relayed"`
}

// OpenConversation finds or creates the buyer/seller conversation for a
// listing, optionally sending an opening message.
func (uc *ChatUseCase) OpenConversation(ctx context.Context, buyerID string, input OpenConversationInput) (*entity.Conversation, error) {
	allowed, waitTime := uc.rateLimiter.Allow(buyerID, "open_conversation")
	if !allowed {
		logger.Warn("OpenConversation rate limited: user %s must wait %v", buyerID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before opening another conversation", waitTime)
	}

	if buyerID == input.SellerID {
		return nil, errors.BadRequest("You cannot open a conversation with yourself", nil)
	}

	conversation, err := uc.conversationRepo.GetByListingAndParticipants(ctx, input.ListingID, buyerID, input.SellerID)
	if err != nil {
		if !errors.Is(err, "NOT_FOUND") {
			return nil, err
		}

		conversation = &entity.Conversation{
			BuyerID:       buyerID,
			SellerID:      input.SellerID,
			ListingID:     input.ListingID,
			LastMessageAt: time.Now(),
		}
		if err := uc.conversationRepo.Create(ctx, conversation); err != nil {
			return nil, err
		}
	}

	if input.InitialMessage != "" {
		if _, err := uc.SendMessage(ctx, buyerID, SendMessageInput{
			ConversationID: conversation.ID,
			Content:        input.InitialMessage,
		}); err != nil {
			return nil, err
		}
		conversation.LastMessage = input.InitialMessage
	}

	return conversation, nil
}

// SendMessage persists the message, bumps the conversation's denormalized
// last-message fields, then relays the message to the broadcast channel.
// Relay failure does not undo the write; it is reported in the result.
func (uc *ChatUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*SendMessageResult, error) {
	allowed, waitTime := uc.rateLimiter.Allow(senderID, "send_message")
	if !allowed {
		logger.Warn("SendMessage rate limited: user %s must wait %v", senderID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message", waitTime)
	}

	if input.Content == "" {
		return nil, errors.BadRequest("Message content is required", nil)
	}

	conversation, err := uc.conversationRepo.GetByID(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}

	if !conversation.HasParticipant(senderID) {
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}

	message := &entity.Message{
		ConversationID: conversation.ID,
		SenderID:       senderID,
		RecipientID:    conversation.OtherParticipant(senderID),
		Content:        input.Content,
		CreatedAt:      time.Now(),
	}

	if err := uc.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	conversation.LastMessage = message.Content
	if message.CreatedAt.After(conversation.LastMessageAt) {
		conversation.LastMessageAt = message.CreatedAt
	}
	if err := uc.conversationRepo.Update(ctx, conversation); err != nil {
		logger.Error("SendMessage: failed to update conversation %s: %v", conversation.ID, err)
		return nil, err
	}

	relayed := true
	if err := uc.relay.Relay(ctx, message.ID); err != nil {
		relayed = false
		logger.Warn("SendMessage: message %s saved but relay failed: %v", message.ID, err)
	}

	return &SendMessageResult{Message: message, Relayed: relayed}, nil
}

func (uc *ChatUseCase) ListConversations(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	return uc.conversationRepo.ListByUserID(ctx, userID, limit, offset)
}

func (uc *ChatUseCase) GetMessages(ctx context.Context, userID, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, 0, err
	}

	if !conversation.HasParticipant(userID) {
		return nil, 0, errors.Forbidden("User is not a participant in this conversation", nil)
	}

	return uc.messageRepo.ListByConversation(ctx, conversationID, limit, offset)
}

// MarkConversationRead flips the read flag on the user's incoming messages.
// This is the explicit unread reset path; nothing resets counts implicitly.
func (uc *ChatUseCase) MarkConversationRead(ctx context.Context, userID, conversationID string) (int, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return 0, err
	}

	if !conversation.HasParticipant(userID) {
		return 0, errors.Forbidden("User is not a participant in this conversation", nil)
	}

	return uc.messageRepo.MarkConversationRead(ctx, conversationID, userID)
}
