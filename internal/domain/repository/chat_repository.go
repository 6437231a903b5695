package repository

import (
	"context"

	"lokapasar/internal/domain/entity"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	GetByID(ctx context.Context, id string) (*entity.Message, error)
	ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error)
	MarkConversationRead(ctx context.Context, conversationID, userID string) (int, error)
}

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	GetByListingAndParticipants(ctx context.Context, listingID, buyerID, sellerID string) (*entity.Conversation, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error)
	Update(ctx context.Context, conversation *entity.Conversation) error
}

type NotificationRepository interface {
	CountUnread(ctx context.Context, userID string) (int64, error)
}
