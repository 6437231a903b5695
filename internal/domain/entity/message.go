package entity

import "time"

type Message struct {
	ID             string    `json:"id" firestore:"id"`
	ConversationID string    `json:"conversation_id" firestore:"conversationId"`
	SenderID       string    `json:"sender_id" firestore:"senderId"`
	RecipientID    string    `json:"recipient_id" firestore:"recipientId"`
	Content        string    `json:"content" firestore:"content"`
	IsRead         bool      `json:"is_read" firestore:"isRead"` // Only mutable field; flipped by the recipient
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
}
