package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"

	"lokapasar/internal/domain/repository"
	"lokapasar/pkg/errors"
)

type firestoreNotificationRepository struct {
	client *firestore.Client
}

func NewFirestoreNotificationRepository(client *firestore.Client) repository.NotificationRepository {
	return &firestoreNotificationRepository{client: client}
}

func (r *firestoreNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	query := r.client.Collection(messageCollection).
		Where("recipientId", "==", userID).
		Where("isRead", "==", false)

	result, err := query.NewAggregationQuery().WithCount("total").Get(ctx)
	if err != nil {
		return 0, errors.Internal("Failed to count unread messages", err)
	}

	value, ok := result["total"].(*firestorepb.Value)
	if !ok {
		return 0, errors.Internal("Unread count missing from aggregation result", nil)
	}

	return value.GetIntegerValue(), nil
}
