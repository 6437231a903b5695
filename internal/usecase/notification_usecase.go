package usecase

import (
	"context"
	"sync"

	"lokapasar/internal/domain/repository"
	"lokapasar/pkg/logger"
)

// NotificationUseCase keeps a per-user cache of the unread-notification
// aggregate. Refresh failures are soft: the previous value stays in place
// and the failure is only logged.
type NotificationUseCase struct {
	notificationRepo repository.NotificationRepository

	mu     sync.RWMutex
	counts map[string]int64
}

func NewNotificationUseCase(notificationRepo repository.NotificationRepository) *NotificationUseCase {
	return &NotificationUseCase{
		notificationRepo: notificationRepo,
		counts:           make(map[string]int64),
	}
}

// Refresh re-runs the aggregate query for the user and returns the freshest
// known count. On failure the cached value is returned unchanged.
func (uc *NotificationUseCase) Refresh(ctx context.Context, userID string) int64 {
	count, err := uc.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		logger.Warn("Notification refresh failed for user %s, keeping previous count: %v", userID, err)
		return uc.Count(userID)
	}

	uc.mu.Lock()
	uc.counts[userID] = count
	uc.mu.Unlock()

	return count
}

// Count returns the cached value without touching the store.
func (uc *NotificationUseCase) Count(userID string) int64 {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.counts[userID]
}
