package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"lokapasar/pkg/errors"
)

type fakeNotificationRepo struct {
	count int64
	err   error
	calls int
}

func (f *fakeNotificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

func TestNotificationRefreshReplacesCache(t *testing.T) {
	repo := &fakeNotificationRepo{count: 3}
	uc := NewNotificationUseCase(repo)

	assert.Equal(t, int64(3), uc.Refresh(context.Background(), "u1"))
	assert.Equal(t, int64(3), uc.Count("u1"))

	repo.count = 7
	assert.Equal(t, int64(7), uc.Refresh(context.Background(), "u1"))
	assert.Equal(t, int64(7), uc.Count("u1"))
	assert.Equal(t, 2, repo.calls)
}

func TestNotificationRefreshFailureKeepsPreviousCount(t *testing.T) {
	repo := &fakeNotificationRepo{count: 5}
	uc := NewNotificationUseCase(repo)

	assert.Equal(t, int64(5), uc.Refresh(context.Background(), "u1"))

	repo.err = errors.Internal("Failed to count unread messages", nil)
	assert.Equal(t, int64(5), uc.Refresh(context.Background(), "u1"))
	assert.Equal(t, int64(5), uc.Count("u1"))
}

func TestNotificationCountDefaultsToZero(t *testing.T) {
	uc := NewNotificationUseCase(&fakeNotificationRepo{})

	assert.Equal(t, int64(0), uc.Count("never-refreshed"))
}
