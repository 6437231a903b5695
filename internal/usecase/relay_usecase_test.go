package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lokapasar/internal/domain/entity"
	"lokapasar/pkg/errors"
)

type fakeMessageRepo struct {
	messages map[string]*entity.Message
	created  []*entity.Message
	getCalls int
}

func newFakeMessageRepo(messages ...*entity.Message) *fakeMessageRepo {
	repo := &fakeMessageRepo{messages: make(map[string]*entity.Message)}
	for _, m := range messages {
		repo.messages[m.ID] = m
	}
	return repo
}

func (f *fakeMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = "generated-" + time.Now().Format("150405.000000000")
	}
	f.messages[message.ID] = message
	f.created = append(f.created, message)
	return nil
}

func (f *fakeMessageRepo) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	f.getCalls++
	if message, ok := f.messages[id]; ok {
		return message, nil
	}
	return nil, errors.NotFound("Message", nil)
}

func (f *fakeMessageRepo) ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	var out []*entity.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeMessageRepo) MarkConversationRead(ctx context.Context, conversationID, userID string) (int, error) {
	updated := 0
	for _, m := range f.messages {
		if m.ConversationID == conversationID && m.RecipientID == userID && !m.IsRead {
			m.IsRead = true
			updated++
		}
	}
	return updated, nil
}

type publishedEvent struct {
	conversationID string
	message        *entity.Message
}

type fakePublisher struct {
	published []publishedEvent
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, conversationID string, message *entity.Message) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, publishedEvent{conversationID: conversationID, message: message})
	return nil
}

func TestRelayPublishesToConversationChannel(t *testing.T) {
	repo := newFakeMessageRepo(&entity.Message{
		ID:             "m1",
		ConversationID: "c1",
		SenderID:       "u1",
		Content:        "hello",
	})
	publisher := &fakePublisher{}
	uc := NewRelayUseCase(repo, publisher)

	err := uc.Relay(context.Background(), "m1")

	assert.NoError(t, err)
	if assert.Len(t, publisher.published, 1) {
		assert.Equal(t, "c1", publisher.published[0].conversationID)
		assert.Equal(t, "m1", publisher.published[0].message.ID)
	}
}

func TestRelayEmptyIDNeverContactsStore(t *testing.T) {
	repo := newFakeMessageRepo()
	publisher := &fakePublisher{}
	uc := NewRelayUseCase(repo, publisher)

	for _, id := range []string{"", "   "} {
		err := uc.Relay(context.Background(), id)

		assert.True(t, errors.Is(err, "BAD_REQUEST"))
		assert.EqualError(t, err, "BAD_REQUEST: messageId is required")
	}

	assert.Zero(t, repo.getCalls)
	assert.Empty(t, publisher.published)
}

func TestRelayUnknownMessage(t *testing.T) {
	repo := newFakeMessageRepo()
	publisher := &fakePublisher{}
	uc := NewRelayUseCase(repo, publisher)

	err := uc.Relay(context.Background(), "missing")

	assert.True(t, errors.Is(err, "NOT_FOUND"))
	assert.Empty(t, publisher.published)
}

func TestRelaySurfacesChannelFailure(t *testing.T) {
	repo := newFakeMessageRepo(&entity.Message{ID: "m1", ConversationID: "c1"})
	publisher := &fakePublisher{err: errors.PublishTimeout("Broadcast channel not ready", context.DeadlineExceeded)}
	uc := NewRelayUseCase(repo, publisher)

	err := uc.Relay(context.Background(), "m1")

	assert.True(t, errors.Is(err, "PUBLISH_TIMEOUT"))
	assert.Empty(t, publisher.published)
}
