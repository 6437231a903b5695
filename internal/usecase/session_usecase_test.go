package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lokapasar/internal/domain/entity"
	"lokapasar/internal/infrastructure/broadcast"
	"lokapasar/pkg/errors"
)

type fakeSubscription struct {
	events chan *broadcast.Event

	mu     sync.Mutex
	closed bool
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{events: make(chan *broadcast.Event, 16)}
}

func (s *fakeSubscription) Events() <-chan *broadcast.Event {
	return s.events
}

func (s *fakeSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSubscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeFeed struct {
	mu   sync.Mutex
	subs []*fakeSubscription
	err  error
}

func (f *fakeFeed) Subscribe(ctx context.Context) (broadcast.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	sub := newFakeSubscription()
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	return sub, nil
}

func newMessageEvent(id, senderID string) *broadcast.Event {
	return &broadcast.Event{
		Name: broadcast.EventNewMessage,
		Message: &entity.Message{
			ID:             id,
			ConversationID: "c1",
			SenderID:       senderID,
			Content:        "hello",
		},
	}
}

func waitForLog(t *testing.T, session *Session, length int) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return len(session.Messages()) == length
	}, time.Second, 5*time.Millisecond)
}

func TestSessionDeduplicatesByMessageID(t *testing.T) {
	feed := &fakeFeed{}
	manager := NewSessionManager(feed)

	session, err := manager.Open(context.Background(), "u1", nil)
	assert.NoError(t, err)
	defer manager.Release(session)

	sub := feed.subs[0]
	sub.events <- newMessageEvent("m1", "u2")
	sub.events <- newMessageEvent("m1", "u2")
	sub.events <- newMessageEvent("m2", "u2")

	waitForLog(t, session, 2)
	assert.Equal(t, 2, session.Unread())
	assert.Equal(t, "m2", session.Latest().ID)
}

func TestSessionOwnMessagesDoNotCountAsUnread(t *testing.T) {
	feed := &fakeFeed{}
	manager := NewSessionManager(feed)

	session, err := manager.Open(context.Background(), "u1", nil)
	assert.NoError(t, err)
	defer manager.Release(session)

	sub := feed.subs[0]
	sub.events <- newMessageEvent("m1", "u1")
	sub.events <- newMessageEvent("m2", "u2")
	sub.events <- newMessageEvent("m3", "u1")

	waitForLog(t, session, 3)
	assert.Equal(t, 1, session.Unread())
	assert.Equal(t, "m3", session.Latest().ID)
}

func TestSessionLogKeepsArrivalOrder(t *testing.T) {
	feed := &fakeFeed{}
	manager := NewSessionManager(feed)

	session, err := manager.Open(context.Background(), "u1", nil)
	assert.NoError(t, err)
	defer manager.Release(session)

	sub := feed.subs[0]
	for _, id := range []string{"m3", "m1", "m2"} {
		sub.events <- newMessageEvent(id, "u2")
	}

	waitForLog(t, session, 3)
	messages := session.Messages()
	assert.Equal(t, "m3", messages[0].ID)
	assert.Equal(t, "m1", messages[1].ID)
	assert.Equal(t, "m2", messages[2].ID)
}

func TestSessionDropsMalformedEvents(t *testing.T) {
	feed := &fakeFeed{}
	manager := NewSessionManager(feed)

	session, err := manager.Open(context.Background(), "u1", nil)
	assert.NoError(t, err)
	defer manager.Release(session)

	sub := feed.subs[0]
	sub.events <- nil
	sub.events <- &broadcast.Event{Name: "typing", Message: &entity.Message{ID: "m1"}}
	sub.events <- &broadcast.Event{Name: broadcast.EventNewMessage}
	sub.events <- &broadcast.Event{Name: broadcast.EventNewMessage, Message: &entity.Message{}}
	sub.events <- newMessageEvent("m1", "u2")

	waitForLog(t, session, 1)
	assert.Equal(t, 1, session.Unread())
	assert.Equal(t, "m1", session.Latest().ID)
}

func TestSessionNotifiesObserverPerAcceptedEvent(t *testing.T) {
	feed := &fakeFeed{}
	manager := NewSessionManager(feed)

	var mu sync.Mutex
	var updates []SessionUpdate
	session, err := manager.Open(context.Background(), "u1", func(u SessionUpdate) {
		mu.Lock()
		updates = append(updates, u)
		mu.Unlock()
	})
	assert.NoError(t, err)
	defer manager.Release(session)

	sub := feed.subs[0]
	sub.events <- newMessageEvent("m1", "u2")
	sub.events <- newMessageEvent("m1", "u2")
	sub.events <- newMessageEvent("m2", "u1")

	waitForLog(t, session, 2)
	mu.Lock()
	defer mu.Unlock()
	if assert.Len(t, updates, 2) {
		assert.Equal(t, "m1", updates[0].Message.ID)
		assert.Equal(t, 1, updates[0].Unread)
		assert.Equal(t, "m2", updates[1].Message.ID)
		assert.Equal(t, 1, updates[1].Unread)
	}
}

func TestSessionCloseStopsProcessing(t *testing.T) {
	feed := &fakeFeed{}
	manager := NewSessionManager(feed)

	session, err := manager.Open(context.Background(), "u1", nil)
	assert.NoError(t, err)

	sub := feed.subs[0]
	sub.events <- newMessageEvent("m1", "u2")
	waitForLog(t, session, 1)

	manager.Release(session)
	<-session.Done()
	assert.True(t, sub.isClosed())

	sub.events <- newMessageEvent("m2", "u2")
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, session.Messages(), 1)
	assert.Equal(t, 1, session.Unread())
}

func TestSessionLoopExitsWhenFeedEnds(t *testing.T) {
	feed := &fakeFeed{}
	manager := NewSessionManager(feed)

	session, err := manager.Open(context.Background(), "u1", nil)
	assert.NoError(t, err)

	close(feed.subs[0].events)

	select {
	case <-session.Done():
	case <-time.After(time.Second):
		t.Fatal("session loop did not exit after the feed ended")
	}
}

func TestSessionManagerReplacesExistingSession(t *testing.T) {
	feed := &fakeFeed{}
	manager := NewSessionManager(feed)

	first, err := manager.Open(context.Background(), "u1", nil)
	assert.NoError(t, err)

	second, err := manager.Open(context.Background(), "u1", nil)
	assert.NoError(t, err)
	defer manager.Release(second)

	<-first.Done()
	assert.True(t, feed.subs[0].isClosed())
	assert.False(t, feed.subs[1].isClosed())

	// Releasing the stale session must not tear down its replacement.
	manager.Release(first)
	assert.False(t, feed.subs[1].isClosed())
}

func TestSessionManagerSubscribeFailure(t *testing.T) {
	feed := &fakeFeed{err: errors.ChannelError("Failed to subscribe to broadcast channel", nil)}
	manager := NewSessionManager(feed)

	session, err := manager.Open(context.Background(), "u1", nil)

	assert.Nil(t, session)
	assert.True(t, errors.Is(err, "CHANNEL_ERROR"))
}

func TestSessionResetUnread(t *testing.T) {
	feed := &fakeFeed{}
	manager := NewSessionManager(feed)

	session, err := manager.Open(context.Background(), "u1", nil)
	assert.NoError(t, err)
	defer manager.Release(session)

	sub := feed.subs[0]
	sub.events <- newMessageEvent("m1", "u2")
	sub.events <- newMessageEvent("m2", "u2")

	waitForLog(t, session, 2)
	assert.Equal(t, 2, session.Unread())

	session.ResetUnread()
	assert.Equal(t, 0, session.Unread())

	// The log and latest pointer survive the reset.
	assert.Len(t, session.Messages(), 2)
	assert.Equal(t, "m2", session.Latest().ID)
}
