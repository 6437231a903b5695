package usecase

import (
	"context"
	"sync"

	"lokapasar/internal/domain/entity"
	"lokapasar/internal/infrastructure/broadcast"
	"lokapasar/pkg/logger"
)

// SessionUpdate is handed to the session's observer after each accepted
// event.
type SessionUpdate struct {
	Message *entity.Message
	Unread  int
}

// Session owns the client-side view of the broadcast feed for one active
// user session: an arrival-ordered message log deduplicated by id, the
// most-recent-message pointer, and the unread count. All of it is discarded
// on Close; a new sign-in gets a fresh session.
type Session struct {
	userID   string
	sub      broadcast.Subscription
	onUpdate func(SessionUpdate)

	mu     sync.RWMutex
	seen   map[string]struct{}
	log    []*entity.Message
	latest *entity.Message
	unread int

	closeOnce sync.Once
	done      chan struct{}
	finished  chan struct{}
}

// SessionManager opens at most one feed subscription per user session.
type SessionManager struct {
	feed     broadcast.Feed
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager(feed broadcast.Feed) *SessionManager {
	return &SessionManager{
		feed:     feed,
		sessions: make(map[string]*Session),
	}
}

// Open subscribes to the global feed and starts processing events, one at a
// time in arrival order. If the user already has a session it is closed
// first; the newest session wins. onUpdate may be nil.
func (m *SessionManager) Open(ctx context.Context, userID string, onUpdate func(SessionUpdate)) (*Session, error) {
	sub, err := m.feed.Subscribe(ctx)
	if err != nil {
		logger.Error("Session: failed to subscribe feed for user %s: %v", userID, err)
		return nil, err
	}

	session := &Session{
		userID:   userID,
		sub:      sub,
		onUpdate: onUpdate,
		seen:     make(map[string]struct{}),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}

	m.mu.Lock()
	if prev, ok := m.sessions[userID]; ok {
		prev.Close()
	}
	m.sessions[userID] = session
	m.mu.Unlock()

	go session.loop()

	logger.Info("Session: opened for user %s", userID)
	return session, nil
}

// Release closes the session and forgets it, unless a newer session has
// already replaced it for the same user.
func (m *SessionManager) Release(session *Session) {
	m.mu.Lock()
	if current, ok := m.sessions[session.userID]; ok && current == session {
		delete(m.sessions, session.userID)
	}
	m.mu.Unlock()

	session.Close()
}

func (s *Session) loop() {
	defer close(s.finished)

	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.sub.Events():
			if !ok {
				return
			}
			s.handle(event)
		}
	}
}

func (s *Session) handle(event *broadcast.Event) {
	// Malformed or unknown events are dropped without surfacing anything.
	if event == nil || event.Name != broadcast.EventNewMessage || event.Message == nil || event.Message.ID == "" {
		return
	}

	message := event.Message

	s.mu.Lock()
	if _, dup := s.seen[message.ID]; dup {
		s.mu.Unlock()
		return
	}
	s.seen[message.ID] = struct{}{}
	s.log = append(s.log, message)
	s.latest = message
	if message.SenderID != s.userID {
		s.unread++
	}
	unread := s.unread
	s.mu.Unlock()

	if s.onUpdate != nil {
		s.onUpdate(SessionUpdate{Message: message, Unread: unread})
	}
}

// Close releases the subscription and stops event processing. Safe to call
// more than once; teardown is guaranteed regardless of how the session
// ended.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if err := s.sub.Close(); err != nil {
			logger.Warn("Session: error closing subscription for user %s: %v", s.userID, err)
		}
		logger.Info("Session: closed for user %s", s.userID)
	})
}

// Done is closed once the event loop has fully stopped.
func (s *Session) Done() <-chan struct{} {
	return s.finished
}

func (s *Session) UserID() string {
	return s.userID
}

// Messages returns the log in arrival order.
func (s *Session) Messages() []*entity.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Message, len(s.log))
	copy(out, s.log)
	return out
}

func (s *Session) Latest() *entity.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Session) Unread() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// ResetUnread zeroes the counter. The surrounding UI calls this from its
// mark-as-read action; nothing decrements automatically.
func (s *Session) ResetUnread() {
	s.mu.Lock()
	s.unread = 0
	s.mu.Unlock()
}
