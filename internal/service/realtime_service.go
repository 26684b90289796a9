package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelahq/angela/internal/domain"
	"github.com/angelahq/angela/internal/pkg/metrics"
)

// Subscriber represents a connected SSE client
type Subscriber struct {
	ID      string
	Channel chan *domain.ChatEvent
	Done    chan struct{}
}

// RealtimeService fans chat events out to connected dashboard clients.
// The store is single-user, so every subscriber sees every event.
type RealtimeService struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
}

// NewRealtimeService creates a new realtime service
func NewRealtimeService() *RealtimeService {
	return &RealtimeService{
		subscribers: make(map[string]*Subscriber),
	}
}

// Subscribe registers a new client
func (s *RealtimeService) Subscribe(ctx context.Context) *Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &Subscriber{
		ID:      uuid.New().String(),
		Channel: make(chan *domain.ChatEvent, 100),
		Done:    make(chan struct{}),
	}

	s.subscribers[sub.ID] = sub
	metrics.SSESubscriberConnected()

	// Clean up when the connection context ends
	go func() {
		select {
		case <-ctx.Done():
			s.Unsubscribe(sub.ID)
		case <-sub.Done:
		}
	}()

	return sub
}

// Unsubscribe removes a subscription
func (s *RealtimeService) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub, ok := s.subscribers[id]; ok {
		close(sub.Done)
		close(sub.Channel)
		delete(s.subscribers, id)
		metrics.SSESubscriberDisconnected()
	}
}

// Publish delivers an event to every subscriber. Slow clients whose
// buffers are full miss the event rather than stalling the publisher.
func (s *RealtimeService) Publish(event *domain.ChatEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subscribers {
		select {
		case sub.Channel <- event:
		default:
		}
	}
}

// PublishMessage pushes a newly stored chat message
func (s *RealtimeService) PublishMessage(conversationID uuid.UUID, message *domain.Message) {
	s.Publish(&domain.ChatEvent{
		Type:           domain.ChatEventMessage,
		ConversationID: &conversationID,
		Payload:        message,
		At:             time.Now(),
	})
}

// PublishTitle pushes a freshly generated conversation title
func (s *RealtimeService) PublishTitle(conversationID uuid.UUID, title string) {
	s.Publish(&domain.ChatEvent{
		Type:           domain.ChatEventTitle,
		ConversationID: &conversationID,
		Payload:        map[string]string{"title": title},
		At:             time.Now(),
	})
}

// PublishReminderDue pushes a reminder the delivery worker just fired
func (s *RealtimeService) PublishReminderDue(reminder *domain.Reminder) {
	s.Publish(&domain.ChatEvent{
		Type:    domain.ChatEventReminderDue,
		Payload: reminder,
		At:      time.Now(),
	})
}

// SubscriberCount returns the number of connected clients
func (s *RealtimeService) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.subscribers)
}

// FormatSSE formats an event for SSE delivery
func FormatSSE(event *domain.ChatEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return append([]byte("data: "), append(data, '\n', '\n')...), nil
}
