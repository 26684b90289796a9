package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelahq/angela/internal/domain"
)

func TestRealtimeService_PublishDelivery(t *testing.T) {
	svc := NewRealtimeService()

	sub1 := svc.Subscribe(context.Background())
	sub2 := svc.Subscribe(context.Background())
	defer svc.Unsubscribe(sub1.ID)
	defer svc.Unsubscribe(sub2.ID)

	assert.Equal(t, 2, svc.SubscriberCount())

	convID := uuid.New()
	svc.PublishMessage(convID, &domain.Message{Content: "hello"})

	for _, sub := range []*Subscriber{sub1, sub2} {
		select {
		case event := <-sub.Channel:
			assert.Equal(t, domain.ChatEventMessage, event.Type)
			require.NotNil(t, event.ConversationID)
			assert.Equal(t, convID, *event.ConversationID)
			msg, ok := event.Payload.(*domain.Message)
			require.True(t, ok)
			assert.Equal(t, "hello", msg.Content)
		case <-time.After(time.Second):
			t.Fatal("subscriber never received the event")
		}
	}
}

func TestRealtimeService_SlowSubscriberMissesEvents(t *testing.T) {
	svc := NewRealtimeService()
	sub := svc.Subscribe(context.Background())
	defer svc.Unsubscribe(sub.ID)

	// Fill the buffer and then some; the overflow must not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 150; i++ {
			svc.Publish(&domain.ChatEvent{Type: domain.ChatEventMessage, At: time.Now()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}

	assert.Len(t, sub.Channel, 100)
}

func TestRealtimeService_Unsubscribe(t *testing.T) {
	svc := NewRealtimeService()
	sub := svc.Subscribe(context.Background())

	svc.Unsubscribe(sub.ID)

	assert.Equal(t, 0, svc.SubscriberCount())
	_, open := <-sub.Channel
	assert.False(t, open)

	// Idempotent
	svc.Unsubscribe(sub.ID)
}

func TestRealtimeService_ContextCancelCleansUp(t *testing.T) {
	svc := NewRealtimeService()
	ctx, cancel := context.WithCancel(context.Background())

	svc.Subscribe(ctx)
	cancel()

	assert.Eventually(t, func() bool {
		return svc.SubscriberCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestRealtimeService_EventShapes(t *testing.T) {
	svc := NewRealtimeService()
	sub := svc.Subscribe(context.Background())
	defer svc.Unsubscribe(sub.ID)

	convID := uuid.New()

	t.Run("title", func(t *testing.T) {
		svc.PublishTitle(convID, "Garden Planning")

		event := <-sub.Channel
		assert.Equal(t, domain.ChatEventTitle, event.Type)
		payload, ok := event.Payload.(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "Garden Planning", payload["title"])
	})

	t.Run("reminder due", func(t *testing.T) {
		svc.PublishReminderDue(&domain.Reminder{Title: "Water the plants"})

		event := <-sub.Channel
		assert.Equal(t, domain.ChatEventReminderDue, event.Type)
		assert.Nil(t, event.ConversationID)
		reminder, ok := event.Payload.(*domain.Reminder)
		require.True(t, ok)
		assert.Equal(t, "Water the plants", reminder.Title)
	})
}

func TestFormatSSE(t *testing.T) {
	convID := uuid.New()
	data, err := FormatSSE(&domain.ChatEvent{
		Type:           domain.ChatEventTitle,
		ConversationID: &convID,
		Payload:        map[string]string{"title": "hi"},
		At:             time.Now(),
	})

	require.NoError(t, err)
	s := string(data)
	assert.True(t, strings.HasPrefix(s, "data: "))
	assert.True(t, strings.HasSuffix(s, "\n\n"))
	assert.Contains(t, s, `"title":"hi"`)
}
