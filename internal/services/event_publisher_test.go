package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"chatService/internal/enums"
	"chatService/internal/models"
	"chatService/internal/models/events"
)

type captureSink struct {
	mu       sync.Mutex
	events   []events.DomainEvent
	failures int
}

func (s *captureSink) Emit(_ context.Context, event events.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("sink unavailable")
	}
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) waitEvents(t *testing.T, n int) []events.DomainEvent {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		if len(s.events) >= n {
			out := make([]events.DomainEvent, len(s.events))
			copy(out, s.events)
			s.mu.Unlock()
			return out
		}
		s.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.Fatalf("expected %d events, got %d", n, len(s.events))
	return nil
}

func TestAsyncEventPublisher_DeliversInOrder(t *testing.T) {
	sink := &captureSink{}
	publisher := NewAsyncEventPublisher(sink)
	defer publisher.Close()

	for i := 0; i < 5; i++ {
		event := events.NewMessageCreated(&models.Message{
			ID:             "message-" + string(rune('a'+i)),
			ConversationID: "conversation-1",
			SenderID:       "user-a",
			Content:        "hello",
			MessageType:    enums.MESSAGE_TYPE_TEXT,
		})
		if err := publisher.Publish(event); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	delivered := sink.waitEvents(t, 5)
	for i, event := range delivered {
		data, ok := event.Data.(events.MessageCreatedData)
		if !ok {
			t.Fatalf("event %d has unexpected data type %T", i, event.Data)
		}
		if data.MessageID != "message-"+string(rune('a'+i)) {
			t.Fatalf("event %d out of order: %s", i, data.MessageID)
		}
	}
}

func TestAsyncEventPublisher_RejectsMalformedEvent(t *testing.T) {
	sink := &captureSink{}
	publisher := NewAsyncEventPublisher(sink)
	defer publisher.Close()

	if err := publisher.Publish(events.DomainEvent{Data: map[string]string{}}); err == nil {
		t.Fatal("expected rejection of event without a type")
	}
	if err := publisher.Publish(events.DomainEvent{EventType: enums.EVENT_MESSAGE_CREATED}); err == nil {
		t.Fatal("expected rejection of event without data")
	}
}

func TestAsyncEventPublisher_RetriesTransientFailure(t *testing.T) {
	sink := &captureSink{failures: 2}
	publisher := NewAsyncEventPublisher(sink)
	defer publisher.Close()

	event := events.NewConversationCreated(&models.Conversation{
		ID:             "conversation-1",
		Participant1ID: "user-a",
		Participant2ID: "user-b",
	})
	if err := publisher.Publish(event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	delivered := sink.waitEvents(t, 1)
	if delivered[0].EventType != enums.EVENT_CONVERSATION_CREATED {
		t.Fatalf("unexpected event type %q", delivered[0].EventType)
	}
}

func TestAsyncEventPublisher_CloseDrainsQueue(t *testing.T) {
	sink := &captureSink{}
	publisher := NewAsyncEventPublisher(sink)

	for i := 0; i < 10; i++ {
		event := events.NewMessageCreated(&models.Message{
			ID:             "message-1",
			ConversationID: "conversation-1",
			SenderID:       "user-a",
			Content:        "drain me",
			MessageType:    enums.MESSAGE_TYPE_TEXT,
		})
		if err := publisher.Publish(event); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	publisher.Close()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 10 {
		t.Fatalf("expected close to drain 10 events, got %d", len(sink.events))
	}
}

func TestMessageCreatedEvent_WireSchema(t *testing.T) {
	message := &models.Message{
		ID:             "7f9c4f2e-0000-0000-0000-000000000001",
		ConversationID: "7f9c4f2e-0000-0000-0000-000000000002",
		SenderID:       "user-a",
		Content:        "hello",
		MessageType:    enums.MESSAGE_TYPE_TEXT,
		CreatedAt:      time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(events.NewMessageCreated(message))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		EventType string `json:"event_type"`
		Timestamp string `json:"timestamp"`
		Data      struct {
			MessageID      string `json:"message_id"`
			ConversationID string `json:"conversation_id"`
			SenderID       string `json:"sender_id"`
			Content        string `json:"content"`
			MessageType    string `json:"message_type"`
			CreatedAt      string `json:"created_at"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.EventType != "message.created" {
		t.Fatalf("unexpected event type %q", decoded.EventType)
	}
	if _, err := time.Parse(time.RFC3339, decoded.Timestamp); err != nil {
		t.Fatalf("timestamp not RFC 3339: %q", decoded.Timestamp)
	}
	if decoded.Data.MessageID != message.ID || decoded.Data.ConversationID != message.ConversationID {
		t.Fatal("event data ids do not match the message")
	}
	if decoded.Data.CreatedAt != "2024-05-01T12:30:00Z" {
		t.Fatalf("unexpected created_at %q", decoded.Data.CreatedAt)
	}
}
