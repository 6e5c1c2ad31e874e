// Package events defines the outbound domain event schema. The shape is fixed
// for cross-service portability: every id is serialized as a string and every
// timestamp as RFC 3339.
package events

import (
	"time"

	"chatService/internal/enums"
	"chatService/internal/models"
)

type DomainEvent struct {
	EventType string      `json:"event_type"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type MessageCreatedData struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	Content        string `json:"content"`
	MessageType    string `json:"message_type"`
	CreatedAt      string `json:"created_at"`
}

type ConversationCreatedData struct {
	ConversationID string `json:"conversation_id"`
	Participant1ID string `json:"participant1_id"`
	Participant2ID string `json:"participant2_id"`
	CreatedAt      string `json:"created_at"`
}

func NewMessageCreated(message *models.Message) DomainEvent {
	return DomainEvent{
		EventType: enums.EVENT_MESSAGE_CREATED,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data: MessageCreatedData{
			MessageID:      message.ID,
			ConversationID: message.ConversationID,
			SenderID:       message.SenderID,
			Content:        message.Content,
			MessageType:    message.MessageType,
			CreatedAt:      message.CreatedAt.UTC().Format(time.RFC3339),
		},
	}
}

func NewConversationCreated(conversation *models.Conversation) DomainEvent {
	return DomainEvent{
		EventType: enums.EVENT_CONVERSATION_CREATED,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data: ConversationCreatedData{
			ConversationID: conversation.ID,
			Participant1ID: conversation.Participant1ID,
			Participant2ID: conversation.Participant2ID,
			CreatedAt:      conversation.CreatedAt.UTC().Format(time.RFC3339),
		},
	}
}
