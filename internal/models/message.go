package models

import (
	"time"
)

// Message is one persisted unit of conversation content. Seq is strictly
// increasing within a conversation and is the authoritative display order;
// CreatedAt is only a secondary hint. Deletion is a soft flag, the row stays
// as long as the owning conversation exists.
type Message struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID string    `gorm:"type:uuid;not null;index;uniqueIndex:idx_conversation_seq" json:"conversation_id"`
	SenderID       string    `gorm:"index;not null" json:"sender_id"`
	Content        string    `gorm:"not null" json:"content"`
	MessageType    string    `gorm:"not null;default:text" json:"message_type"`
	ReplyToID      *string   `gorm:"type:uuid" json:"reply_to_id"`
	BrandID        *string   `json:"brand_id"`
	Seq            int64     `gorm:"not null;uniqueIndex:idx_conversation_seq" json:"seq"`
	IsDeleted      bool      `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Conversation Conversation      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Receipts     []DeliveryReceipt `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (message *Message) ToMessageResponse() MessageResponse {
	return MessageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Content:        message.Content,
		MessageType:    message.MessageType,
		ReplyToID:      message.ReplyToID,
		Seq:            message.Seq,
		CreatedAt:      message.CreatedAt,
		UpdatedAt:      message.UpdatedAt,
	}
}
