package models

import (
	"time"
)

// Conversation is a persistent thread between two participants. Participant
// ids are opaque references to the external user service, never foreign keys.
// The normalized participant pair is unique per conversation type, which makes
// create-or-fetch idempotent regardless of argument order.
type Conversation struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	Participant1ID string    `gorm:"index;not null;uniqueIndex:idx_participants_type" json:"participant1_id"`
	Participant2ID string    `gorm:"index;not null;uniqueIndex:idx_participants_type" json:"participant2_id"`
	BrandID        *string   `gorm:"index" json:"brand_id"`
	Type           string    `gorm:"not null;default:user;uniqueIndex:idx_participants_type" json:"type"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	LastSeq        int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Messages []Message `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// PeerOf returns the other participant of a one-to-one conversation, or ""
// when userID is not a participant.
func (conversation *Conversation) PeerOf(userID string) string {
	switch userID {
	case conversation.Participant1ID:
		return conversation.Participant2ID
	case conversation.Participant2ID:
		return conversation.Participant1ID
	}
	return ""
}

func (conversation *Conversation) ToConversationResponse(lastMessage *Message) ConversationResponse {
	var last *MessageResponse
	if lastMessage != nil {
		resp := lastMessage.ToMessageResponse()
		last = &resp
	}
	return ConversationResponse{
		ID:             conversation.ID,
		Participant1ID: conversation.Participant1ID,
		Participant2ID: conversation.Participant2ID,
		BrandID:        conversation.BrandID,
		Type:           conversation.Type,
		IsActive:       conversation.IsActive,
		CreatedAt:      conversation.CreatedAt,
		UpdatedAt:      conversation.UpdatedAt,
		LastMessage:    last,
	}
}
