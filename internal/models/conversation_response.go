package models

import "time"

type ConversationResponse struct {
	ID             string           `json:"id"`
	Participant1ID string           `json:"participant1_id"`
	Participant2ID string           `json:"participant2_id"`
	BrandID        *string          `json:"brand_id"`
	Type           string           `json:"type"`
	IsActive       bool             `json:"is_active"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	LastMessage    *MessageResponse `json:"last_message"`
}

type ConversationListResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
	Page          int                    `json:"page"`
	Size          int                    `json:"size"`
	Total         int64                  `json:"total"`
}
