package models

import (
	"time"
)

// DeliveryReceipt tracks per-recipient acknowledgment state for one message.
// Exactly one row exists per (message, user) pair and status only ever moves
// forward in the sent < delivered < read order.
type DeliveryReceipt struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID string    `gorm:"type:uuid;not null;uniqueIndex:idx_message_user" json:"message_id"`
	UserID    string    `gorm:"not null;index;uniqueIndex:idx_message_user" json:"user_id"`
	Status    string    `gorm:"not null;default:sent" json:"status"`
	Timestamp time.Time `json:"timestamp"`

	Message Message `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
