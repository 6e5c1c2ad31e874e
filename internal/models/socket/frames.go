package socket

import "chatService/internal/models"

// ClientFrame is the tagged structure clients send over the socket. All
// operation fields live on one flat frame, the Type tag decides which are
// meaningful.
type ClientFrame struct {
	Type        string `json:"type"`
	SenderID    string `json:"sender_id"`
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
	MessageID   string `json:"message_id"`
	UserID      string `json:"user_id"`
	IsTyping    bool   `json:"is_typing"`
}

type HistoryFrame struct {
	Type     string                   `json:"type"`
	Messages []models.MessageResponse `json:"messages"`
}

type ChatMessageFrame struct {
	Type    string                 `json:"type"`
	Message models.MessageResponse `json:"message"`
}

type MessageReadFrame struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
}

type TypingStatusFrame struct {
	Type     string `json:"type"`
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

type ErrorFrame struct {
	Error string `json:"error"`
}
