package models

type CreateConversationRequestBody struct {
	Participant1ID string  `json:"participant1_id"`
	Participant2ID string  `json:"participant2_id"`
	BrandID        *string `json:"brand_id"`
	Type           string  `json:"type"`
}

type SendMessageRequestBody struct {
	SenderID    string  `json:"sender_id"`
	Content     string  `json:"content"`
	MessageType string  `json:"message_type"`
	ReplyToID   *string `json:"reply_to_id"`
	BrandID     *string `json:"brand_id"`
}

type MarkAsReadRequestBody struct {
	UserID string `json:"user_id"`
}

type LeaveConversationRequestBody struct {
	UserID string `json:"user_id"`
}
