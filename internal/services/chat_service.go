package services

import (
	"chatService/internal/enums"
	"chatService/internal/errs"
	"chatService/internal/models"
	"chatService/internal/repositories"
)

type ChatService struct {
	chatRepo *repositories.ChatRepository
}

func NewChatService(chatRepo *repositories.ChatRepository) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
	}
}

// CreateConversation finds or creates the conversation for a participant
// pair. The returned flag reports whether a new conversation was created.
func (cs *ChatService) CreateConversation(body *models.CreateConversationRequestBody) (*models.Conversation, bool, error) {
	if body.Participant1ID == "" || body.Participant2ID == "" {
		return nil, false, errs.ErrMissingParticipants
	}
	if body.Participant1ID == body.Participant2ID {
		return nil, false, errs.ErrSameParticipants
	}
	return cs.chatRepo.CreateOrFetchConversation(body)
}

func (cs *ChatService) GetConversation(conversationID string) (*models.ConversationResponse, error) {
	conversation, err := cs.chatRepo.GetConversationById(conversationID)
	if err != nil {
		return nil, err
	}
	lastMessage, _ := cs.chatRepo.GetConversationLastMessage(conversationID)
	response := conversation.ToConversationResponse(lastMessage)
	return &response, nil
}

// GetActiveConversation validates that a conversation exists and is active;
// socket connections are refused when it fails.
func (cs *ChatService) GetActiveConversation(conversationID string) (*models.Conversation, error) {
	return cs.chatRepo.GetActiveConversation(conversationID)
}

func (cs *ChatService) GetUserConversations(userID string, page, size int) (*models.ConversationListResponse, error) {
	return cs.chatRepo.GetUserConversations(userID, page, size)
}

// SendMessage validates and persists a message, allocating its sequence
// number. It performs no fan-out and no event publication; callers decide
// those, in that order, after persistence succeeds.
func (cs *ChatService) SendMessage(conversationID string, body *models.SendMessageRequestBody) (*models.Message, error) {
	if body.SenderID == "" || body.Content == "" {
		return nil, errs.ErrMissingSenderOrContent
	}
	messageType := body.MessageType
	if messageType == "" {
		messageType = enums.MESSAGE_TYPE_TEXT
	}
	if !enums.IsValidMessageType(messageType) {
		return nil, errs.ErrInvalidMessageType
	}

	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       body.SenderID,
		Content:        body.Content,
		MessageType:    messageType,
		ReplyToID:      body.ReplyToID,
		BrandID:        body.BrandID,
	}
	return cs.chatRepo.SaveMessage(message)
}

// GetConversationHistory returns the full ordered snapshot of non-deleted
// messages used as the session's first outbound frame.
func (cs *ChatService) GetConversationHistory(conversationID string) ([]models.MessageResponse, error) {
	messages, err := cs.chatRepo.GetConversationHistory(conversationID)
	if err != nil {
		return nil, err
	}
	responses := make([]models.MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, messages[i].ToMessageResponse())
	}
	return responses, nil
}

func (cs *ChatService) GetMessages(conversationID string, page, size int) (*models.MessageListResponse, error) {
	if _, err := cs.chatRepo.GetConversationById(conversationID); err != nil {
		return nil, err
	}
	return cs.chatRepo.GetMessagesByConversationId(conversationID, page, size)
}

// MarkMessageRead upserts the recipient's receipt to "read". Monotonic: a
// pair already at "read" stays there.
func (cs *ChatService) MarkMessageRead(messageID, userID string) (*models.DeliveryReceipt, error) {
	return cs.chatRepo.UpsertReceipt(messageID, userID, enums.RECEIPT_STATUS_READ)
}

// UpdateReceipt applies an acknowledged status from the recipient's client.
func (cs *ChatService) UpdateReceipt(messageID, userID, status string) (*models.DeliveryReceipt, error) {
	if enums.ReceiptStatusRank(status) == 0 {
		return nil, errs.ErrInvalidParams
	}
	return cs.chatRepo.UpsertReceipt(messageID, userID, status)
}

func (cs *ChatService) GetReceipt(messageID, userID string) (*models.DeliveryReceipt, error) {
	return cs.chatRepo.GetReceipt(messageID, userID)
}

func (cs *ChatService) DeleteMessage(messageID string) error {
	return cs.chatRepo.SoftDeleteMessage(messageID)
}

// LeaveConversation soft-deactivates the conversation for everyone; history
// is retained.
func (cs *ChatService) LeaveConversation(conversationID string) error {
	return cs.chatRepo.DeactivateConversation(conversationID)
}
