package repositories

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chatService/internal/enums"
	"chatService/internal/errs"
	"chatService/internal/models"
	"chatService/internal/utils"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{
		db: db,
	}
}

// CreateOrFetchConversation returns the conversation for the given
// participant pair, creating it when none exists. Participants are normalized
// before lookup and insert so (A, B) and (B, A) always resolve to the same
// row; a unique index backs the invariant, and the loser of a racing create
// re-fetches instead of failing.
func (chr *ChatRepository) CreateOrFetchConversation(body *models.CreateConversationRequestBody) (*models.Conversation, bool, error) {
	p1, p2 := body.Participant1ID, body.Participant2ID
	if p2 < p1 {
		p1, p2 = p2, p1
	}
	conversationType := body.Type
	if conversationType == "" {
		conversationType = enums.CONVERSATION_TYPE_USER
	}

	existing, err := chr.findConversationByPair(p1, p2, conversationType)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	conversation := &models.Conversation{
		ID:             uuid.NewString(),
		Participant1ID: p1,
		Participant2ID: p2,
		BrandID:        body.BrandID,
		Type:           conversationType,
		IsActive:       true,
	}
	if err := chr.db.Create(conversation).Error; err != nil {
		// A concurrent create for the same pair won the unique index race.
		if existing, fetchErr := chr.findConversationByPair(p1, p2, conversationType); fetchErr == nil {
			return existing, false, nil
		}
		return nil, false, err
	}
	return conversation, true, nil
}

func (chr *ChatRepository) findConversationByPair(p1, p2, conversationType string) (*models.Conversation, error) {
	var conversation models.Conversation
	err := chr.db.
		Where("participant1_id = ? AND participant2_id = ? AND type = ?", p1, p2, conversationType).
		First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (chr *ChatRepository) GetConversationById(conversationID string) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := chr.db.First(&conversation, "id = ?", conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrConversationNotFound
		}
		return nil, err
	}
	return &conversation, nil
}

// GetActiveConversation resolves a conversation that exists and has not been
// deactivated; used to validate socket connection requests.
func (chr *ChatRepository) GetActiveConversation(conversationID string) (*models.Conversation, error) {
	conversation, err := chr.GetConversationById(conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.IsActive {
		return nil, errs.ErrConversationInactive
	}
	return conversation, nil
}

func (chr *ChatRepository) GetUserConversations(userID string, page, size int) (*models.ConversationListResponse, error) {
	var conversations []models.Conversation
	var total int64

	transactionErr := chr.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Scopes(utils.Paginate(page, size)).
			Where("(participant1_id = ? OR participant2_id = ?) AND is_active = ?", userID, userID, true).
			Order("updated_at DESC").
			Find(&conversations).Error; err != nil {
			return err
		}
		return tx.
			Model(&models.Conversation{}).
			Where("(participant1_id = ? OR participant2_id = ?) AND is_active = ?", userID, userID, true).
			Count(&total).Error
	})
	if transactionErr != nil {
		return nil, transactionErr
	}

	conversationResponses := make([]models.ConversationResponse, 0, len(conversations))
	for i := range conversations {
		lastMessage, _ := chr.GetConversationLastMessage(conversations[i].ID)
		conversationResponses = append(conversationResponses, conversations[i].ToConversationResponse(lastMessage))
	}

	return &models.ConversationListResponse{
		Conversations: conversationResponses,
		Page:          page,
		Size:          size,
		Total:         total,
	}, nil
}

// SaveMessage persists a message, allocating the next sequence number for its
// conversation. The allocation (an atomic last_seq bump on the conversation
// row) and the insert share one transaction, so concurrent senders in the
// same conversation serialize on the row lock and never observe a reused or
// decreasing sequence. The implicit "sent" receipt for the peer is created in
// the same transaction.
func (chr *ChatRepository) SaveMessage(message *models.Message) (*models.Message, error) {
	transactionErr := chr.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Conversation{}).
			Where("id = ? AND is_active = ?", message.ConversationID, true).
			Updates(map[string]interface{}{
				"last_seq":   gorm.Expr("last_seq + 1"),
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errs.ErrConversationNotFound
		}

		var conversation models.Conversation
		if err := tx.First(&conversation, "id = ?", message.ConversationID).Error; err != nil {
			return err
		}

		if message.ReplyToID != nil {
			var replyTo models.Message
			if err := tx.First(&replyTo, "id = ?", *message.ReplyToID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errs.ErrMessageNotFound
				}
				return err
			}
			if replyTo.ConversationID != message.ConversationID {
				return errs.ErrReplyToOtherConversation
			}
		}

		message.ID = uuid.NewString()
		message.Seq = conversation.LastSeq
		if message.MessageType == "" {
			message.MessageType = enums.MESSAGE_TYPE_TEXT
		}
		if err := tx.Create(message).Error; err != nil {
			return err
		}

		if recipient := conversation.PeerOf(message.SenderID); recipient != "" {
			receipt := models.DeliveryReceipt{
				ID:        uuid.NewString(),
				MessageID: message.ID,
				UserID:    recipient,
				Status:    enums.RECEIPT_STATUS_SENT,
				Timestamp: time.Now().UTC(),
			}
			if err := tx.Create(&receipt).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if transactionErr != nil {
		return nil, transactionErr
	}
	return message, nil
}

// GetConversationHistory returns every non-deleted message of a conversation
// in ascending sequence order; the session sends it as the snapshot frame.
func (chr *ChatRepository) GetConversationHistory(conversationID string) ([]models.Message, error) {
	var messages []models.Message
	err := chr.db.
		Where("conversation_id = ? AND is_deleted = ?", conversationID, false).
		Order("seq ASC, created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (chr *ChatRepository) GetMessagesByConversationId(conversationID string, page, size int) (*models.MessageListResponse, error) {
	var messages []models.Message
	var total int64

	transactionErr := chr.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Scopes(utils.Paginate(page, size)).
			Where("conversation_id = ? AND is_deleted = ?", conversationID, false).
			Order("seq ASC, created_at ASC").
			Find(&messages).Error; err != nil {
			return err
		}
		return tx.
			Model(&models.Message{}).
			Where("conversation_id = ? AND is_deleted = ?", conversationID, false).
			Count(&total).Error
	})
	if transactionErr != nil {
		return nil, transactionErr
	}

	messageResponses := make([]models.MessageResponse, 0, len(messages))
	for i := range messages {
		messageResponses = append(messageResponses, messages[i].ToMessageResponse())
	}

	return &models.MessageListResponse{
		Messages: messageResponses,
		Page:     page,
		Size:     size,
		Total:    total,
	}, nil
}

func (chr *ChatRepository) GetConversationLastMessage(conversationID string) (*models.Message, error) {
	var message models.Message
	err := chr.db.
		Where("conversation_id = ? AND is_deleted = ?", conversationID, false).
		Order("seq DESC").
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (chr *ChatRepository) GetMessageById(messageID string) (*models.Message, error) {
	var message models.Message
	if err := chr.db.First(&message, "id = ?", messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrMessageNotFound
		}
		return nil, err
	}
	return &message, nil
}

// UpsertReceipt moves the (message, user) receipt to the given status.
// Transitions are monotonic: a receipt already at or past the target status
// is left untouched, so a late "delivered" can never regress a "read".
func (chr *ChatRepository) UpsertReceipt(messageID, userID, status string) (*models.DeliveryReceipt, error) {
	var receipt models.DeliveryReceipt

	transactionErr := chr.db.Transaction(func(tx *gorm.DB) error {
		var message models.Message
		if err := tx.First(&message, "id = ?", messageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrMessageNotFound
			}
			return err
		}

		err := tx.Where("message_id = ? AND user_id = ?", messageID, userID).First(&receipt).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			receipt = models.DeliveryReceipt{
				ID:        uuid.NewString(),
				MessageID: messageID,
				UserID:    userID,
				Status:    status,
				Timestamp: time.Now().UTC(),
			}
			return tx.Create(&receipt).Error
		}
		if err != nil {
			return err
		}

		if enums.ReceiptStatusRank(status) <= enums.ReceiptStatusRank(receipt.Status) {
			return nil
		}
		receipt.Status = status
		receipt.Timestamp = time.Now().UTC()
		return tx.Model(&models.DeliveryReceipt{}).
			Where("id = ?", receipt.ID).
			Updates(map[string]interface{}{"status": receipt.Status, "timestamp": receipt.Timestamp}).Error
	})
	if transactionErr != nil {
		return nil, transactionErr
	}
	return &receipt, nil
}

func (chr *ChatRepository) GetReceipt(messageID, userID string) (*models.DeliveryReceipt, error) {
	var receipt models.DeliveryReceipt
	err := chr.db.Where("message_id = ? AND user_id = ?", messageID, userID).First(&receipt).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// SoftDeleteMessage hides a message while retaining its row and sequence slot.
func (chr *ChatRepository) SoftDeleteMessage(messageID string) error {
	result := chr.db.Model(&models.Message{}).
		Where("id = ? AND is_deleted = ?", messageID, false).
		Updates(map[string]interface{}{"is_deleted": true, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.ErrMessageNotFound
	}
	return nil
}

// DeactivateConversation soft-deactivates a conversation when a participant
// leaves. Rows are never hard-deleted by the service.
func (chr *ChatRepository) DeactivateConversation(conversationID string) error {
	result := chr.db.Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.ErrConversationNotFound
	}
	return nil
}
