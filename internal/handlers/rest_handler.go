package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatService/internal/enums"
	"chatService/internal/errs"
	"chatService/internal/logger"
	"chatService/internal/models"
	"chatService/internal/models/events"
	"chatService/internal/msgs"
	"chatService/internal/services"
)

// RestHandler serves the CRUD collaborator API around the real-time core:
// conversation listing and creation, message history, receipts, and media
// uploads. The REST send path persists and publishes but does not fan out;
// live delivery belongs to the socket sessions.
type RestHandler struct {
	chatService        *services.ChatService
	publisher          services.EventPublisher
	fileManagerService *services.FileManagerService
	log                zerolog.Logger
}

func NewRestHandler(
	chatService *services.ChatService,
	publisher services.EventPublisher,
	fileManagerService *services.FileManagerService,
) *RestHandler {
	return &RestHandler{
		chatService:        chatService,
		publisher:          publisher,
		fileManagerService: fileManagerService,
		log:                logger.For("rest"),
	}
}

func (rh *RestHandler) GetConversation(ctx *gin.Context) {
	conversationID := ctx.Param("id")

	conversation, err := rh.chatService.GetConversation(conversationID)
	if err != nil {
		rh.abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    conversation,
	})
}

func (rh *RestHandler) GetUserConversations(ctx *gin.Context) {
	userID := ctx.Param("userID")
	page, size := paging(ctx)

	conversations, err := rh.chatService.GetUserConversations(userID, page, size)
	if err != nil {
		rh.abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    conversations,
	})
}

// CreateConversation creates or fetches the conversation for a participant
// pair. Creation publishes conversation.created and answers 201; an existing
// conversation is returned unchanged with 200.
func (rh *RestHandler) CreateConversation(ctx *gin.Context) {
	var body models.CreateConversationRequestBody
	if err := ctx.BindJSON(&body); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, models.FailureResponse(msgs.MsgOperationFailed, errs.ErrInvalidRequestBody))
		return
	}

	conversation, created, err := rh.chatService.CreateConversation(&body)
	if err != nil {
		rh.abortWithError(ctx, err)
		return
	}

	status := http.StatusOK
	message := msgs.MsgConversationAlreadyExists
	if created {
		status = http.StatusCreated
		message = msgs.MsgConversationCreated
		if err := rh.publisher.Publish(events.NewConversationCreated(conversation)); err != nil {
			rh.log.Warn().Err(err).Str("conversation", conversation.ID).Msg("conversation.created publish failed")
		}
	}

	response := conversation.ToConversationResponse(nil)
	ctx.JSON(status, models.Response{
		Success: true,
		Message: message,
		Data:    response,
	})
}

func (rh *RestHandler) GetConversationMessages(ctx *gin.Context) {
	conversationID := ctx.Param("id")
	page, size := paging(ctx)

	messages, err := rh.chatService.GetMessages(conversationID, page, size)
	if err != nil {
		rh.abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    messages,
	})
}

// SendMessage persists a message through the REST path and publishes
// message.created after the store accepts it.
func (rh *RestHandler) SendMessage(ctx *gin.Context) {
	conversationID := ctx.Param("id")

	var body models.SendMessageRequestBody
	if err := ctx.BindJSON(&body); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, models.FailureResponse(msgs.MsgOperationFailed, errs.ErrInvalidRequestBody))
		return
	}

	message, err := rh.chatService.SendMessage(conversationID, &body)
	if err != nil {
		rh.abortWithError(ctx, err)
		return
	}

	if err := rh.publisher.Publish(events.NewMessageCreated(message)); err != nil {
		rh.log.Warn().Err(err).Str("message", message.ID).Msg("message.created publish failed")
	}

	ctx.JSON(http.StatusCreated, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    message.ToMessageResponse(),
	})
}

// MarkMessageAsRead upserts the receipt for (message, user) to "read".
func (rh *RestHandler) MarkMessageAsRead(ctx *gin.Context) {
	messageID := ctx.Param("id")

	var body models.MarkAsReadRequestBody
	if err := ctx.BindJSON(&body); err != nil || body.UserID == "" {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, models.FailureResponse(msgs.MsgOperationFailed, errs.ErrInvalidRequestBody))
		return
	}

	receipt, err := rh.chatService.MarkMessageRead(messageID, body.UserID)
	if err != nil {
		rh.abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgReceiptUpdated,
		Data:    receipt,
	})
}

func (rh *RestHandler) GetReceipt(ctx *gin.Context) {
	messageID := ctx.Param("id")
	userID := ctx.Query("user_id")
	if userID == "" {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, models.FailureResponse(msgs.MsgOperationFailed, errs.ErrInvalidParams))
		return
	}

	receipt, err := rh.chatService.GetReceipt(messageID, userID)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusNotFound, models.FailureResponse(msgs.MsgOperationFailed, err))
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    receipt,
	})
}

func (rh *RestHandler) DeleteMessage(ctx *gin.Context) {
	messageID := ctx.Param("id")

	if err := rh.chatService.DeleteMessage(messageID); err != nil {
		rh.abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgMessageDeleted,
	})
}

func (rh *RestHandler) LeaveConversation(ctx *gin.Context) {
	conversationID := ctx.Param("id")

	if err := rh.chatService.LeaveConversation(conversationID); err != nil {
		rh.abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgConversationLeft,
	})
}

// UploadAttachment stores media out of band and returns the public URL the
// client then sends as image/file message content.
func (rh *RestHandler) UploadAttachment(ctx *gin.Context) {
	if rh.fileManagerService == nil {
		ctx.AbortWithStatusJSON(http.StatusNotImplemented, models.FailureResponse(msgs.MsgOperationFailed, errs.ErrNoFileUploaded))
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, models.FailureResponse(msgs.MsgOperationFailed, errs.ErrNoFileUploaded))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, models.FailureResponse(msgs.MsgOperationFailed, errs.ErrNoFileUploaded))
		return
	}
	defer file.Close()

	fileName := uuid.NewString() + filepath.Ext(fileHeader.Filename)
	contentType := fileHeader.Header.Get("Content-Type")

	url, err := rh.fileManagerService.UploadAttachment(fileName, file, fileHeader.Size, contentType, enums.FILE_BUCKET_ATTACHMENTS)
	if err != nil {
		rh.log.Error().Err(err).Msg("attachment upload failed")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, models.FailureResponse(msgs.MsgOperationFailed, err))
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgFileUploadedSuccessfully,
		Data:    gin.H{"url": url},
	})
}

func (rh *RestHandler) abortWithError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrConversationNotFound) || errors.Is(err, errs.ErrMessageNotFound):
		ctx.AbortWithStatusJSON(http.StatusNotFound, models.FailureResponse(msgs.MsgOperationFailed, err))
	case errors.Is(err, errs.ErrMissingParticipants) ||
		errors.Is(err, errs.ErrSameParticipants) ||
		errors.Is(err, errs.ErrMissingSenderOrContent) ||
		errors.Is(err, errs.ErrInvalidMessageType) ||
		errors.Is(err, errs.ErrReplyToOtherConversation) ||
		errors.Is(err, errs.ErrInvalidParams):
		ctx.AbortWithStatusJSON(http.StatusBadRequest, models.FailureResponse(msgs.MsgOperationFailed, err))
	default:
		rh.log.Error().Err(err).Msg("request failed")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, models.FailureResponse(msgs.MsgOperationFailed, err))
	}
}

func paging(ctx *gin.Context) (int, int) {
	page, err := strconv.Atoi(ctx.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(ctx.Query("size"))
	if err != nil || size < 1 {
		size = 20
	}
	return page, size
}
