package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chatService/internal/enums"
	"chatService/internal/errs"
	"chatService/internal/hub"
	"chatService/internal/logger"
	"chatService/internal/models"
	"chatService/internal/models/events"
	socketModels "chatService/internal/models/socket"
	"chatService/internal/msgs"
	"chatService/internal/services"
	"chatService/internal/utils"
)

// SocketChatHandler owns the live connection sessions. Each accepted socket
// runs one read loop; outbound traffic flows through the client's write loop
// via the bus. A session that fails conversation resolution is refused before
// the upgrade and never joins a group.
type SocketChatHandler struct {
	upgrader    websocket.Upgrader
	bus         hub.Bus
	chatService *services.ChatService
	publisher   services.EventPublisher
	jwtKey      []byte
	log         zerolog.Logger
}

func NewSocketChatHandler(bus hub.Bus, chatService *services.ChatService, publisher services.EventPublisher, jwtKey []byte) *SocketChatHandler {
	return &SocketChatHandler{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		bus:         bus,
		chatService: chatService,
		publisher:   publisher,
		jwtKey:      jwtKey,
		log:         logger.For("socket"),
	}
}

// HandleSocketChatRoute validates the target conversation and, when it
// resolves to an existing active conversation, upgrades the connection and
// runs the session until disconnect.
func (sch *SocketChatHandler) HandleSocketChatRoute(ctx *gin.Context) {
	conversationID := ctx.Param("conversationID")
	if _, err := uuid.Parse(conversationID); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, models.FailureResponse(msgs.MsgOperationFailed, errs.ErrInvalidConversationId))
		return
	}

	conversation, err := sch.chatService.GetActiveConversation(conversationID)
	if err != nil {
		if errors.Is(err, errs.ErrConversationNotFound) || errors.Is(err, errs.ErrConversationInactive) {
			ctx.AbortWithStatusJSON(http.StatusNotFound, models.FailureResponse(msgs.MsgOperationFailed, err))
			return
		}
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, models.FailureResponse(msgs.MsgOperationFailed, err))
		return
	}

	userID := sch.identityFromRequest(ctx)

	ws, err := sch.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		sch.log.Warn().Err(err).Msg("failed to upgrade connection")
		return
	}

	sch.runSession(ws, conversation, userID)
}

// runSession drives the Connecting -> Joined -> Closed lifecycle for one
// connection. The history snapshot is enqueued as the join's welcome frame so
// the client observes it before any live event, and it is never broadcast to
// the rest of the group.
func (sch *SocketChatHandler) runSession(ws *websocket.Conn, conversation *models.Conversation, userID string) {
	client := hub.NewClient(userID, ws)
	client.Start()

	group := hub.GroupForConversation(conversation.ID)

	history, err := sch.chatService.GetConversationHistory(conversation.ID)
	if err != nil {
		sch.log.Error().Err(err).Str("conversation", conversation.ID).Msg("history snapshot failed")
		client.Close()
		return
	}
	snapshot, err := json.Marshal(socketModels.HistoryFrame{
		Type:     enums.SOCKET_EVENT_CONVERSATION_HISTORY,
		Messages: history,
	})
	if err != nil {
		client.Close()
		return
	}

	sch.bus.Join(group, client, snapshot)
	defer func() {
		sch.bus.Leave(group, client)
		client.Close()
	}()

	sch.log.Debug().Str("conversation", conversation.ID).Str("client", client.ID).Msg("session joined")

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var frame socketModels.ClientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			sch.sendError(client, "Invalid JSON format")
			continue
		}

		switch frame.Type {
		case enums.SOCKET_EVENT_CHAT_MESSAGE:
			sch.handleChatMessage(client, conversation, group, &frame)
		case enums.SOCKET_EVENT_MARK_AS_READ:
			sch.handleMarkAsRead(group, &frame)
		case enums.SOCKET_EVENT_TYPING:
			sch.handleTyping(group, &frame)
		default:
			sch.log.Debug().Str("type", frame.Type).Msg("ignoring unknown frame type")
		}
	}
}

// handleChatMessage persists the message, fans it out to the group (echo
// included) and then publishes the domain event. Persistence failure aborts
// the whole operation: nothing is broadcast and no event is published.
func (sch *SocketChatHandler) handleChatMessage(client *hub.Client, conversation *models.Conversation, group string, frame *socketModels.ClientFrame) {
	if frame.SenderID == "" || frame.Content == "" {
		sch.sendError(client, "sender_id and content are required")
		return
	}

	message, err := sch.chatService.SendMessage(conversation.ID, &models.SendMessageRequestBody{
		SenderID:    frame.SenderID,
		Content:     frame.Content,
		MessageType: frame.MessageType,
	})
	if err != nil {
		if errors.Is(err, errs.ErrInvalidMessageType) {
			sch.sendError(client, err.Error())
			return
		}
		sch.log.Error().Err(err).Str("conversation", conversation.ID).Msg("message persistence failed")
		return
	}

	payload, err := json.Marshal(socketModels.ChatMessageFrame{
		Type:    enums.SOCKET_EVENT_CHAT_MESSAGE,
		Message: message.ToMessageResponse(),
	})
	if err != nil {
		sch.log.Error().Err(err).Msg("marshal chat_message frame")
		return
	}
	sch.bus.Broadcast(group, payload)

	if err := sch.publisher.Publish(events.NewMessageCreated(message)); err != nil {
		sch.log.Warn().Err(err).Str("message", message.ID).Msg("message.created publish failed")
	}
}

// handleMarkAsRead mirrors best-effort status signaling: missing fields are
// silently ignored and no error frame is produced.
func (sch *SocketChatHandler) handleMarkAsRead(group string, frame *socketModels.ClientFrame) {
	if frame.MessageID == "" || frame.UserID == "" {
		return
	}

	if _, err := sch.chatService.MarkMessageRead(frame.MessageID, frame.UserID); err != nil {
		sch.log.Warn().Err(err).Str("message", frame.MessageID).Msg("mark as read failed")
		return
	}

	payload, err := json.Marshal(socketModels.MessageReadFrame{
		Type:      enums.SOCKET_EVENT_MESSAGE_READ,
		MessageID: frame.MessageID,
		UserID:    frame.UserID,
	})
	if err != nil {
		return
	}
	sch.bus.Broadcast(group, payload)
}

// handleTyping relays the typing signal to the group. Typing state is never
// persisted.
func (sch *SocketChatHandler) handleTyping(group string, frame *socketModels.ClientFrame) {
	payload, err := json.Marshal(socketModels.TypingStatusFrame{
		Type:     enums.SOCKET_EVENT_TYPING_STATUS,
		UserID:   frame.UserID,
		IsTyping: frame.IsTyping,
	})
	if err != nil {
		return
	}
	sch.bus.Broadcast(group, payload)
}

// sendError reports a problem to the offending sender only; the session stays
// open and group state is untouched.
func (sch *SocketChatHandler) sendError(client *hub.Client, message string) {
	payload, err := json.Marshal(socketModels.ErrorFrame{Error: message})
	if err != nil {
		return
	}
	if err := client.Send(payload); err != nil {
		sch.log.Debug().Err(err).Msg("error frame undeliverable")
	}
}

func (sch *SocketChatHandler) identityFromRequest(ctx *gin.Context) string {
	if len(sch.jwtKey) == 0 {
		return ""
	}
	token := ctx.GetHeader("Authorization")
	if token == "" {
		return ""
	}
	claims, err := utils.DecodeIdentity(token, sch.jwtKey)
	if err != nil {
		return ""
	}
	return claims.UserID
}
