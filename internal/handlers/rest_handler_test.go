package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"chatService/internal/enums"
	"chatService/internal/models"
	"chatService/internal/repositories"
	"chatService/internal/servers/database"
	"chatService/internal/services"
)

type restTestEnv struct {
	service   *services.ChatService
	publisher *capturePublisher
	router    *gin.Engine
}

func newRestTestEnv(t *testing.T) *restTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), "chat.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	service := services.NewChatService(repositories.NewChatRepository(db))
	publisher := &capturePublisher{}
	handler := NewRestHandler(service, publisher, nil)

	router := gin.New()
	router.POST("/conversations", handler.CreateConversation)
	router.GET("/conversations/:id", handler.GetConversation)
	router.GET("/conversations/:id/messages", handler.GetConversationMessages)
	router.POST("/conversations/:id/messages", handler.SendMessage)
	router.POST("/conversations/:id/leave", handler.LeaveConversation)
	router.GET("/users/:userID/conversations", handler.GetUserConversations)
	router.PUT("/messages/:id/read", handler.MarkMessageAsRead)
	router.GET("/messages/:id/receipt", handler.GetReceipt)
	router.DELETE("/messages/:id", handler.DeleteMessage)
	router.POST("/attachments", handler.UploadAttachment)

	return &restTestEnv{
		service:   service,
		publisher: publisher,
		router:    router,
	}
}

func (env *restTestEnv) request(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, models.Response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)

	var response models.Response
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response %s: %v", recorder.Body.String(), err)
	}
	return recorder, response
}

func decodeData(t *testing.T, response models.Response, out interface{}) {
	t.Helper()
	payload, err := json.Marshal(response.Data)
	if err != nil {
		t.Fatalf("re-marshal data: %v", err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestCreateConversation_CreatedThenFetched(t *testing.T) {
	env := newRestTestEnv(t)

	recorder, response := env.request(t, http.MethodPost, "/conversations", models.CreateConversationRequestBody{
		Participant1ID: "user-b",
		Participant2ID: "user-a",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var created models.ConversationResponse
	decodeData(t, response, &created)
	if created.Participant1ID != "user-a" || created.Participant2ID != "user-b" {
		t.Fatalf("expected normalized pair, got %s/%s", created.Participant1ID, created.Participant2ID)
	}

	published := env.publisher.waitEvents(t, 1)
	if published[0].EventType != enums.EVENT_CONVERSATION_CREATED {
		t.Fatalf("expected conversation.created, got %q", published[0].EventType)
	}

	// The reversed pair resolves to the same conversation without a new event.
	recorder, response = env.request(t, http.MethodPost, "/conversations", models.CreateConversationRequestBody{
		Participant1ID: "user-a",
		Participant2ID: "user-b",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for existing pair, got %d", recorder.Code)
	}
	var fetched models.ConversationResponse
	decodeData(t, response, &fetched)
	if fetched.ID != created.ID {
		t.Fatalf("expected same conversation, got %s and %s", created.ID, fetched.ID)
	}
	env.publisher.mu.Lock()
	eventCount := len(env.publisher.events)
	env.publisher.mu.Unlock()
	if eventCount != 1 {
		t.Fatalf("fetch must not publish, got %d events", eventCount)
	}
}

func TestCreateConversation_Validation(t *testing.T) {
	env := newRestTestEnv(t)

	recorder, response := env.request(t, http.MethodPost, "/conversations", models.CreateConversationRequestBody{
		Participant1ID: "user-a",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing participant, got %d", recorder.Code)
	}
	if response.Success {
		t.Fatal("expected failure envelope")
	}

	recorder, _ = env.request(t, http.MethodPost, "/conversations", models.CreateConversationRequestBody{
		Participant1ID: "user-a",
		Participant2ID: "user-a",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for identical participants, got %d", recorder.Code)
	}
}

func TestSendMessage_PersistsAndPublishes(t *testing.T) {
	env := newRestTestEnv(t)
	conversation, _, err := env.service.CreateConversation(&models.CreateConversationRequestBody{
		Participant1ID: "user-a",
		Participant2ID: "user-b",
	})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	recorder, response := env.request(t, http.MethodPost, "/conversations/"+conversation.ID+"/messages", models.SendMessageRequestBody{
		SenderID: "user-a",
		Content:  "over rest",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var message models.MessageResponse
	decodeData(t, response, &message)
	if message.Seq != 1 {
		t.Fatalf("expected seq 1, got %d", message.Seq)
	}
	if message.MessageType != enums.MESSAGE_TYPE_TEXT {
		t.Fatalf("expected default text type, got %q", message.MessageType)
	}

	published := env.publisher.waitEvents(t, 1)
	if published[0].EventType != enums.EVENT_MESSAGE_CREATED {
		t.Fatalf("expected message.created, got %q", published[0].EventType)
	}
}

func TestSendMessage_ErrorMapping(t *testing.T) {
	env := newRestTestEnv(t)
	conversation, _, err := env.service.CreateConversation(&models.CreateConversationRequestBody{
		Participant1ID: "user-a",
		Participant2ID: "user-b",
	})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	recorder, _ := env.request(t, http.MethodPost, "/conversations/"+conversation.ID+"/messages", models.SendMessageRequestBody{
		SenderID: "user-a",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing content, got %d", recorder.Code)
	}

	recorder, _ = env.request(t, http.MethodPost, "/conversations/no-such-conversation/messages", models.SendMessageRequestBody{
		SenderID: "user-a",
		Content:  "hello",
	})
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown conversation, got %d", recorder.Code)
	}
}

func TestMessageHistoryAndReceiptRoutes(t *testing.T) {
	env := newRestTestEnv(t)
	conversation, _, err := env.service.CreateConversation(&models.CreateConversationRequestBody{
		Participant1ID: "user-a",
		Participant2ID: "user-b",
	})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	message, err := env.service.SendMessage(conversation.ID, &models.SendMessageRequestBody{
		SenderID: "user-a",
		Content:  "read me",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	recorder, response := env.request(t, http.MethodGet, "/conversations/"+conversation.ID+"/messages", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var list models.MessageListResponse
	decodeData(t, response, &list)
	if list.Total != 1 || len(list.Messages) != 1 {
		t.Fatalf("expected one message, got total %d len %d", list.Total, len(list.Messages))
	}

	recorder, response = env.request(t, http.MethodPut, "/messages/"+message.ID+"/read", models.MarkAsReadRequestBody{
		UserID: "user-b",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var receipt models.DeliveryReceipt
	decodeData(t, response, &receipt)
	if receipt.Status != enums.RECEIPT_STATUS_READ {
		t.Fatalf("expected read, got %q", receipt.Status)
	}

	recorder, response = env.request(t, http.MethodGet, "/messages/"+message.ID+"/receipt?user_id=user-b", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	decodeData(t, response, &receipt)
	if receipt.Status != enums.RECEIPT_STATUS_READ {
		t.Fatalf("expected read receipt, got %q", receipt.Status)
	}

	recorder, _ = env.request(t, http.MethodGet, "/messages/"+message.ID+"/receipt", nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without user_id, got %d", recorder.Code)
	}
}

func TestDeleteMessageAndLeaveConversation(t *testing.T) {
	env := newRestTestEnv(t)
	conversation, _, err := env.service.CreateConversation(&models.CreateConversationRequestBody{
		Participant1ID: "user-a",
		Participant2ID: "user-b",
	})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	message, err := env.service.SendMessage(conversation.ID, &models.SendMessageRequestBody{
		SenderID: "user-a",
		Content:  "short lived",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	recorder, _ := env.request(t, http.MethodDelete, "/messages/"+message.ID, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	recorder, _ = env.request(t, http.MethodDelete, "/messages/"+message.ID, nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on repeat delete, got %d", recorder.Code)
	}

	recorder, _ = env.request(t, http.MethodPost, "/conversations/"+conversation.ID+"/leave", models.LeaveConversationRequestBody{
		UserID: "user-a",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	recorder, _ = env.request(t, http.MethodPost, "/conversations/"+conversation.ID+"/messages", models.SendMessageRequestBody{
		SenderID: "user-a",
		Content:  "after leave",
	})
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after leave, got %d", recorder.Code)
	}
}

func TestGetUserConversations_Route(t *testing.T) {
	env := newRestTestEnv(t)
	if _, _, err := env.service.CreateConversation(&models.CreateConversationRequestBody{
		Participant1ID: "user-a",
		Participant2ID: "user-b",
	}); err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if _, _, err := env.service.CreateConversation(&models.CreateConversationRequestBody{
		Participant1ID: "user-a",
		Participant2ID: "user-c",
	}); err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	recorder, response := env.request(t, http.MethodGet, "/users/user-a/conversations?page=1&size=10", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var list models.ConversationListResponse
	decodeData(t, response, &list)
	if list.Total != 2 {
		t.Fatalf("expected total 2, got %d", list.Total)
	}
}

func TestUploadAttachment_DisabledStorage(t *testing.T) {
	env := newRestTestEnv(t)

	recorder, _ := env.request(t, http.MethodPost, "/attachments", nil)
	if recorder.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 without a file store, got %d", recorder.Code)
	}
}

func TestIdentityMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	key := []byte("test-secret")

	router := gin.New()
	router.Use(IdentityMiddleware(key))
	router.GET("/whoami", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"user_id": ctx.GetString("user_id")})
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", recorder.Code)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.Claims{
		UserID: "user-a",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", recorder.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["user_id"] != "user-a" {
		t.Fatalf("expected user-a, got %q", body["user_id"])
	}

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", recorder.Code)
	}
}
