package enums

// Inbound frame types (client -> session).
const (
	SOCKET_EVENT_CHAT_MESSAGE = "chat_message"
	SOCKET_EVENT_MARK_AS_READ = "mark_as_read"
	SOCKET_EVENT_TYPING       = "typing"
)

// Outbound frame types (session -> client).
const (
	SOCKET_EVENT_CONVERSATION_HISTORY = "conversation_history"
	SOCKET_EVENT_MESSAGE_READ         = "message_read"
	SOCKET_EVENT_TYPING_STATUS        = "typing_status"
)

// Domain event types published to external subscribers.
const (
	EVENT_MESSAGE_CREATED      = "message.created"
	EVENT_CONVERSATION_CREATED = "conversation.created"
)

// File buckets for out-of-band media referenced by message content.
const (
	FILE_BUCKET_ATTACHMENTS = "chat-attachments"
)
