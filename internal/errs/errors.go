package errs

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrInvalidRequestBody       = Error("invalid request body")
	ErrInvalidParams            = Error("invalid params")
	ErrInvalidConversationId    = Error("invalid conversation id")
	ErrConversationNotFound     = Error("conversation not found")
	ErrConversationInactive     = Error("conversation is not active")
	ErrMessageNotFound          = Error("message not found")
	ErrMissingParticipants      = Error("participant1_id and participant2_id are required")
	ErrSameParticipants         = Error("participants must be different users")
	ErrMissingSenderOrContent   = Error("sender_id and content are required")
	ErrInvalidMessageType       = Error("invalid message type")
	ErrReplyToOtherConversation = Error("reply_to must reference a message in the same conversation")
	ErrUnauthorized             = Error("unauthorized")
	ErrInvalidToken             = Error("invalid token")
	ErrPublisherQueueFull       = Error("event publisher queue is full")
	ErrNoFileUploaded           = Error("no file uploaded")
)
