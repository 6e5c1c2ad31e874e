package enums

// Conversation kinds. The pair uniqueness constraint applies per kind.
const (
	CONVERSATION_TYPE_USER  = "user"
	CONVERSATION_TYPE_BRAND = "brand"
	CONVERSATION_TYPE_GROUP = "group"
)

// Message kinds. Content holds text or a URI to out-of-band media.
const (
	MESSAGE_TYPE_TEXT  = "text"
	MESSAGE_TYPE_IMAGE = "image"
	MESSAGE_TYPE_FILE  = "file"
)

// Delivery receipt statuses, ordered: sent < delivered < read.
const (
	RECEIPT_STATUS_SENT      = "sent"
	RECEIPT_STATUS_DELIVERED = "delivered"
	RECEIPT_STATUS_READ      = "read"
)

// ReceiptStatusRank maps a receipt status to its position in the
// sent < delivered < read order. Unknown statuses rank below sent.
func ReceiptStatusRank(status string) int {
	switch status {
	case RECEIPT_STATUS_SENT:
		return 1
	case RECEIPT_STATUS_DELIVERED:
		return 2
	case RECEIPT_STATUS_READ:
		return 3
	default:
		return 0
	}
}

// IsValidMessageType reports whether t is a known message kind.
func IsValidMessageType(t string) bool {
	switch t {
	case MESSAGE_TYPE_TEXT, MESSAGE_TYPE_IMAGE, MESSAGE_TYPE_FILE:
		return true
	}
	return false
}
