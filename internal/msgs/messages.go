package msgs

const (
	MsgOperationSuccessful       = "operation successful"
	MsgOperationFailed           = "operation failed"
	MsgConversationCreated       = "conversation created"
	MsgConversationAlreadyExists = "conversation already exists"
	MsgConversationLeft          = "conversation left"
	MsgMessageDeleted            = "message deleted"
	MsgReceiptUpdated            = "receipt updated"
	MsgFileUploadedSuccessfully  = "file uploaded successfully"
)
