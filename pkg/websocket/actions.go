package websocket

// Action constants for WebSocket messages
const (
	ActionHealthCheck = "health.check"

	// Client to server: one line typed by an operator.
	ActionChatMessage = "chat.message"
	// Server to client: one reply for the bound user.
	ActionChatReply = "chat.reply"
)

// Error codes
const (
	ErrorCodeBadRequest    = "BAD_REQUEST"
	ErrorCodeInternalError = "INTERNAL_ERROR"
	ErrorCodeValidation    = "VALIDATION_ERROR"
	ErrorCodeUnavailable   = "UNAVAILABLE"
	ErrorCodeUnknownAction = "UNKNOWN_ACTION"
)
