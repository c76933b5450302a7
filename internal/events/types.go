// Package events names the subjects and event types carried on the bus.
package events

import "strings"

// Subjects
const (
	SubjectChatInbound      = "chat.inbound"
	SubjectChatReplyPrefix  = "chat.reply."
	SubjectChatReplyAll     = "chat.reply.>"
	SubjectWorkflowComplete = "workflow.completed"
	SubjectWorkflowFailed   = "workflow.failed"

	// Flush markers for reply consumers. No user id maps here because
	// subjectToken replaces "$".
	SubjectChatReplyFlush = "chat.reply.$flush"
)

// Event types
const (
	ChatMessageReceived = "chat.message.received"
	ChatReplySent       = "chat.reply.sent"
	ChatReplyFlush      = "chat.reply.flush"
	WorkflowCompleted   = "workflow.completed"
	WorkflowFailed      = "workflow.failed"
)

// Event data keys
const (
	KeyUserID   = "user_id"
	KeyText     = "text"
	KeyWorkflow = "workflow"
	KeyStep     = "step"
	KeyError    = "error_code"
	KeyMarker   = "marker"
)

// ChatReplySubject returns the subject replies to userID are published on.
// Characters that are special in subjects are replaced.
func ChatReplySubject(userID string) string {
	return SubjectChatReplyPrefix + subjectToken(userID)
}

var tokenReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", "$", "_", " ", "_", "\t", "_")

func subjectToken(s string) string {
	if s == "" {
		return "_"
	}
	return tokenReplacer.Replace(s)
}
