// Package workflow runs AI-assisted automations over a user's Workspace
// data: gather context from Gmail/Chat/Drive, hand it to the agent, and
// apply the agent's answer (tasks, drafts, chat replies).
package workflow

import (
	"context"
	"strings"
)

// Workflow names as exposed in settings toggles and API routes.
const (
	SmartInbox           = "smart_inbox"
	DocumentIntelligence = "document_intelligence"
	ChatAutoReply        = "chat_auto_reply"
	FirstEmailDraft      = "first_email_draft"
	ChatSpaces           = "chat_spaces"
	ChatAssistant        = "chat_assistant"
	Custom               = "custom"
)

// Agent is the conversational backend workflows delegate reasoning to.
type Agent interface {
	InvokeWithContext(ctx context.Context, userMessage, contextBlock, conversationID string) (string, error)
}

// ConversationID builds a stable per-user, per-workflow conversation key so
// the agent keeps separate memory per automation thread.
func ConversationID(userID, workflow string, extra ...string) string {
	parts := append([]string{userID, workflow}, extra...)
	return strings.Join(parts, "-")
}
