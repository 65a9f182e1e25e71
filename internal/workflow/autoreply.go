package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/oshaani/workspace-employee/internal/util"
	"github.com/oshaani/workspace-employee/internal/workspace"
)

const autoReplyHistory = 20

// AutoReply records one posted reply.
type AutoReply struct {
	MessageName string `json:"message_name"`
	Sender      string `json:"sender"`
	Reply       string `json:"reply"`
}

// ChatAutoReplyResult is the outcome of an auto-reply pass over one space.
type ChatAutoReplyResult struct {
	Space   string      `json:"space"`
	Status  string      `json:"status"`
	Reason  string      `json:"reason,omitempty"`
	Replies []AutoReply `json:"replies"`
	Errors  []string    `json:"errors,omitempty"`
}

func skippedAutoReply(space, reason string) *ChatAutoReplyResult {
	return &ChatAutoReplyResult{Space: space, Status: "skipped", Reason: reason, Replies: []AutoReply{}}
}

// RunChatAutoReply replies on the user's behalf to recent messages in a
// direct message space. Group chats and rooms are refused: posting
// AI-written replies into shared rooms is not acceptable, so the space type
// is checked on every call rather than trusted from the request.
func (o *Orchestrator) RunChatAutoReply(ctx context.Context, spaceName string, replyToLatest int) (*ChatAutoReplyResult, error) {
	if replyToLatest <= 0 {
		replyToLatest = 1
	}

	spaceType, err := o.ws.Chat.SpaceType(ctx, spaceName)
	if err != nil {
		return nil, fmt.Errorf("chat auto-reply: resolve space type: %w", err)
	}
	if spaceType != workspace.SpaceTypeDirectMessage {
		return skippedAutoReply(spaceName, "auto-reply is limited to direct messages"), nil
	}

	profile, err := o.ws.Identity.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("chat auto-reply: resolve own identity: %w", err)
	}

	messages, err := o.ws.Chat.ListMessages(ctx, spaceName, autoReplyHistory)
	if err != nil {
		return nil, fmt.Errorf("chat auto-reply: %w", err)
	}
	if len(messages) == 0 {
		return skippedAutoReply(spaceName, "no messages in space"), nil
	}

	// Messages arrive newest first. If the newest is ours the conversation
	// is already answered and replying again would loop on our own output.
	if isOwnMessage(messages[0], profile) {
		return skippedAutoReply(spaceName, "latest message was sent by this account"), nil
	}

	// Everyone else's messages are eligible, newest first, even when our
	// own replies are interleaved between them.
	var pending []workspace.ChatMessage
	for _, m := range messages {
		if isOwnMessage(m, profile) {
			continue
		}
		pending = append(pending, m)
	}
	if len(pending) == 0 {
		return skippedAutoReply(spaceName, "no messages awaiting a reply"), nil
	}
	if len(pending) > replyToLatest {
		pending = pending[:replyToLatest]
	}

	result := &ChatAutoReplyResult{Space: spaceName, Status: "completed", Replies: []AutoReply{}}
	history := FormatContext(nil, messages, nil)

	for _, m := range pending {
		sender := m.Sender.DisplayName
		if sender == "" {
			sender = m.Sender.Name
		}
		prompt := fmt.Sprintf("Write a reply to this chat message from %s on my behalf: %q. "+
			"Keep it short and conversational. Respond with only the reply text.", sender, util.Clip(m.Text, 500))

		reply, err := o.agent.InvokeWithContext(ctx, prompt, history,
			ConversationID(o.userID, ChatAutoReply, spaceName))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", m.Name, err))
			continue
		}
		if strings.TrimSpace(reply) == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: agent returned an empty reply", m.Name))
			continue
		}

		if err := o.ws.Chat.PostMessage(ctx, spaceName, m.ThreadName, reply); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: post reply: %v", m.Name, err))
			continue
		}
		log.Printf("✅ Auto-reply posted in %s (to %s)", spaceName, sender)
		result.Replies = append(result.Replies, AutoReply{MessageName: m.Name, Sender: sender, Reply: reply})
	}
	return result, nil
}

// isOwnMessage reports whether a chat message was authored by this account
// or by an app acting as it.
func isOwnMessage(m workspace.ChatMessage, profile *workspace.Profile) bool {
	if m.Sender.Type == "BOT" {
		return true
	}
	if profile.UserResourceName != "" && m.Sender.Name == profile.UserResourceName {
		return true
	}
	if profile.Email != "" && m.Sender.Email != "" && strings.EqualFold(m.Sender.Email, profile.Email) {
		return true
	}
	return false
}
