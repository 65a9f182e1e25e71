package google

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/api/chat/v1"

	"github.com/oshaani/workspace-employee/internal/workspace"
)

// ChatService implements workspace.Chat on the Google Chat API.
type ChatService struct {
	svc *chat.Service
}

// ListSpaces lists every space the user is in: named spaces, group chats
// and direct messages.
func (c *ChatService) ListSpaces(ctx context.Context) ([]workspace.ChatSpace, error) {
	var spaces []workspace.ChatSpace
	pageToken := ""
	for {
		call := c.svc.Spaces.List().PageSize(100).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, wrapErr("Chat spaces.list", err)
		}
		for _, s := range resp.Spaces {
			spaces = append(spaces, workspace.ChatSpace{
				Name:        s.Name,
				DisplayName: s.DisplayName,
				SpaceType:   normalizeSpaceType(s),
			})
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return spaces, nil
}

// SpaceType classifies one space by name.
func (c *ChatService) SpaceType(ctx context.Context, spaceName string) (string, error) {
	s, err := c.svc.Spaces.Get(spaceName).Context(ctx).Do()
	if err != nil {
		return "", wrapErr("Chat spaces.get", err)
	}
	return normalizeSpaceType(s), nil
}

// ListMessages fetches recent messages in a space, newest first.
func (c *ChatService) ListMessages(ctx context.Context, spaceName string, pageSize int) ([]workspace.ChatMessage, error) {
	resp, err := c.svc.Spaces.Messages.List(spaceName).
		PageSize(int64(pageSize)).
		OrderBy("createTime desc").
		Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("Chat messages.list", err)
	}

	messages := make([]workspace.ChatMessage, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		msg := workspace.ChatMessage{
			Name:       m.Name,
			Text:       m.Text,
			CreateTime: m.CreateTime,
		}
		if m.Sender != nil {
			msg.Sender = workspace.ChatSender{
				Name:        m.Sender.Name,
				DisplayName: m.Sender.DisplayName,
				Type:        m.Sender.Type,
			}
		}
		if m.Thread != nil {
			msg.ThreadName = m.Thread.Name
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// PostMessage posts text into an existing thread, or starts a new
// space-level thread keyed by a fresh thread key when no thread is given.
func (c *ChatService) PostMessage(ctx context.Context, spaceName, threadName, text string) error {
	msg := &chat.Message{Text: text}
	call := c.svc.Spaces.Messages.Create(spaceName, msg).Context(ctx)
	if threadName != "" {
		msg.Thread = &chat.Thread{Name: threadName}
		call = call.MessageReplyOption("REPLY_MESSAGE_FALLBACK_TO_NEW_THREAD")
	} else {
		msg.Thread = &chat.Thread{ThreadKey: uuid.New().String()}
	}
	if _, err := call.Do(); err != nil {
		return wrapErr("Chat messages.create", err)
	}
	return nil
}

// normalizeSpaceType maps both the current SpaceType field and the legacy
// Type field onto the workspace constants.
func normalizeSpaceType(s *chat.Space) string {
	if s.SpaceType != "" {
		return s.SpaceType
	}
	switch s.Type {
	case "DM":
		return workspace.SpaceTypeDirectMessage
	case "ROOM":
		return workspace.SpaceTypeSpace
	}
	return s.Type
}
