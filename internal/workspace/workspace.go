// Package workspace defines the capability interfaces over the user's
// Workspace data (mail, chat, drive, tasks) that workflows compose. The
// google subpackage provides the production implementation; tests supply
// fakes.
package workspace

import (
	"context"

	"github.com/oshaani/workspace-employee/internal/credentials"
)

// Chat space types as reported by the Chat API.
const (
	SpaceTypeDirectMessage = "DIRECT_MESSAGE"
	SpaceTypeGroupChat     = "GROUP_CHAT"
	SpaceTypeSpace         = "SPACE"
)

// Email is a recent-inbox message summary with enough header material to
// construct a threaded reply.
type Email struct {
	ID          string `json:"id"`
	ThreadID    string `json:"thread_id"`
	Subject     string `json:"subject"`
	From        string `json:"from"`
	To          string `json:"to"`
	Date        string `json:"date"`
	MessageID   string `json:"message_id"`
	References  string `json:"references"`
	Snippet     string `json:"snippet"`
	BodyPreview string `json:"body_preview"`
}

// DraftRequest describes a draft to create. Thread fields are optional; when
// set the draft becomes a threaded reply.
type DraftRequest struct {
	To         string
	Subject    string
	Body       string
	ThreadID   string
	InReplyTo  string
	References string
}

// Draft identifies a created Gmail draft.
type Draft struct {
	ID        string `json:"id"`
	MessageID string `json:"message_id"`
}

// ChatSpace is a chat context the user participates in.
type ChatSpace struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	SpaceType   string `json:"type"`
}

// ChatSender identifies a message author. Name is the internal account
// resource ("users/<id>"); Type is "HUMAN" or "BOT".
type ChatSender struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	Type        string `json:"type"`
}

// ChatMessage is one message in a space, with its thread reference for
// replies.
type ChatMessage struct {
	Name       string     `json:"name"`
	Text       string     `json:"text"`
	Sender     ChatSender `json:"sender"`
	CreateTime string     `json:"createTime"`
	ThreadName string     `json:"thread_name,omitempty"`
}

// DriveFile is a recent Drive file summary.
type DriveFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime"`
	WebViewLink  string `json:"webViewLink,omitempty"`
}

// TaskList is a Google Tasks list.
type TaskList struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Updated string `json:"updated"`
}

// Task is one task in a list.
type Task struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Notes      string `json:"notes,omitempty"`
	Status     string `json:"status"`
	Due        string `json:"due,omitempty"`
	TaskListID string `json:"task_list_id,omitempty"`
}

// Profile identifies the authenticated user for self-detection in chat and
// mail.
type Profile struct {
	Email            string
	UserResourceName string // "users/<id>" form used by the Chat API
	Name             string
}

// Mail lists recent inbox messages and creates drafts.
type Mail interface {
	ListEmails(ctx context.Context, maxResults int) ([]Email, error)
	CreateDraft(ctx context.Context, req DraftRequest) (*Draft, error)
}

// Chat lists spaces and messages and posts replies.
type Chat interface {
	ListSpaces(ctx context.Context) ([]ChatSpace, error)
	SpaceType(ctx context.Context, spaceName string) (string, error)
	// ListMessages returns messages newest-first.
	ListMessages(ctx context.Context, spaceName string, pageSize int) ([]ChatMessage, error)
	// PostMessage posts into threadName when set, otherwise starts a new
	// thread at the space level.
	PostMessage(ctx context.Context, spaceName, threadName, text string) error
}

// Drive lists recent files.
type Drive interface {
	ListFiles(ctx context.Context, maxResults int) ([]DriveFile, error)
}

// Tasks manages task lists and tasks.
type Tasks interface {
	ListTaskLists(ctx context.Context) ([]TaskList, error)
	GetOrCreateTaskList(ctx context.Context, name string) (string, error)
	ListTasks(ctx context.Context, taskListID string, showCompleted bool) ([]Task, error)
	CreateTask(ctx context.Context, taskListID, title, notes string) (*Task, error)
}

// Identity resolves the authenticated user's own identifiers.
type Identity interface {
	Profile(ctx context.Context) (*Profile, error)
}

// Workspace bundles the capabilities for one user's credential.
type Workspace struct {
	Mail     Mail
	Chat     Chat
	Drive    Drive
	Tasks    Tasks
	Identity Identity
}

// Factory builds a Workspace bound to one credential. Each user's workflow
// run uses only that user's own credential.
type Factory interface {
	ForCredential(ctx context.Context, cred credentials.Credential) (*Workspace, error)
}
