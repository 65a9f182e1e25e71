package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/oshaani/workspace-employee/internal/workspace"
)

// Orchestrator binds one user's Workspace services to the agent and runs
// workflows on them.
type Orchestrator struct {
	userID string
	ws     *workspace.Workspace
	agent  Agent
}

func NewOrchestrator(userID string, ws *workspace.Workspace, agent Agent) *Orchestrator {
	return &Orchestrator{userID: userID, ws: ws, agent: agent}
}

// TaskCreated records one Google Task made from an agent suggestion.
type TaskCreated struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SmartInboxResult is the outcome of a smart inbox pass.
type SmartInboxResult struct {
	Response      string        `json:"response"`
	EmailsScanned int           `json:"emails_scanned"`
	TasksCreated  []TaskCreated `json:"tasks_created"`
	TaskErrors    []string      `json:"task_errors,omitempty"`
}

// RunSmartInbox summarizes recent activity and turns the agent's suggested
// follow-ups into Google Tasks. Task creation is best-effort: a failing
// insert is reported but does not fail the workflow.
func (o *Orchestrator) RunSmartInbox(ctx context.Context) (*SmartInboxResult, error) {
	emails := gatherEmails(ctx, o.ws.Mail, 15)
	files := gatherDrive(ctx, o.ws.Drive, 5)
	chat := gatherChat(ctx, o.ws.Chat, 2, 5)

	contextBlock := FormatContext(emails, chat, files)
	message := "Review my recent inbox and workspace activity. Summarize what needs my attention, " +
		"grouped by urgency. For each item that requires a concrete follow-up action, add a line " +
		"in exactly this format: TASK: <short title> | <notes>"

	response, err := o.agent.InvokeWithContext(ctx, message, contextBlock, ConversationID(o.userID, SmartInbox))
	if err != nil {
		return nil, fmt.Errorf("smart inbox: %w", err)
	}

	result := &SmartInboxResult{Response: response, EmailsScanned: len(emails), TasksCreated: []TaskCreated{}}
	for _, item := range ParseTaskLines(response) {
		created, err := o.createTask(ctx, item)
		if err != nil {
			log.Printf("⚠️ Smart inbox: task %q not created: %v", item.Title, err)
			result.TaskErrors = append(result.TaskErrors, fmt.Sprintf("%s: %v", item.Title, err))
			continue
		}
		result.TasksCreated = append(result.TasksCreated, *created)
	}
	return result, nil
}

// DocumentIntelligenceResult is the outcome of a document analysis pass.
type DocumentIntelligenceResult struct {
	Response     string `json:"response"`
	FilesScanned int    `json:"files_scanned"`
}

// RunDocumentIntelligence asks the agent to review recent Drive files.
func (o *Orchestrator) RunDocumentIntelligence(ctx context.Context) (*DocumentIntelligenceResult, error) {
	files := gatherDrive(ctx, o.ws.Drive, 10)
	contextBlock := FormatContext(nil, nil, files)
	message := "Review my recently modified documents. Tell me which ones look important, " +
		"what changed recently, and anything that appears to need my review or action."

	response, err := o.agent.InvokeWithContext(ctx, message, contextBlock, ConversationID(o.userID, DocumentIntelligence))
	if err != nil {
		return nil, fmt.Errorf("document intelligence: %w", err)
	}
	return &DocumentIntelligenceResult{Response: response, FilesScanned: len(files)}, nil
}

// ChatAssistantResult is the agent's answer for an ad-hoc chat question.
type ChatAssistantResult struct {
	Response string `json:"response"`
}

// RunChatAssistant answers a user question with recent chat history as
// context. A space name narrows the history to that space and scopes the
// agent's conversation memory to it.
func (o *Orchestrator) RunChatAssistant(ctx context.Context, message, spaceName string) (*ChatAssistantResult, error) {
	var chat []workspace.ChatMessage
	conversationID := ConversationID(o.userID, ChatAssistant)
	if spaceName != "" {
		msgs, err := o.ws.Chat.ListMessages(ctx, spaceName, 20)
		if err != nil {
			return nil, fmt.Errorf("chat assistant: %w", err)
		}
		chat = msgs
		conversationID = ConversationID(o.userID, ChatAssistant, spaceName)
	} else {
		chat = gatherChat(ctx, o.ws.Chat, 3, 10)
	}
	contextBlock := FormatContext(nil, chat, nil)

	response, err := o.agent.InvokeWithContext(ctx, message, contextBlock, conversationID)
	if err != nil {
		return nil, fmt.Errorf("chat assistant: %w", err)
	}
	return &ChatAssistantResult{Response: response}, nil
}

// CustomResult is the agent's answer for a free-form request over the full
// context block.
type CustomResult struct {
	Response string `json:"response"`
}

// CustomOptions selects what Google data a custom run gathers. Zero email
// or drive counts drop that section entirely.
type CustomOptions struct {
	IncludeEmails int
	IncludeChat   bool
	IncludeDrive  int
}

// DefaultCustomOptions returns the limits used when the caller does not
// parameterize the run.
func DefaultCustomOptions() CustomOptions {
	return CustomOptions{IncludeEmails: 10, IncludeChat: true, IncludeDrive: 10}
}

// RunCustom runs a free-form request over the context the options select.
func (o *Orchestrator) RunCustom(ctx context.Context, message string, opts CustomOptions) (*CustomResult, error) {
	var emails []workspace.Email
	if opts.IncludeEmails > 0 {
		emails = gatherEmails(ctx, o.ws.Mail, opts.IncludeEmails)
	}
	var chat []workspace.ChatMessage
	if opts.IncludeChat {
		chat = gatherChat(ctx, o.ws.Chat, 3, 10)
	}
	var files []workspace.DriveFile
	if opts.IncludeDrive > 0 {
		files = gatherDrive(ctx, o.ws.Drive, opts.IncludeDrive)
	}
	contextBlock := FormatContext(emails, chat, files)

	response, err := o.agent.InvokeWithContext(ctx, message, contextBlock, ConversationID(o.userID, Custom))
	if err != nil {
		return nil, fmt.Errorf("custom workflow: %w", err)
	}
	return &CustomResult{Response: response}, nil
}

// FirstEmailDraftResult is the outcome of a draft-reply pass.
type FirstEmailDraftResult struct {
	Status   string `json:"status"`
	DraftID  string `json:"draft_id,omitempty"`
	ThreadID string `json:"thread_id,omitempty"`
	Subject  string `json:"subject,omitempty"`
	To       string `json:"to,omitempty"`
	Response string `json:"response,omitempty"`
}

const draftScanLimit = 50

// RunFirstEmailDraft finds the most recent email whose subject contains the
// filter, skips mail the user sent themselves, and stores an agent-written
// reply as a threaded Gmail draft. It never sends anything.
func (o *Orchestrator) RunFirstEmailDraft(ctx context.Context, subjectFilter string) (*FirstEmailDraftResult, error) {
	profile, err := o.ws.Identity.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("first email draft: resolve own identity: %w", err)
	}

	emails, err := o.ws.Mail.ListEmails(ctx, draftScanLimit)
	if err != nil {
		return nil, fmt.Errorf("first email draft: %w", err)
	}

	var target *workspace.Email
	filter := strings.ToLower(subjectFilter)
	for i := range emails {
		e := &emails[i]
		if !strings.Contains(strings.ToLower(e.Subject), filter) {
			continue
		}
		if profile.Email != "" && strings.Contains(strings.ToLower(e.From), strings.ToLower(profile.Email)) {
			continue
		}
		target = e
		break
	}
	if target == nil {
		return &FirstEmailDraftResult{Status: "no_match"}, nil
	}

	contextBlock := fmt.Sprintf("From: %s\nSubject: %s\nDate: %s\n\n%s",
		target.From, target.Subject, target.Date, target.BodyPreview)
	message := "Draft a professional reply to the email below. Respond with only the email body text, " +
		"no subject line and no commentary."
	body, err := o.agent.InvokeWithContext(ctx, message, contextBlock,
		ConversationID(o.userID, FirstEmailDraft, target.ThreadID))
	if err != nil {
		return nil, fmt.Errorf("first email draft: %w", err)
	}
	if body == "" {
		return nil, fmt.Errorf("first email draft: agent returned an empty reply")
	}

	subject := target.Subject
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}
	references := target.References
	if target.MessageID != "" && !strings.Contains(references, target.MessageID) {
		references = strings.TrimSpace(references + " " + target.MessageID)
	}

	draft, err := o.ws.Mail.CreateDraft(ctx, workspace.DraftRequest{
		To:         extractAddress(target.From),
		Subject:    subject,
		Body:       body,
		ThreadID:   target.ThreadID,
		InReplyTo:  target.MessageID,
		References: references,
	})
	if err != nil {
		return nil, fmt.Errorf("first email draft: %w", err)
	}

	return &FirstEmailDraftResult{
		Status:   "draft_created",
		DraftID:  draft.ID,
		ThreadID: target.ThreadID,
		Subject:  subject,
		To:       extractAddress(target.From),
		Response: body,
	}, nil
}

// DirectMessageSpaces returns up to max direct message space names, the only
// space kind auto-reply operates on.
func (o *Orchestrator) DirectMessageSpaces(ctx context.Context, max int) ([]string, error) {
	spaces, err := o.ws.Chat.ListSpaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chat spaces: %w", err)
	}
	var names []string
	for _, s := range spaces {
		if s.SpaceType != workspace.SpaceTypeDirectMessage {
			continue
		}
		names = append(names, s.Name)
		if max > 0 && len(names) >= max {
			break
		}
	}
	return names, nil
}

// extractAddress pulls the bare address from a "Name <addr>" header value.
func extractAddress(from string) string {
	if start := strings.LastIndex(from, "<"); start != -1 {
		if end := strings.LastIndex(from, ">"); end > start {
			return from[start+1 : end]
		}
	}
	return strings.TrimSpace(from)
}
