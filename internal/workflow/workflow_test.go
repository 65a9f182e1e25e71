package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/oshaani/workspace-employee/internal/workspace"
)

type fakeAgent struct {
	response string
	err      error
	calls    []string // user messages, in order
	contexts []string
	convIDs  []string
}

func (f *fakeAgent) InvokeWithContext(_ context.Context, userMessage, contextBlock, conversationID string) (string, error) {
	f.calls = append(f.calls, userMessage)
	f.contexts = append(f.contexts, contextBlock)
	f.convIDs = append(f.convIDs, conversationID)
	return f.response, f.err
}

type fakeMail struct {
	emails []workspace.Email
	drafts []workspace.DraftRequest
}

func (f *fakeMail) ListEmails(_ context.Context, maxResults int) ([]workspace.Email, error) {
	if len(f.emails) > maxResults {
		return f.emails[:maxResults], nil
	}
	return f.emails, nil
}

func (f *fakeMail) CreateDraft(_ context.Context, req workspace.DraftRequest) (*workspace.Draft, error) {
	f.drafts = append(f.drafts, req)
	return &workspace.Draft{ID: fmt.Sprintf("draft-%d", len(f.drafts)), MessageID: "m1"}, nil
}

type fakeChat struct {
	spaces    []workspace.ChatSpace
	types     map[string]string
	messages  map[string][]workspace.ChatMessage
	posted    []string
	postedTo  []string // "space|thread"
	postError error
}

func (f *fakeChat) ListSpaces(context.Context) ([]workspace.ChatSpace, error) { return f.spaces, nil }

func (f *fakeChat) SpaceType(_ context.Context, spaceName string) (string, error) {
	if t, ok := f.types[spaceName]; ok {
		return t, nil
	}
	return "", errors.New("space not found")
}

func (f *fakeChat) ListMessages(_ context.Context, spaceName string, pageSize int) ([]workspace.ChatMessage, error) {
	msgs := f.messages[spaceName]
	if len(msgs) > pageSize {
		return msgs[:pageSize], nil
	}
	return msgs, nil
}

func (f *fakeChat) PostMessage(_ context.Context, spaceName, threadName, text string) error {
	if f.postError != nil {
		return f.postError
	}
	f.posted = append(f.posted, text)
	f.postedTo = append(f.postedTo, spaceName+"|"+threadName)
	return nil
}

type fakeDrive struct{ files []workspace.DriveFile }

func (f *fakeDrive) ListFiles(_ context.Context, maxResults int) ([]workspace.DriveFile, error) {
	if len(f.files) > maxResults {
		return f.files[:maxResults], nil
	}
	return f.files, nil
}

type fakeTasks struct {
	listID    string
	created   []workspace.Task
	createErr error
}

func (f *fakeTasks) ListTaskLists(context.Context) ([]workspace.TaskList, error) {
	return []workspace.TaskList{{ID: f.listID, Title: taskListName}}, nil
}

func (f *fakeTasks) GetOrCreateTaskList(_ context.Context, _ string) (string, error) {
	return f.listID, nil
}

func (f *fakeTasks) ListTasks(context.Context, string, bool) ([]workspace.Task, error) {
	return f.created, nil
}

func (f *fakeTasks) CreateTask(_ context.Context, listID, title, notes string) (*workspace.Task, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	t := workspace.Task{ID: fmt.Sprintf("task-%d", len(f.created)+1), Title: title, Notes: notes, TaskListID: listID}
	f.created = append(f.created, t)
	return &t, nil
}

type fakeIdentity struct{ profile workspace.Profile }

func (f *fakeIdentity) Profile(context.Context) (*workspace.Profile, error) {
	return &f.profile, nil
}

func testWorkspace(mail *fakeMail, chat *fakeChat, drive *fakeDrive, tasks *fakeTasks, id *fakeIdentity) *workspace.Workspace {
	if mail == nil {
		mail = &fakeMail{}
	}
	if chat == nil {
		chat = &fakeChat{}
	}
	if drive == nil {
		drive = &fakeDrive{}
	}
	if tasks == nil {
		tasks = &fakeTasks{listID: "list-1"}
	}
	if id == nil {
		id = &fakeIdentity{profile: workspace.Profile{Email: "me@example.com", UserResourceName: "users/111"}}
	}
	return &workspace.Workspace{Mail: mail, Chat: chat, Drive: drive, Tasks: tasks, Identity: id}
}

func TestParseTaskLines(t *testing.T) {
	response := `Here is your summary.

TASK: Reply to Dana | She asked about the Q3 budget
- TASK: Book flights
Some unrelated line with TASK: mentioned mid-sentence? No: it must start the line.
TASK:  | notes without a title are dropped
`
	items := ParseTaskLines(response)
	if len(items) != 2 {
		t.Fatalf("expected 2 tasks, got %d: %+v", len(items), items)
	}
	if items[0].Title != "Reply to Dana" || items[0].Notes != "She asked about the Q3 budget" {
		t.Errorf("unexpected first task: %+v", items[0])
	}
	if items[1].Title != "Book flights" || items[1].Notes != "" {
		t.Errorf("unexpected second task: %+v", items[1])
	}
}

func TestSmartInboxCreatesTasks(t *testing.T) {
	tasks := &fakeTasks{listID: "list-1"}
	mail := &fakeMail{emails: []workspace.Email{{Subject: "Budget", From: "dana@example.com"}}}
	agent := &fakeAgent{response: "Summary.\nTASK: Reply to Dana | budget question\nTASK: File expenses"}
	o := NewOrchestrator("u1", testWorkspace(mail, nil, nil, tasks, nil), agent)

	result, err := o.RunSmartInbox(context.Background())
	if err != nil {
		t.Fatalf("RunSmartInbox: %v", err)
	}
	if len(result.TasksCreated) != 2 {
		t.Fatalf("expected 2 tasks created, got %d", len(result.TasksCreated))
	}
	if result.EmailsScanned != 1 {
		t.Errorf("expected 1 email scanned, got %d", result.EmailsScanned)
	}
	if len(tasks.created) != 2 || tasks.created[0].Title != "Reply to Dana" {
		t.Errorf("unexpected tasks: %+v", tasks.created)
	}
}

func TestSmartInboxTaskFailureIsBestEffort(t *testing.T) {
	tasks := &fakeTasks{listID: "list-1", createErr: errors.New("quota exceeded")}
	agent := &fakeAgent{response: "TASK: Something"}
	o := NewOrchestrator("u1", testWorkspace(nil, nil, nil, tasks, nil), agent)

	result, err := o.RunSmartInbox(context.Background())
	if err != nil {
		t.Fatalf("task failure must not fail the workflow: %v", err)
	}
	if len(result.TasksCreated) != 0 || len(result.TaskErrors) != 1 {
		t.Fatalf("expected 0 created and 1 error, got %+v", result)
	}
}

func TestFirstEmailDraftThreadsReply(t *testing.T) {
	mail := &fakeMail{emails: []workspace.Email{
		{ID: "e1", ThreadID: "t1", Subject: "Re: Offsite", From: "Me <me@example.com>", MessageID: "<own@id>"},
		{ID: "e2", ThreadID: "t2", Subject: "Offsite planning", From: "Dana Ito <dana@example.com>",
			MessageID: "<abc@mail>", References: "<root@mail>"},
	}}
	agent := &fakeAgent{response: "Happy to help with the offsite."}
	o := NewOrchestrator("u1", testWorkspace(mail, nil, nil, nil, nil), agent)

	result, err := o.RunFirstEmailDraft(context.Background(), "offsite")
	if err != nil {
		t.Fatalf("RunFirstEmailDraft: %v", err)
	}
	if result.Status != "draft_created" {
		t.Fatalf("expected draft_created, got %q", result.Status)
	}
	if len(mail.drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(mail.drafts))
	}
	d := mail.drafts[0]
	if d.To != "dana@example.com" {
		t.Errorf("draft To = %q, want bare address", d.To)
	}
	if d.Subject != "Re: Offsite planning" {
		t.Errorf("draft Subject = %q", d.Subject)
	}
	if d.ThreadID != "t2" || d.InReplyTo != "<abc@mail>" {
		t.Errorf("draft threading wrong: %+v", d)
	}
	if d.References != "<root@mail> <abc@mail>" {
		t.Errorf("draft References = %q", d.References)
	}
}

func TestFirstEmailDraftSkipsOwnMail(t *testing.T) {
	mail := &fakeMail{emails: []workspace.Email{
		{ID: "e1", Subject: "Offsite", From: "me@example.com"},
	}}
	agent := &fakeAgent{response: "should not be called"}
	o := NewOrchestrator("u1", testWorkspace(mail, nil, nil, nil, nil), agent)

	result, err := o.RunFirstEmailDraft(context.Background(), "offsite")
	if err != nil {
		t.Fatalf("RunFirstEmailDraft: %v", err)
	}
	if result.Status != "no_match" {
		t.Fatalf("expected no_match, got %q", result.Status)
	}
	if len(agent.calls) != 0 {
		t.Errorf("agent must not be invoked without a matching email")
	}
}

func TestFirstEmailDraftWithoutFilterUsesNewestEmail(t *testing.T) {
	mail := &fakeMail{emails: []workspace.Email{
		{ID: "e1", ThreadID: "t1", Subject: "Weekly report", From: "Dana Ito <dana@example.com>", MessageID: "<abc@mail>"},
		{ID: "e2", ThreadID: "t2", Subject: "Older mail", From: "kai@example.com"},
	}}
	agent := &fakeAgent{response: "Thanks, looks good."}
	o := NewOrchestrator("u1", testWorkspace(mail, nil, nil, nil, nil), agent)

	result, err := o.RunFirstEmailDraft(context.Background(), "")
	if err != nil {
		t.Fatalf("RunFirstEmailDraft: %v", err)
	}
	if result.Status != "draft_created" {
		t.Fatalf("expected draft_created, got %q", result.Status)
	}
	if len(mail.drafts) != 1 || mail.drafts[0].ThreadID != "t1" {
		t.Fatalf("expected a reply to the newest email, got %+v", mail.drafts)
	}
}

func TestChatAssistantScopesHistoryToSpace(t *testing.T) {
	chat := &fakeChat{
		spaces: []workspace.ChatSpace{
			{Name: "spaces/s1", SpaceType: workspace.SpaceTypeDirectMessage},
			{Name: "spaces/s2", SpaceType: workspace.SpaceTypeDirectMessage},
		},
		messages: map[string][]workspace.ChatMessage{
			"spaces/s1": {{Name: "m1", Text: "alpha", Sender: workspace.ChatSender{DisplayName: "Kai"}}},
			"spaces/s2": {{Name: "m2", Text: "beta", Sender: workspace.ChatSender{DisplayName: "Dana"}}},
		},
	}
	agent := &fakeAgent{response: "ok"}
	o := NewOrchestrator("u1", testWorkspace(nil, chat, nil, nil, nil), agent)

	if _, err := o.RunChatAssistant(context.Background(), "what did Dana say?", "spaces/s2"); err != nil {
		t.Fatalf("RunChatAssistant: %v", err)
	}
	if !strings.Contains(agent.contexts[0], "beta") || strings.Contains(agent.contexts[0], "alpha") {
		t.Errorf("history must come from the requested space only:\n%s", agent.contexts[0])
	}
	if agent.convIDs[0] != "u1-chat_assistant-spaces/s2" {
		t.Errorf("conversation id not scoped to the space: %q", agent.convIDs[0])
	}

	if _, err := o.RunChatAssistant(context.Background(), "anything new?", ""); err != nil {
		t.Fatalf("RunChatAssistant: %v", err)
	}
	if !strings.Contains(agent.contexts[1], "alpha") || !strings.Contains(agent.contexts[1], "beta") {
		t.Errorf("without a space the history spans spaces:\n%s", agent.contexts[1])
	}
	if agent.convIDs[1] != "u1-chat_assistant" {
		t.Errorf("conversation id = %q", agent.convIDs[1])
	}
}

func TestCustomRespectsIncludeOptions(t *testing.T) {
	mail := &fakeMail{emails: []workspace.Email{{Subject: "Budget", From: "dana@example.com"}}}
	chat := &fakeChat{
		spaces:   []workspace.ChatSpace{{Name: "spaces/s1", SpaceType: workspace.SpaceTypeDirectMessage}},
		messages: map[string][]workspace.ChatMessage{"spaces/s1": {{Name: "m1", Text: "ping"}}},
	}
	drive := &fakeDrive{files: []workspace.DriveFile{{Name: "plan.doc"}}}
	agent := &fakeAgent{response: "ok"}
	o := NewOrchestrator("u1", testWorkspace(mail, chat, drive, nil, nil), agent)

	opts := CustomOptions{IncludeEmails: 0, IncludeChat: false, IncludeDrive: 5}
	if _, err := o.RunCustom(context.Background(), "summarize my docs", opts); err != nil {
		t.Fatalf("RunCustom: %v", err)
	}
	got := agent.contexts[0]
	if strings.Contains(got, "## Recent Emails") || strings.Contains(got, "## Chat Messages") {
		t.Errorf("excluded sections leaked into the context:\n%s", got)
	}
	if !strings.Contains(got, "## Recent Drive Files") {
		t.Errorf("drive section missing:\n%s", got)
	}
}

func TestChatAutoReplyRefusesGroupSpaces(t *testing.T) {
	chat := &fakeChat{types: map[string]string{"spaces/g1": workspace.SpaceTypeGroupChat}}
	agent := &fakeAgent{response: "hi"}
	o := NewOrchestrator("u1", testWorkspace(nil, chat, nil, nil, nil), agent)

	result, err := o.RunChatAutoReply(context.Background(), "spaces/g1", 1)
	if err != nil {
		t.Fatalf("RunChatAutoReply: %v", err)
	}
	if result.Status != "skipped" {
		t.Fatalf("expected skipped for group space, got %q", result.Status)
	}
	if len(agent.calls) != 0 || len(chat.posted) != 0 {
		t.Errorf("no agent calls or posts expected for a group space")
	}
}

func TestChatAutoReplySkipsWhenLatestIsOwn(t *testing.T) {
	chat := &fakeChat{
		types: map[string]string{"spaces/d1": workspace.SpaceTypeDirectMessage},
		messages: map[string][]workspace.ChatMessage{"spaces/d1": {
			{Name: "m2", Text: "already answered", Sender: workspace.ChatSender{Name: "users/111", Type: "HUMAN"}},
			{Name: "m1", Text: "hello?", Sender: workspace.ChatSender{Name: "users/222", Type: "HUMAN"}},
		}},
	}
	agent := &fakeAgent{response: "hi"}
	o := NewOrchestrator("u1", testWorkspace(nil, chat, nil, nil, nil), agent)

	result, err := o.RunChatAutoReply(context.Background(), "spaces/d1", 3)
	if err != nil {
		t.Fatalf("RunChatAutoReply: %v", err)
	}
	if result.Status != "skipped" {
		t.Fatalf("expected skipped, got %q", result.Status)
	}
	if len(agent.calls) != 0 {
		t.Errorf("agent must not be invoked when the latest message is ours")
	}
}

func TestChatAutoReplyRepliesToPendingMessages(t *testing.T) {
	chat := &fakeChat{
		types: map[string]string{"spaces/d1": workspace.SpaceTypeDirectMessage},
		messages: map[string][]workspace.ChatMessage{"spaces/d1": {
			{Name: "m3", Text: "second question", ThreadName: "spaces/d1/threads/t2",
				Sender: workspace.ChatSender{Name: "users/222", DisplayName: "Dana", Type: "HUMAN"}},
			{Name: "m2", Text: "first question", ThreadName: "spaces/d1/threads/t1",
				Sender: workspace.ChatSender{Name: "users/222", DisplayName: "Dana", Type: "HUMAN"}},
			{Name: "m1", Text: "earlier reply of mine", Sender: workspace.ChatSender{Name: "users/111", Type: "HUMAN"}},
		}},
	}
	agent := &fakeAgent{response: "On it."}
	o := NewOrchestrator("u1", testWorkspace(nil, chat, nil, nil, nil), agent)

	result, err := o.RunChatAutoReply(context.Background(), "spaces/d1", 5)
	if err != nil {
		t.Fatalf("RunChatAutoReply: %v", err)
	}
	if result.Status != "completed" || len(result.Replies) != 2 {
		t.Fatalf("expected 2 replies, got %+v", result)
	}
	if chat.postedTo[0] != "spaces/d1|spaces/d1/threads/t2" {
		t.Errorf("reply not threaded: %v", chat.postedTo)
	}
}

func TestChatAutoReplyRepliesAcrossInterleavedOwnMessages(t *testing.T) {
	chat := &fakeChat{
		types: map[string]string{"spaces/d1": workspace.SpaceTypeDirectMessage},
		messages: map[string][]workspace.ChatMessage{"spaces/d1": {
			{Name: "m4", Text: "and one more thing", ThreadName: "spaces/d1/threads/t2",
				Sender: workspace.ChatSender{Name: "users/222", DisplayName: "Dana", Type: "HUMAN"}},
			{Name: "m3", Text: "my earlier answer", Sender: workspace.ChatSender{Name: "users/111", Type: "HUMAN"}},
			{Name: "m2", Text: "original question", ThreadName: "spaces/d1/threads/t1",
				Sender: workspace.ChatSender{Name: "users/222", DisplayName: "Dana", Type: "HUMAN"}},
		}},
	}
	agent := &fakeAgent{response: "On it."}
	o := NewOrchestrator("u1", testWorkspace(nil, chat, nil, nil, nil), agent)

	result, err := o.RunChatAutoReply(context.Background(), "spaces/d1", 2)
	if err != nil {
		t.Fatalf("RunChatAutoReply: %v", err)
	}
	if len(result.Replies) != 2 {
		t.Fatalf("expected replies to both of Dana's messages, got %+v", result.Replies)
	}
	if result.Replies[0].MessageName != "m4" || result.Replies[1].MessageName != "m2" {
		t.Errorf("replies must cover the two most recent messages from others: %+v", result.Replies)
	}
}

func TestChatAutoReplyEmptyAgentReplyIsPerMessageError(t *testing.T) {
	chat := &fakeChat{
		types: map[string]string{"spaces/d1": workspace.SpaceTypeDirectMessage},
		messages: map[string][]workspace.ChatMessage{"spaces/d1": {
			{Name: "m1", Text: "hello?", Sender: workspace.ChatSender{Name: "users/222", Type: "HUMAN"}},
		}},
	}
	agent := &fakeAgent{response: "   "}
	o := NewOrchestrator("u1", testWorkspace(nil, chat, nil, nil, nil), agent)

	result, err := o.RunChatAutoReply(context.Background(), "spaces/d1", 1)
	if err != nil {
		t.Fatalf("RunChatAutoReply: %v", err)
	}
	if len(result.Replies) != 0 || len(result.Errors) != 1 {
		t.Fatalf("expected per-message error for empty reply, got %+v", result)
	}
	if len(chat.posted) != 0 {
		t.Errorf("empty replies must not be posted")
	}
}

func TestRunAllIsolatesFailures(t *testing.T) {
	agent := &fakeAgent{err: errors.New("agent down")}
	o := NewOrchestrator("u1", testWorkspace(nil, nil, nil, nil, nil), agent)

	result := o.RunAll(context.Background(), map[string]bool{SmartInbox: true, DocumentIntelligence: true})
	if len(result.Workflows) != 0 {
		t.Fatalf("no workflows should succeed: %+v", result.Workflows)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %v", result.Errors)
	}
}

func TestRunAllRespectsToggles(t *testing.T) {
	agent := &fakeAgent{response: "ok"}
	o := NewOrchestrator("u1", testWorkspace(nil, nil, nil, nil, nil), agent)

	result := o.RunAll(context.Background(), map[string]bool{SmartInbox: true, DocumentIntelligence: false})
	if _, ok := result.Workflows[SmartInbox]; !ok {
		t.Errorf("smart inbox should have run")
	}
	if _, ok := result.Workflows[DocumentIntelligence]; ok {
		t.Errorf("document intelligence was toggled off")
	}
}

func TestFormatContextSections(t *testing.T) {
	out := FormatContext(
		[]workspace.Email{{From: "dana@example.com", Subject: "Budget", Date: "Mon", BodyPreview: "numbers"}},
		[]workspace.ChatMessage{{Text: "ping", Sender: workspace.ChatSender{DisplayName: "Dana"}}},
		[]workspace.DriveFile{{Name: "plan.doc", MimeType: "application/vnd.google-apps.document", ModifiedTime: "2026-08-30"}},
	)
	for _, section := range []string{"## Recent Emails", "## Chat Messages", "## Recent Drive Files"} {
		if !strings.Contains(out, section) {
			t.Errorf("missing section %q in:\n%s", section, out)
		}
	}

	if got := FormatContext(nil, nil, nil); got != "(no recent activity found)" {
		t.Errorf("empty context = %q", got)
	}
}

func TestExtractAddress(t *testing.T) {
	cases := map[string]string{
		"Dana Ito <dana@example.com>": "dana@example.com",
		"dana@example.com":            "dana@example.com",
		" dana@example.com ":          "dana@example.com",
	}
	for in, want := range cases {
		if got := extractAddress(in); got != want {
			t.Errorf("extractAddress(%q) = %q, want %q", in, got, want)
		}
	}
}
