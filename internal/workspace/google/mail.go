package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/api/gmail/v1"

	"github.com/oshaani/workspace-employee/internal/util"
	"github.com/oshaani/workspace-employee/internal/workspace"
)

// MailService implements workspace.Mail on the Gmail API.
type MailService struct {
	svc *gmail.Service
}

// ListEmails fetches recent inbox message summaries, newest first.
func (m *MailService) ListEmails(ctx context.Context, maxResults int) ([]workspace.Email, error) {
	list, err := m.svc.Users.Messages.List("me").MaxResults(int64(maxResults)).Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("Gmail messages.list", err)
	}

	emails := make([]workspace.Email, 0, len(list.Messages))
	for _, ref := range list.Messages {
		full, err := m.svc.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, wrapErr("Gmail messages.get", err)
		}

		headers := headerMap(full.Payload)
		body := decodeBody(full.Payload)
		if body == "" {
			body = full.Snippet
		}
		subject := headers["Subject"]
		if subject == "" {
			subject = "(No subject)"
		}

		emails = append(emails, workspace.Email{
			ID:          ref.Id,
			ThreadID:    full.ThreadId,
			Subject:     subject,
			From:        headers["From"],
			To:          headers["To"],
			Date:        headers["Date"],
			MessageID:   headers["Message-ID"],
			References:  headers["References"],
			Snippet:     util.Clip(full.Snippet, 200),
			BodyPreview: util.Clip(body, 500),
		})
	}
	return emails, nil
}

// CreateDraft creates a Gmail draft. Thread fields on the request turn it
// into a threaded reply; the draft is never sent automatically.
func (m *MailService) CreateDraft(ctx context.Context, req workspace.DraftRequest) (*workspace.Draft, error) {
	raw := base64.URLEncoding.EncodeToString([]byte(buildRFC822(req)))
	draft := &gmail.Draft{
		Message: &gmail.Message{Raw: raw},
	}
	if req.ThreadID != "" {
		draft.Message.ThreadId = req.ThreadID
	}

	created, err := m.svc.Users.Drafts.Create("me", draft).Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("Gmail drafts.create", err)
	}
	out := &workspace.Draft{ID: created.Id}
	if created.Message != nil {
		out.MessageID = created.Message.Id
	}
	return out, nil
}

func buildRFC822(req workspace.DraftRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", req.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", req.Subject)
	if req.InReplyTo != "" {
		fmt.Fprintf(&b, "In-Reply-To: %s\r\n", req.InReplyTo)
	}
	if req.References != "" {
		fmt.Fprintf(&b, "References: %s\r\n", req.References)
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(req.Body)
	return b.String()
}

func headerMap(payload *gmail.MessagePart) map[string]string {
	headers := make(map[string]string)
	if payload == nil {
		return headers
	}
	for _, h := range payload.Headers {
		headers[h.Name] = h.Value
	}
	return headers
}

// decodeBody extracts the plain-text body from a message payload, trying
// the top-level body first and then the first text/plain part.
func decodeBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}
	if payload.Body != nil && payload.Body.Data != "" {
		if s := decodeBase64URL(payload.Body.Data); s != "" {
			return s
		}
	}
	for _, part := range payload.Parts {
		if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
			if s := decodeBase64URL(part.Body.Data); s != "" {
				return s
			}
		}
	}
	return ""
}

// decodeBase64URL handles both padded and unpadded base64url, which Gmail
// mixes freely.
func decodeBase64URL(s string) string {
	if data, err := base64.URLEncoding.DecodeString(s); err == nil {
		return string(data)
	}
	if data, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return string(data)
	}
	return ""
}
