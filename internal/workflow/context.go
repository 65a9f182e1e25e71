package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/oshaani/workspace-employee/internal/util"
	"github.com/oshaani/workspace-employee/internal/workspace"
)

const (
	contextEmailLimit = 5
	contextChatLimit  = 10
	contextDriveLimit = 5
)

// FormatContext serializes gathered Workspace data into the markdown block
// the agent receives alongside the user's request.
func FormatContext(emails []workspace.Email, chat []workspace.ChatMessage, files []workspace.DriveFile) string {
	var b strings.Builder

	if len(emails) > 0 {
		b.WriteString("## Recent Emails\n")
		for i, e := range emails {
			if i >= contextEmailLimit {
				break
			}
			subject := e.Subject
			if subject == "" {
				subject = "(No subject)"
			}
			fmt.Fprintf(&b, "%d. From: %s | Subject: %s | Date: %s\n", i+1, e.From, subject, e.Date)
			if e.BodyPreview != "" {
				fmt.Fprintf(&b, "   %s\n", util.Clip(e.BodyPreview, 300))
			}
		}
		b.WriteString("\n")
	}

	if len(chat) > 0 {
		b.WriteString("## Chat Messages\n")
		for i, m := range chat {
			if i >= contextChatLimit {
				break
			}
			sender := m.Sender.DisplayName
			if sender == "" {
				sender = m.Sender.Name
			}
			fmt.Fprintf(&b, "%d. %s: %s\n", i+1, sender, util.Clip(m.Text, 300))
		}
		b.WriteString("\n")
	}

	if len(files) > 0 {
		b.WriteString("## Recent Drive Files\n")
		for i, f := range files {
			if i >= contextDriveLimit {
				break
			}
			fmt.Fprintf(&b, "%d. %s (%s, modified %s)\n", i+1, f.Name, f.MimeType, f.ModifiedTime)
		}
		b.WriteString("\n")
	}

	if b.Len() == 0 {
		return "(no recent activity found)"
	}
	return strings.TrimRight(b.String(), "\n")
}

// gatherChat pulls the latest messages from the first few spaces. Failures
// on individual spaces are logged and skipped so one broken space does not
// empty the whole context block.
func gatherChat(ctx context.Context, chat workspace.Chat, maxSpaces, perSpace int) []workspace.ChatMessage {
	if chat == nil {
		return nil
	}
	spaces, err := chat.ListSpaces(ctx)
	if err != nil {
		log.Printf("⚠️ Context gather: chat spaces unavailable: %v", err)
		return nil
	}
	var out []workspace.ChatMessage
	for i, space := range spaces {
		if i >= maxSpaces {
			break
		}
		msgs, err := chat.ListMessages(ctx, space.Name, perSpace)
		if err != nil {
			log.Printf("⚠️ Context gather: messages for %s unavailable: %v", space.Name, err)
			continue
		}
		out = append(out, msgs...)
	}
	return out
}

func gatherEmails(ctx context.Context, mail workspace.Mail, limit int) []workspace.Email {
	if mail == nil {
		return nil
	}
	emails, err := mail.ListEmails(ctx, limit)
	if err != nil {
		log.Printf("⚠️ Context gather: emails unavailable: %v", err)
		return nil
	}
	return emails
}

func gatherDrive(ctx context.Context, drive workspace.Drive, limit int) []workspace.DriveFile {
	if drive == nil {
		return nil
	}
	files, err := drive.ListFiles(ctx, limit)
	if err != nil {
		log.Printf("⚠️ Context gather: drive files unavailable: %v", err)
		return nil
	}
	return files
}
