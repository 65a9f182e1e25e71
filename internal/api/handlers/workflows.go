package handlers

import (
	"net/http"
	"strings"

	"github.com/oshaani/workspace-employee/internal/api/middleware"
	"github.com/oshaani/workspace-employee/internal/workflow"
	"github.com/oshaani/workspace-employee/internal/workspace"
)

// SmartInboxHandler runs the smart inbox workflow on demand.
func SmartInboxHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := d.orchestratorFor(r, middleware.UserID(r.Context()))
		if err != nil {
			d.fail(w, r, err)
			return
		}
		result, err := o.RunSmartInbox(r.Context())
		if err != nil {
			d.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// DocumentIntelligenceHandler runs the document review workflow.
func DocumentIntelligenceHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := d.orchestratorFor(r, middleware.UserID(r.Context()))
		if err != nil {
			d.fail(w, r, err)
			return
		}
		result, err := o.RunDocumentIntelligence(r.Context())
		if err != nil {
			d.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// ChatAssistantHandler answers a question with chat history as context. An
// optional space narrows the history to that space.
func ChatAssistantHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Message string `json:"message"`
			Space   string `json:"space"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		if strings.TrimSpace(body.Message) == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "message is required")
			return
		}

		o, err := d.orchestratorFor(r, middleware.UserID(r.Context()))
		if err != nil {
			d.fail(w, r, err)
			return
		}
		result, err := o.RunChatAssistant(r.Context(), body.Message, body.Space)
		if err != nil {
			d.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// CustomWorkflowHandler runs a free-form request over caller-selected
// context. Absent include fields fall back to the defaults.
func CustomWorkflowHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Message       string `json:"message"`
			IncludeEmails *int   `json:"include_emails"`
			IncludeChat   *bool  `json:"include_chat"`
			IncludeDrive  *int   `json:"include_drive"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		if strings.TrimSpace(body.Message) == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "message is required")
			return
		}
		opts := workflow.DefaultCustomOptions()
		if body.IncludeEmails != nil {
			opts.IncludeEmails = *body.IncludeEmails
		}
		if body.IncludeChat != nil {
			opts.IncludeChat = *body.IncludeChat
		}
		if body.IncludeDrive != nil {
			opts.IncludeDrive = *body.IncludeDrive
		}
		if opts.IncludeEmails < 0 || opts.IncludeEmails > 50 || opts.IncludeDrive < 0 || opts.IncludeDrive > 50 {
			writeError(w, http.StatusBadRequest, "invalid_request", "include limits must be between 0 and 50")
			return
		}

		o, err := d.orchestratorFor(r, middleware.UserID(r.Context()))
		if err != nil {
			d.fail(w, r, err)
			return
		}
		result, err := o.RunCustom(r.Context(), body.Message, opts)
		if err != nil {
			d.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// FirstEmailDraftHandler drafts a threaded reply to the newest email
// matching a subject filter. Without a filter the newest email wins.
func FirstEmailDraftHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Subject string `json:"subject"`
		}
		if !decodeBody(w, r, &body) {
			return
		}

		o, err := d.orchestratorFor(r, middleware.UserID(r.Context()))
		if err != nil {
			d.fail(w, r, err)
			return
		}
		result, err := o.RunFirstEmailDraft(r.Context(), body.Subject)
		if err != nil {
			d.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// ChatAutoReplyHandler runs auto-reply against one space. The workflow
// itself refuses anything that is not a direct message.
func ChatAutoReplyHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Space         string `json:"space"`
			ReplyToLatest int    `json:"reply_to_latest"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		if strings.TrimSpace(body.Space) == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "space is required")
			return
		}

		o, err := d.orchestratorFor(r, middleware.UserID(r.Context()))
		if err != nil {
			d.fail(w, r, err)
			return
		}
		result, err := o.RunChatAutoReply(r.Context(), body.Space, body.ReplyToLatest)
		if err != nil {
			d.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// ChatSpacesHandler lists the user's chat spaces with their types, so a
// caller can pick auto-reply targets.
func ChatSpacesHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := d.workspaceFor(r, middleware.UserID(r.Context()))
		if err != nil {
			d.fail(w, r, err)
			return
		}
		spaces, err := ws.Chat.ListSpaces(r.Context())
		if err != nil {
			d.fail(w, r, err)
			return
		}
		if spaces == nil {
			spaces = []workspace.ChatSpace{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"spaces": spaces})
	}
}

// RunAllHandler runs every toggled-on context workflow in one pass.
func RunAllHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		o, err := d.orchestratorFor(r, userID)
		if err != nil {
			d.fail(w, r, err)
			return
		}
		toggles := d.Settings.WorkflowToggles(r.Context(), userID)
		writeJSON(w, http.StatusOK, o.RunAll(r.Context(), toggles))
	}
}
