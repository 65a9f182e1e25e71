package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/oshaani/workspace-employee/internal/api/middleware"
	"github.com/oshaani/workspace-employee/internal/workspace"
)

// TaskListsHandler lists the user's Google Tasks lists.
func TaskListsHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := d.workspaceFor(r, middleware.UserID(r.Context()))
		if err != nil {
			d.fail(w, r, err)
			return
		}
		lists, err := ws.Tasks.ListTaskLists(r.Context())
		if err != nil {
			d.fail(w, r, err)
			return
		}
		if lists == nil {
			lists = []workspace.TaskList{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"task_lists": lists})
	}
}

// ListTasksHandler lists the tasks in one list. ?show_completed=true
// includes finished tasks.
func ListTasksHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID := chi.URLParam(r, "listID")
		ws, err := d.workspaceFor(r, middleware.UserID(r.Context()))
		if err != nil {
			d.fail(w, r, err)
			return
		}
		showCompleted := r.URL.Query().Get("show_completed") == "true"
		tasks, err := ws.Tasks.ListTasks(r.Context(), listID, showCompleted)
		if err != nil {
			d.fail(w, r, err)
			return
		}
		if tasks == nil {
			tasks = []workspace.Task{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
	}
}

// CreateTaskHandler creates a task. When no list id is given the task lands
// in the app's default list, created on first use.
func CreateTaskHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ListID string `json:"list_id"`
			Title  string `json:"title"`
			Notes  string `json:"notes"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		if strings.TrimSpace(body.Title) == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "title is required")
			return
		}

		ws, err := d.workspaceFor(r, middleware.UserID(r.Context()))
		if err != nil {
			d.fail(w, r, err)
			return
		}

		listID := body.ListID
		if listID == "" {
			listID, err = ws.Tasks.GetOrCreateTaskList(r.Context(), "Workspace Employee")
			if err != nil {
				d.fail(w, r, err)
				return
			}
		}
		task, err := ws.Tasks.CreateTask(r.Context(), listID, body.Title, body.Notes)
		if err != nil {
			d.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, task)
	}
}
