package workflow

import (
	"context"
	"strings"
)

// taskListName is the Google Tasks list workflows file action items into.
const taskListName = "Workspace Employee"

// TaskItem is one follow-up action parsed from agent output.
type TaskItem struct {
	Title string
	Notes string
}

// ParseTaskLines extracts "TASK: <title> | <notes>" lines from agent output.
// The notes part is optional; lines with an empty title are dropped.
func ParseTaskLines(response string) []TaskItem {
	var items []TaskItem
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		if !strings.HasPrefix(line, "TASK:") {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(line, "TASK:"))
		title, notes := rest, ""
		if idx := strings.Index(rest, "|"); idx != -1 {
			title = strings.TrimSpace(rest[:idx])
			notes = strings.TrimSpace(rest[idx+1:])
		}
		if title == "" {
			continue
		}
		items = append(items, TaskItem{Title: title, Notes: notes})
	}
	return items
}

func (o *Orchestrator) createTask(ctx context.Context, item TaskItem) (*TaskCreated, error) {
	listID, err := o.ws.Tasks.GetOrCreateTaskList(ctx, taskListName)
	if err != nil {
		return nil, err
	}
	task, err := o.ws.Tasks.CreateTask(ctx, listID, item.Title, item.Notes)
	if err != nil {
		return nil, err
	}
	return &TaskCreated{ID: task.ID, Title: task.Title}, nil
}
