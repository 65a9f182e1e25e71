package google

import (
	"context"

	"google.golang.org/api/tasks/v1"

	"github.com/oshaani/workspace-employee/internal/workspace"
)

// DefaultTaskListName is the list workflows store action items in when no
// explicit list is given.
const DefaultTaskListName = "Workspace Employee"

// TasksService implements workspace.Tasks on the Google Tasks API.
type TasksService struct {
	svc *tasks.Service
}

func (t *TasksService) ListTaskLists(ctx context.Context) ([]workspace.TaskList, error) {
	resp, err := t.svc.Tasklists.List().MaxResults(100).Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("Tasks tasklists.list", err)
	}
	lists := make([]workspace.TaskList, 0, len(resp.Items))
	for _, tl := range resp.Items {
		lists = append(lists, workspace.TaskList{ID: tl.Id, Title: tl.Title, Updated: tl.Updated})
	}
	return lists, nil
}

// GetOrCreateTaskList finds a task list by title, creating it when absent.
func (t *TasksService) GetOrCreateTaskList(ctx context.Context, name string) (string, error) {
	resp, err := t.svc.Tasklists.List().MaxResults(100).Context(ctx).Do()
	if err != nil {
		return "", wrapErr("Tasks tasklists.list", err)
	}
	for _, tl := range resp.Items {
		if tl.Title == name {
			return tl.Id, nil
		}
	}
	created, err := t.svc.Tasklists.Insert(&tasks.TaskList{Title: name}).Context(ctx).Do()
	if err != nil {
		return "", wrapErr("Tasks tasklists.insert", err)
	}
	return created.Id, nil
}

func (t *TasksService) ListTasks(ctx context.Context, taskListID string, showCompleted bool) ([]workspace.Task, error) {
	resp, err := t.svc.Tasks.List(taskListID).
		ShowCompleted(showCompleted).
		MaxResults(100).
		Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("Tasks tasks.list", err)
	}
	out := make([]workspace.Task, 0, len(resp.Items))
	for _, item := range resp.Items {
		out = append(out, workspace.Task{
			ID:         item.Id,
			Title:      item.Title,
			Notes:      item.Notes,
			Status:     item.Status,
			Due:        item.Due,
			TaskListID: taskListID,
		})
	}
	return out, nil
}

func (t *TasksService) CreateTask(ctx context.Context, taskListID, title, notes string) (*workspace.Task, error) {
	created, err := t.svc.Tasks.Insert(taskListID, &tasks.Task{Title: title, Notes: notes}).Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("Tasks tasks.insert", err)
	}
	return &workspace.Task{
		ID:         created.Id,
		Title:      created.Title,
		Notes:      created.Notes,
		Status:     created.Status,
		TaskListID: taskListID,
	}, nil
}
