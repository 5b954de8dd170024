package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/you/taskconsole/domain"
)

// ListTasks implements domain.TaskAPI
func (c *Client) ListTasks(ctx context.Context, token string, f domain.TaskFilter) ([]domain.Task, error) {
	q := url.Values{}
	setIf(q, "taskName", f.TaskName)
	setIf(q, "assignUser", f.AssignUser)
	setBool(q, "status", f.Status)
	setIf(q, "description", f.Description)
	setIf(q, "startDate", f.StartDate)
	setIf(q, "endDate", f.EndDate)
	setIf(q, "completeDate", f.CompleteDate)
	setIf(q, "firstName", f.FirstName)
	setPage(q, f.Page)

	var tasks []domain.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", q, token, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask implements domain.TaskAPI
func (c *Client) CreateTask(ctx context.Context, token string, input domain.TaskInput) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, token, input, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask implements domain.TaskAPI
func (c *Client) UpdateTask(ctx context.Context, token, id string, input domain.TaskInput) (*domain.Task, error) {
	q := url.Values{}
	q.Set("taskId", id)
	var task domain.Task
	if err := c.do(ctx, http.MethodPut, "/tasks", q, token, input, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask implements domain.TaskAPI
func (c *Client) DeleteTask(ctx context.Context, token, id string) error {
	q := url.Values{}
	q.Set("taskId", id)
	return c.do(ctx, http.MethodDelete, "/tasks", q, token, nil, nil)
}
