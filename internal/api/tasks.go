package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/BuzzLyutic/taskdesk/internal/model"
	"github.com/BuzzLyutic/taskdesk/internal/session"
)

// Doer is satisfied by *session.Gateway.
type Doer interface {
	Do(ctx context.Context, req session.Request) (*session.Response, error)
}

// TaskClient is the typed view of the /tasks endpoints. Every call goes
// through the session gateway.
type TaskClient struct {
	doer Doer
}

func NewTaskClient(doer Doer) *TaskClient {
	return &TaskClient{doer: doer}
}

// List returns the open (pending and in-progress) tasks.
func (c *TaskClient) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := c.call(ctx, http.MethodGet, "/tasks", nil, nil, http.StatusOK, &tasks)
	return tasks, err
}

func (c *TaskClient) Completed(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := c.call(ctx, http.MethodGet, "/tasks/completed", nil, nil, http.StatusOK, &tasks)
	return tasks, err
}

// Create posts a draft. idempKey lets the server recognise a replay of
// the same create.
func (c *TaskClient) Create(ctx context.Context, d model.TaskDraft, idempKey string) (model.Task, error) {
	var t model.Task
	var header http.Header
	if idempKey != "" {
		header = http.Header{"Idempotency-Key": {idempKey}}
	}
	err := c.call(ctx, http.MethodPost, "/tasks", d, header, http.StatusCreated, &t)
	return t, err
}

func (c *TaskClient) Update(ctx context.Context, t model.Task) (model.Task, error) {
	var out model.Task
	err := c.call(ctx, http.MethodPut, fmt.Sprintf("/tasks/%d", t.ID), t, nil, http.StatusOK, &out)
	return out, err
}

func (c *TaskClient) Delete(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil, http.StatusNoContent, nil)
}

func (c *TaskClient) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	err := c.call(ctx, http.MethodGet, "/tasks/dashboard", nil, nil, http.StatusOK, &st)
	return st, err
}

func (c *TaskClient) Describe(ctx context.Context, title string) (string, error) {
	var out struct {
		Description string `json:"description"`
	}
	err := c.call(ctx, http.MethodPost, "/tasks/generate", map[string]string{"title": title}, nil, http.StatusOK, &out)
	if err != nil {
		return "", err
	}
	if out.Description == "" {
		return "", fmt.Errorf("empty description")
	}
	return out.Description, nil
}

func (c *TaskClient) call(ctx context.Context, method, path string, in any, header http.Header, want int, out any) error {
	req := session.Request{Method: method, Path: path, Header: header}
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		req.Body = raw
	}

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode != want {
		return statusError(resp.StatusCode, resp.Body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
