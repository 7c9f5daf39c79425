package model

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

const (
	MinPriority = 1
	MaxPriority = 5
	MaxTitleLen = 300
)

type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    int       `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskDraft is what a user submits to create a task. The id is assigned
// by the remote store or synthesized locally.
type TaskDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	Priority    int    `json:"priority"`
}

// Task builds a record from the draft, defaulting an empty status to pending.
func (d TaskDraft) Task(id int64, now time.Time) Task {
	status := d.Status
	if status == "" {
		status = StatusPending
	}
	return Task{
		ID:          id,
		Title:       strings.TrimSpace(d.Title),
		Description: d.Description,
		Status:      status,
		Priority:    d.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

type TaskFilter struct {
	Statuses []Status
}

// Stats mirrors the dashboard endpoint payload.
type Stats struct {
	Total      int `json:"total_tasks"`
	Completed  int `json:"tasks_completed"`
	Pending    int `json:"tasks_pending"`
	InProgress int `json:"tasks_in_progress"`
}

// CountStats derives dashboard counters from a task slice.
func CountStats(tasks []Task) Stats {
	st := Stats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case StatusCompleted:
			st.Completed++
		case StatusPending:
			st.Pending++
		case StatusInProgress:
			st.InProgress++
		}
	}
	return st
}
