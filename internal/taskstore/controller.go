// Package taskstore owns the client's in-memory task collection. Writes
// go to the remote store first; when that fails the collection is
// changed locally so the client stays usable.
package taskstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskdesk/internal/model"
	"github.com/BuzzLyutic/taskdesk/internal/session"
)

var (
	ErrNotFound   = errors.New("task not found")
	ErrValidation = errors.New("validation error")
)

// RemoteTasks is satisfied by *api.TaskClient.
type RemoteTasks interface {
	List(ctx context.Context) ([]model.Task, error)
	Completed(ctx context.Context) ([]model.Task, error)
	Create(ctx context.Context, d model.TaskDraft, idempKey string) (model.Task, error)
	Update(ctx context.Context, t model.Task) (model.Task, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (model.Stats, error)
	Describe(ctx context.Context, title string) (string, error)
}

type Order int

const (
	PriorityDesc Order = iota
	PriorityAsc
)

// Controller is the sole mutator of the task collection. Each mutation
// and its follow-up re-sync run under one lock, so a re-sync never
// overwrites another in-flight change made through the same Controller.
type Controller struct {
	remote RemoteTasks
	clock  session.Clock
	logger *zap.Logger
	newKey func() string

	mu    sync.Mutex
	tasks []model.Task
}

func New(remote RemoteTasks, clock session.Clock, logger *zap.Logger) *Controller {
	return &Controller{
		remote: remote,
		clock:  clock,
		logger: logger,
		newKey: uuid.NewString,
	}
}

// Load replaces the collection with the remote list. If the remote store
// cannot be reached the collection is seeded with a single placeholder.
// Session loss is returned and leaves the collection untouched.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.resync(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrSessionLost):
		return err
	}
	if len(c.tasks) == 0 {
		c.tasks = []model.Task{c.placeholder()}
	}
	return nil
}

// List returns a copy of the collection in storage order.
func (c *Controller) List() []model.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.tasks)
}

// Add creates a task. On remote success the collection is re-synced; on
// failure a local record with id max+1 is appended. Only validation and
// session loss are returned as errors.
func (c *Controller) Add(ctx context.Context, d model.TaskDraft) error {
	if err := validateDraft(d); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.newKey()
	return c.attempt(ctx, "add",
		func(ctx context.Context) (model.Task, error) {
			return c.remote.Create(ctx, d, key)
		},
		func() error {
			t := d.Task(c.nextID(), c.clock.Now())
			c.tasks = append(c.tasks, t)
			c.logger.Info("task added locally", zap.Int64("task_id", t.ID))
			return nil
		},
	)
}

// Update replaces the task with the given id by t (full-record replace).
// The remote store is tried first, so ids outside the local collection
// (completed tasks) can still be changed. ErrNotFound means both the
// remote write and the local lookup failed.
func (c *Controller) Update(ctx context.Context, id int64, t model.Task) error {
	t.ID = id
	if err := validateTask(t); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.attempt(ctx, "update",
		func(ctx context.Context) (model.Task, error) {
			return c.remote.Update(ctx, t)
		},
		func() error {
			i := c.index(id)
			if i < 0 {
				return fmt.Errorf("%w: %d", ErrNotFound, id)
			}
			t.CreatedAt = c.tasks[i].CreatedAt
			t.UpdatedAt = c.clock.Now()
			c.tasks[i] = t
			return nil
		},
	)
}

// Remove deletes the task locally whatever the remote outcome. A failed
// remote delete is only logged.
func (c *Controller) Remove(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.remote.Delete(ctx, id)
	c.drop(id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrSessionLost):
		return err
	default:
		c.logger.Warn("remote delete failed; removed locally",
			zap.Int64("task_id", id), zap.Error(err))
		return nil
	}
}

// attempt runs remote; on success it re-syncs the whole collection, on
// failure it applies local. If the write lands but the re-sync fetch
// fails, the record the server returned is merged in instead. Session
// loss is passed through untouched. Callers hold c.mu.
func (c *Controller) attempt(ctx context.Context, op string, remote func(context.Context) (model.Task, error), local func() error) error {
	saved, err := remote(ctx)
	if err == nil {
		if err := c.resync(ctx); err != nil {
			c.upsert(saved)
		}
		return nil
	}
	if errors.Is(err, session.ErrSessionLost) {
		return err
	}
	c.logger.Warn("remote write failed; applying locally",
		zap.String("op", op), zap.Error(err))
	return local()
}

// resync replaces the collection with the remote list. On error the
// collection is left as it was. Callers hold c.mu.
func (c *Controller) resync(ctx context.Context) error {
	tasks, err := c.remote.List(ctx)
	if err != nil {
		c.logger.Warn("fetch tasks failed", zap.Error(err))
		return err
	}
	c.tasks = tasks
	return nil
}

func (c *Controller) upsert(t model.Task) {
	if t.ID == 0 {
		return
	}
	if i := c.index(t.ID); i >= 0 {
		c.tasks[i] = t
		return
	}
	c.tasks = append(c.tasks, t)
}

func (c *Controller) placeholder() model.Task {
	now := c.clock.Now()
	return model.Task{
		ID:          1,
		Title:       "Sample Task",
		Description: "Server is down sorry",
		Priority:    3,
		Status:      model.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (c *Controller) nextID() int64 {
	var max int64
	for _, t := range c.tasks {
		if t.ID > max {
			max = t.ID
		}
	}
	return max + 1
}

func (c *Controller) index(id int64) int {
	return slices.IndexFunc(c.tasks, func(t model.Task) bool { return t.ID == id })
}

func (c *Controller) drop(id int64) {
	c.tasks = slices.DeleteFunc(c.tasks, func(t model.Task) bool { return t.ID == id })
}

// SortedView returns the collection stably sorted by priority.
func (c *Controller) SortedView(order Order) []model.Task {
	tasks := c.List()
	return Sort(tasks, order)
}

// FilteredView returns tasks whose title contains term, ignoring case.
func (c *Controller) FilteredView(term string) []model.Task {
	return Filter(c.List(), term)
}

// Sort orders tasks by priority in place; ties keep their relative order.
func Sort(tasks []model.Task, order Order) []model.Task {
	slices.SortStableFunc(tasks, func(a, b model.Task) int {
		if order == PriorityAsc {
			return a.Priority - b.Priority
		}
		return b.Priority - a.Priority
	})
	return tasks
}

func Filter(tasks []model.Task, term string) []model.Task {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return tasks
	}
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), term) {
			out = append(out, t)
		}
	}
	return out
}

func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(s) {
	case "", "desc", "-priority":
		return PriorityDesc, nil
	case "asc", "priority":
		return PriorityAsc, nil
	}
	return 0, fmt.Errorf("unknown sort order %q", s)
}

func validateDraft(d model.TaskDraft) error {
	return validateTask(d.Task(0, time.Time{}))
}

func validateTask(t model.Task) error {
	title := strings.TrimSpace(t.Title)
	if title == "" || len(title) > model.MaxTitleLen {
		return fmt.Errorf("%w: title must be 1..%d characters", ErrValidation, model.MaxTitleLen)
	}
	if t.Priority < model.MinPriority || t.Priority > model.MaxPriority {
		return fmt.Errorf("%w: priority must be %d..%d", ErrValidation, model.MinPriority, model.MaxPriority)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, t.Status)
	}
	return nil
}
