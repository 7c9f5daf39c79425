package taskstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskdesk/internal/model"
	"github.com/BuzzLyutic/taskdesk/internal/session"
)

// Completed returns finished tasks from the remote store, or the
// completed tasks of the local collection if the remote call fails.
func (c *Controller) Completed(ctx context.Context) ([]model.Task, error) {
	tasks, err := c.remote.Completed(ctx)
	if err == nil {
		return tasks, nil
	}
	if errors.Is(err, session.ErrSessionLost) {
		return nil, err
	}
	c.logger.Warn("fetch completed tasks failed", zap.Error(err))

	var local []model.Task
	for _, t := range c.List() {
		if t.Status == model.StatusCompleted {
			local = append(local, t)
		}
	}
	return local, nil
}

// Dashboard returns status counters, computed locally when the remote
// dashboard is unreachable.
func (c *Controller) Dashboard(ctx context.Context) (model.Stats, error) {
	st, err := c.remote.Stats(ctx)
	if err == nil {
		return st, nil
	}
	if errors.Is(err, session.ErrSessionLost) {
		return model.Stats{}, err
	}
	c.logger.Warn("fetch dashboard failed", zap.Error(err))
	return model.CountStats(c.List()), nil
}

// Describe suggests a description for a task title, falling back to a
// fixed template if the remote generator fails.
func (c *Controller) Describe(ctx context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: enter a task title first", ErrValidation)
	}
	desc, err := c.remote.Describe(ctx, title)
	if err == nil {
		return desc, nil
	}
	if errors.Is(err, session.ErrSessionLost) {
		return "", err
	}
	c.logger.Warn("generate description failed", zap.Error(err))
	return LocalDescription(title), nil
}

func LocalDescription(title string) string {
	return fmt.Sprintf(`Complete all required steps for "%s". This task requires attention to detail and following established procedures.`, title)
}
