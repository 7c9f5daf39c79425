package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BuzzLyutic/taskdesk/internal/model"
	"github.com/BuzzLyutic/taskdesk/internal/repo"
)

var (
	ErrValidation = errors.New("validation error")
)

// ValidationError описывает ошибки по полям. errors.Is(err, ErrValidation)
// для него истинно.
type ValidationError struct {
	Fields model.FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %d field(s)", len(e.Fields))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

var openStatuses = []model.Status{model.StatusPending, model.StatusInProgress}

type TaskService struct {
	repo repo.TaskRepository
}

func NewTaskService(repo repo.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

func (s *TaskService) Create(ctx context.Context, userID int64, t model.Task, idempKey string) (model.Task, error) {
	t = normalize(t)
	if err := s.validate(t); err != nil { // Валидация модели на корректность введенных данных
		return t, err
	}

	if idempKey != "" { // повтор с тем же ключом вернет ранее созданную задачу
		return s.repo.CreateIdempotent(ctx, userID, t, idempKey)
	}
	return s.repo.Create(ctx, userID, t)
}

func (s *TaskService) Get(ctx context.Context, userID, id int64) (model.Task, error) {
	return s.repo.Get(ctx, userID, id)
}

// List возвращает незавершенные задачи.
func (s *TaskService) List(ctx context.Context, userID int64) ([]model.Task, error) {
	return s.repo.List(ctx, userID, model.TaskFilter{Statuses: openStatuses})
}

func (s *TaskService) Completed(ctx context.Context, userID int64) ([]model.Task, error) {
	return s.repo.List(ctx, userID, model.TaskFilter{Statuses: []model.Status{model.StatusCompleted}})
}

func (s *TaskService) Update(ctx context.Context, userID int64, t model.Task) (model.Task, error) {
	t = normalize(t)
	if err := s.validate(t); err != nil {
		return t, err
	}
	return s.repo.Update(ctx, userID, t)
}

func (s *TaskService) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *TaskService) GetStats(ctx context.Context, userID int64) (model.Stats, error) {
	return s.repo.GetStats(ctx, userID)
}

// Describe генерирует описание задачи по заголовку.
func (s *TaskService) Describe(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", &ValidationError{Fields: model.FieldErrors{"title": {"This field may not be blank."}}}
	}
	return fmt.Sprintf("This task involves completing %s. Make sure to allocate sufficient time and resources to accomplish it efficiently.", title), nil
}

func normalize(t model.Task) model.Task {
	t.Title = strings.TrimSpace(t.Title)
	if t.Status == "" {
		t.Status = model.StatusPending
	}
	return t
}

func (s *TaskService) validate(t model.Task) error {
	fields := model.FieldErrors{}
	if t.Title == "" {
		fields.Add("title", "This field may not be blank.")
	} else if len(t.Title) > model.MaxTitleLen {
		fields.Add("title", fmt.Sprintf("Ensure this field has no more than %d characters.", model.MaxTitleLen))
	}
	if t.Priority < model.MinPriority || t.Priority > model.MaxPriority {
		fields.Add("priority", fmt.Sprintf("Ensure this value is between %d and %d.", model.MinPriority, model.MaxPriority))
	}
	if !t.Status.Valid() {
		fields.Add("status", fmt.Sprintf("%q is not a valid choice.", t.Status))
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
