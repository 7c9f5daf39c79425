package repo

import (
	"context"
	"time"

	"github.com/BuzzLyutic/taskdesk/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами.
// Все операции ограничены задачами одного пользователя.
type TaskRepository interface {
	Create(ctx context.Context, userID int64, t model.Task) (model.Task, error)
	Get(ctx context.Context, userID, id int64) (model.Task, error)
	List(ctx context.Context, userID int64, filter model.TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, userID int64, t model.Task) (model.Task, error)
	Delete(ctx context.Context, userID, id int64) error
	CreateIdempotent(ctx context.Context, userID int64, t model.Task, key string) (model.Task, error)
	PurgeIdempotencyKeys(ctx context.Context, before time.Time) (int64, error)
	GetStats(ctx context.Context, userID int64) (model.Stats, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	GetUser(ctx context.Context, id int64) (model.User, error)
}
