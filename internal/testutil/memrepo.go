package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/BuzzLyutic/taskdesk/internal/model"
	"github.com/BuzzLyutic/taskdesk/internal/repo"
)

// MemRepo is an in-memory repo.TaskRepository and repo.UserRepository
// for tests that do not need PostgreSQL.
type MemRepo struct {
	mu     sync.Mutex
	tasks  map[int64]ownedTask
	users  map[int64]model.User
	keys   map[string]memKey
	nextID int64
	nextU  int64
}

type memKey struct {
	taskID    int64
	createdAt time.Time
}

type ownedTask struct {
	owner int64
	task  model.Task
}

func NewMemRepo() *MemRepo {
	return &MemRepo{
		tasks: map[int64]ownedTask{},
		users: map[int64]model.User{},
		keys:  map[string]memKey{},
	}
}

func (m *MemRepo) Create(ctx context.Context, userID int64, t model.Task) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	t.CreatedAt, t.UpdatedAt = time.Now(), time.Now()
	m.tasks[t.ID] = ownedTask{owner: userID, task: t}
	return t, nil
}

func (m *MemRepo) Get(ctx context.Context, userID, id int64) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ot, ok := m.tasks[id]
	if !ok || ot.owner != userID {
		return model.Task{}, repo.ErrorNotFound
	}
	return ot.task, nil
}

func (m *MemRepo) List(ctx context.Context, userID int64, filter model.TaskFilter) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Task, 0)
	for _, ot := range m.tasks {
		if ot.owner != userID {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, ot.task.Status) {
			continue
		}
		out = append(out, ot.task)
	}
	slices.SortFunc(out, func(a, b model.Task) int { return int(a.ID - b.ID) })
	return out, nil
}

func (m *MemRepo) Update(ctx context.Context, userID int64, t model.Task) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ot, ok := m.tasks[t.ID]
	if !ok || ot.owner != userID {
		return t, repo.ErrorNotFound
	}
	t.CreatedAt, t.UpdatedAt = ot.task.CreatedAt, time.Now()
	m.tasks[t.ID] = ownedTask{owner: userID, task: t}
	return t, nil
}

func (m *MemRepo) Delete(ctx context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ot, ok := m.tasks[id]
	if !ok || ot.owner != userID {
		return repo.ErrorNotFound
	}
	delete(m.tasks, id)
	return nil
}

func idemKey(userID int64, key string) string {
	return fmt.Sprintf("%d:%s", userID, key)
}

func (m *MemRepo) CreateIdempotent(ctx context.Context, userID int64, t model.Task, key string) (model.Task, error) {
	m.mu.Lock()
	if k, ok := m.keys[idemKey(userID, key)]; ok {
		m.mu.Unlock()
		return m.Get(ctx, userID, k.taskID)
	}
	m.mu.Unlock()

	created, err := m.Create(ctx, userID, t)
	if err != nil {
		return created, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if k, ok := m.keys[idemKey(userID, key)]; ok { // проиграли гонку
		delete(m.tasks, created.ID)
		return m.tasks[k.taskID].task, nil
	}
	m.keys[idemKey(userID, key)] = memKey{taskID: created.ID, createdAt: time.Now()}
	return created, nil
}

func (m *MemRepo) PurgeIdempotencyKeys(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, v := range m.keys {
		if v.createdAt.Before(before) {
			delete(m.keys, k)
			n++
		}
	}
	return n, nil
}

func (m *MemRepo) GetStats(ctx context.Context, userID int64) (model.Stats, error) {
	all, _ := m.List(ctx, userID, model.TaskFilter{})
	return model.CountStats(all), nil
}

func (m *MemRepo) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return model.User{}, repo.ErrorConflict
		}
	}
	m.nextU++
	u.ID = m.nextU
	m.users[u.ID] = u
	return u, nil
}

func (m *MemRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, repo.ErrorNotFound
}

func (m *MemRepo) GetUser(ctx context.Context, id int64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repo.ErrorNotFound
	}
	return u, nil
}
