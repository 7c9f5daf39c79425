package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/taskdesk/internal/model"
	"github.com/BuzzLyutic/taskdesk/internal/repo"
)

// MockTaskRepository - мок репозитория
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, userID int64, t model.Task) (model.Task, error) {
	args := m.Called(ctx, userID, t)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Get(ctx context.Context, userID, id int64) (model.Task, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context, userID int64, filter model.TaskFilter) ([]model.Task, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, userID int64, t model.Task) (model.Task, error) {
	args := m.Called(ctx, userID, t)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, userID, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockTaskRepository) CreateIdempotent(ctx context.Context, userID int64, t model.Task, key string) (model.Task, error) {
	args := m.Called(ctx, userID, t, key)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) PurgeIdempotencyKeys(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) GetStats(ctx context.Context, userID int64) (model.Stats, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Stats), args.Error(1)
}

func TestTaskService_Create(t *testing.T) {
	tests := []struct {
		name      string
		task      model.Task
		idempKey  string
		setupMock func(*MockTaskRepository)
		wantErr   error
	}{
		{
			name: "successful creation without idempotency key",
			task: model.Task{Title: " Test Task ", Priority: 5},
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, int64(1), mock.MatchedBy(func(t model.Task) bool {
					return t.Title == "Test Task" && t.Priority == 5 && t.Status == model.StatusPending
				})).Return(model.Task{ID: 1, Title: "Test Task", Priority: 5, Status: model.StatusPending}, nil)
			},
		},
		{
			name:      "validation error - empty title",
			task:      model.Task{Title: "", Priority: 5},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name:      "validation error - invalid priority",
			task:      model.Task{Title: "Test", Priority: 6},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name:      "validation error - unknown status",
			task:      model.Task{Title: "Test", Priority: 1, Status: "archived"},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name:     "idempotency key goes through the transactional path",
			task:     model.Task{Title: "Test Task", Priority: 5},
			idempKey: "key-123",
			setupMock: func(m *MockTaskRepository) {
				m.On("CreateIdempotent", mock.Anything, int64(1), mock.MatchedBy(func(t model.Task) bool {
					return t.Status == model.StatusPending
				}), "key-123").Return(model.Task{ID: 42, Title: "Test Task", Priority: 5}, nil)
			},
		},
		{
			name:     "idempotent create propagates repository error",
			task:     model.Task{Title: "Test Task", Priority: 5},
			idempKey: "key-456",
			setupMock: func(m *MockTaskRepository) {
				m.On("CreateIdempotent", mock.Anything, int64(1), mock.Anything, "key-456").Return(model.Task{}, repo.ErrorNotFound)
			},
			wantErr: repo.ErrorNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockTaskRepository)
			tt.setupMock(m)

			_, err := NewTaskService(m).Create(context.Background(), 1, tt.task, tt.idempKey)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			m.AssertExpectations(t)
		})
	}
}

func TestTaskService_ValidationFields(t *testing.T) {
	_, err := NewTaskService(new(MockTaskRepository)).Update(context.Background(), 1,
		model.Task{ID: 1, Title: "", Priority: 0, Status: model.StatusPending})

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "title")
	assert.Contains(t, ve.Fields, "priority")
}

func TestTaskService_ListAndCompleted(t *testing.T) {
	m := new(MockTaskRepository)
	m.On("List", mock.Anything, int64(7), model.TaskFilter{Statuses: []model.Status{model.StatusPending, model.StatusInProgress}}).
		Return([]model.Task{{ID: 1}}, nil)
	m.On("List", mock.Anything, int64(7), model.TaskFilter{Statuses: []model.Status{model.StatusCompleted}}).
		Return([]model.Task{{ID: 2}}, nil)

	s := NewTaskService(m)
	open, err := s.List(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	done, err := s.Completed(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), done[0].ID)
}

func TestTaskService_Describe(t *testing.T) {
	s := NewTaskService(new(MockTaskRepository))
	got, err := s.Describe("laundry")
	require.NoError(t, err)
	assert.Contains(t, got, "laundry")

	_, err = s.Describe("  ")
	assert.ErrorIs(t, err, ErrValidation)
}
