package repo_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/taskdesk/internal/model"
	"github.com/BuzzLyutic/taskdesk/internal/repo"
	"github.com/BuzzLyutic/taskdesk/internal/testutil"
)

func TestTaskRepo(t *testing.T) {
	pool, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	r := repo.NewTaskRepo(pool)

	t.Run("create and get", func(t *testing.T) {
		testutil.TruncateTables(t, pool)
		uid := testutil.SeedUser(t, pool, "alice")

		created, err := r.Create(ctx, uid, model.Task{Title: "Test", Description: "d", Priority: 5, Status: model.StatusPending})
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, model.StatusPending, created.Status)
		assert.Equal(t, "d", created.Description)

		got, err := r.Get(ctx, uid, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Title, got.Title)
	})

	t.Run("tasks are private to their owner", func(t *testing.T) {
		testutil.TruncateTables(t, pool)
		alice := testutil.SeedUser(t, pool, "alice")
		bob := testutil.SeedUser(t, pool, "bob")
		ids := testutil.SeedTasks(t, pool, alice, 2)

		_, err := r.Get(ctx, bob, ids[0])
		assert.ErrorIs(t, err, repo.ErrorNotFound)
		assert.ErrorIs(t, r.Delete(ctx, bob, ids[0]), repo.ErrorNotFound)

		tasks, err := r.List(ctx, bob, model.TaskFilter{})
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("list filters by status", func(t *testing.T) {
		testutil.TruncateTables(t, pool)
		uid := testutil.SeedUser(t, pool, "alice")
		ids := testutil.SeedTasks(t, pool, uid, 3)

		done, err := r.Get(ctx, uid, ids[1])
		require.NoError(t, err)
		done.Status = model.StatusCompleted
		_, err = r.Update(ctx, uid, done)
		require.NoError(t, err)

		open, err := r.List(ctx, uid, model.TaskFilter{Statuses: []model.Status{model.StatusPending, model.StatusInProgress}})
		require.NoError(t, err)
		assert.Len(t, open, 2)

		all, err := r.List(ctx, uid, model.TaskFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		st, err := r.GetStats(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, model.Stats{Total: 3, Completed: 1, Pending: 2}, st)
	})

	t.Run("update missing task", func(t *testing.T) {
		testutil.TruncateTables(t, pool)
		uid := testutil.SeedUser(t, pool, "alice")
		_, err := r.Update(ctx, uid, model.Task{ID: 999, Title: "x", Priority: 1, Status: model.StatusPending})
		assert.ErrorIs(t, err, repo.ErrorNotFound)
	})

	t.Run("idempotent create", func(t *testing.T) {
		testutil.TruncateTables(t, pool)
		uid := testutil.SeedUser(t, pool, "alice")
		other := testutil.SeedUser(t, pool, "bob")

		first, err := r.CreateIdempotent(ctx, uid, model.Task{Title: "once", Priority: 1, Status: model.StatusPending}, "k")
		require.NoError(t, err)
		again, err := r.CreateIdempotent(ctx, uid, model.Task{Title: "twice", Priority: 1, Status: model.StatusPending}, "k")
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, "once", again.Title)

		// ключи у каждого пользователя свои
		theirs, err := r.CreateIdempotent(ctx, other, model.Task{Title: "bob's", Priority: 1, Status: model.StatusPending}, "k")
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, theirs.ID)

		n, err := r.PurgeIdempotencyKeys(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("concurrent creates with one key insert one row", func(t *testing.T) {
		testutil.TruncateTables(t, pool)
		uid := testutil.SeedUser(t, pool, "alice")

		const goroutines = 10
		var wg sync.WaitGroup
		results := make([]model.Task, goroutines)
		errs := make([]error, goroutines)

		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				task := model.Task{Title: fmt.Sprintf("Concurrent Task %d", idx), Priority: 5, Status: model.StatusPending}
				results[idx], errs[idx] = r.CreateIdempotent(ctx, uid, task, "concurrent-test-key")
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			require.NoError(t, err, "request %d should not error", i)
			assert.Equal(t, results[0].ID, results[i].ID, "request %d should return same ID", i)
		}

		var count int
		require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM tasks").Scan(&count))
		assert.Equal(t, 1, count, "only one task should be created")
	})
}

func TestUserRepo(t *testing.T) {
	pool, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	r := repo.NewUserRepo(pool)

	created, err := r.CreateUser(ctx, model.User{Username: "carol", Email: "c@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	_, err = r.CreateUser(ctx, model.User{Username: "carol", Email: "c2@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, repo.ErrorConflict)

	got, err := r.GetUserByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "h", got.PasswordHash)

	_, err = r.GetUser(ctx, 12345)
	assert.ErrorIs(t, err, repo.ErrorNotFound)
}
