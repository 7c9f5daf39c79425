package root

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskdesk/internal/authform"
	"github.com/BuzzLyutic/taskdesk/internal/config"
	"github.com/BuzzLyutic/taskdesk/internal/credstore"
	"github.com/BuzzLyutic/taskdesk/internal/handler"
	"github.com/BuzzLyutic/taskdesk/internal/model"
	"github.com/BuzzLyutic/taskdesk/internal/service"
	"github.com/BuzzLyutic/taskdesk/internal/testutil"
)

func startAPI(t *testing.T) (*httptest.Server, *testutil.MemRepo) {
	t.Helper()
	mem := testutil.NewMemRepo()
	logger := zap.NewNop()
	authSvc := service.NewAuthService(mem, service.NewTokenIssuer("cli-secret", time.Minute, time.Hour))
	ts := httptest.NewServer(handler.NewRouter(
		handler.NewTaskHandler(service.NewTaskService(mem), logger),
		handler.NewAuthHandler(authSvc, logger),
		authSvc,
		logger,
	))
	t.Cleanup(ts.Close)
	return ts, mem
}

func clientConfig(t *testing.T, apiURL string) config.Client {
	dir := t.TempDir()
	return config.Client{
		APIURL:      apiURL,
		Timeout:     5 * time.Second,
		SessionFile: filepath.Join(dir, "session.yaml"),
		FlashFile:   filepath.Join(dir, "flash.yaml"),
		Credentials: "file",
	}
}

// run executes one invocation of taskctl, as a separate process would.
func run(t *testing.T, cfg config.Client, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := &cli{cfg: cfg, out: &out}
	cmd := newRootCmd(c)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	c.close()
	return out.String(), err
}

func TestTaskctl_Session(t *testing.T) {
	ts, mem := startAPI(t)
	cfg := clientConfig(t, ts.URL+"/api")

	_, err := run(t, cfg, "list")
	assert.ErrorIs(t, err, errNotLoggedIn)

	_, err = run(t, cfg, "register", "-u", "dana", "-p", "pw", "-e", "dana@example.com")
	require.NoError(t, err)

	out, err := run(t, cfg, "login", "-u", "dana", "-p", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "taskctl list")

	_, err = run(t, cfg, "add", "Buy milk", "-p", "2")
	require.NoError(t, err)
	_, err = run(t, cfg, "add", "Pay rent", "-p", "5", "-d", "before the 5th")
	require.NoError(t, err)

	out, err = run(t, cfg, "list", "--filter", "rent")
	require.NoError(t, err)
	assert.Contains(t, out, "Pay rent")
	assert.NotContains(t, out, "Buy milk")

	u, err := mem.GetUserByUsername(context.Background(), "dana")
	require.NoError(t, err)
	all, err := mem.List(context.Background(), u.ID, model.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = run(t, cfg, "edit", "1", "--status", "completed")
	require.NoError(t, err)

	out, err = run(t, cfg, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Buy milk")

	// завершённая задача редактируется через удалённое хранилище
	_, err = run(t, cfg, "edit", "1", "--title", "Bought milk")
	require.NoError(t, err)
	done, err := mem.Get(context.Background(), u.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Bought milk", done.Title)
	assert.Equal(t, model.StatusCompleted, done.Status)

	out, err = run(t, cfg, "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Completed")

	_, err = run(t, cfg, "rm", "2")
	require.NoError(t, err)
	all, err = mem.List(context.Background(), u.ID, model.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = run(t, cfg, "logout")
	require.NoError(t, err)
	_, err = run(t, cfg, "dashboard")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestTaskctl_FailedLoginIsShownOnce(t *testing.T) {
	ts, _ := startAPI(t)
	cfg := clientConfig(t, ts.URL+"/api")

	_, err := run(t, cfg, "login", "-u", "nobody", "-p", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Wrong username or password.")

	out, err := run(t, cfg, "list")
	assert.ErrorIs(t, err, errNotLoggedIn)
	assert.NotContains(t, out, "Wrong username or password.")
}

func TestTaskctl_FlashFieldsAreSorted(t *testing.T) {
	ts, _ := startAPI(t)
	cfg := clientConfig(t, ts.URL+"/api")
	require.NoError(t, authform.NewFileFlash(cfg.FlashFile).Save(authform.Flash{
		Message: authform.MsgFixFields,
		Fields:  map[string]string{"username": "required", "password": "required", "email": "invalid"},
	}))

	out, err := run(t, cfg, "list")
	assert.ErrorIs(t, err, errNotLoggedIn)

	e, p, u := strings.Index(out, "email:"), strings.Index(out, "password:"), strings.Index(out, "username:")
	require.True(t, e >= 0 && p >= 0 && u >= 0, out)
	assert.Less(t, e, p)
	assert.Less(t, p, u)
}

func TestTaskctl_RejectsBadInput(t *testing.T) {
	ts, _ := startAPI(t)
	cfg := clientConfig(t, ts.URL+"/api")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown sort order", []string{"list", "--sort", "sideways"}},
		{"add without title", []string{"add"}},
		{"non-numeric id", []string{"rm", "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, cfg, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestOpenStore(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		cfg     config.Client
		want    any
		wantErr bool
	}{
		{"file", config.Client{Credentials: "file", SessionFile: filepath.Join(t.TempDir(), "s.yaml")}, &credstore.FileStore{}, false},
		{"memory", config.Client{Credentials: "memory"}, &credstore.MemoryStore{}, false},
		{"redis", config.Client{Credentials: "redis", RedisAddr: mr.Addr(), SessionTTL: time.Hour}, &credstore.RedisStore{}, false},
		{"unknown", config.Client{Credentials: "etcd"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, closeFn, err := openStore(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer closeFn()
			assert.IsType(t, tt.want, store)

			ctx := context.Background()
			require.NoError(t, store.Set(ctx, credstore.Access, "a"))
			got, err := store.Get(ctx, credstore.Access)
			require.NoError(t, err)
			assert.Equal(t, "a", got)
		})
	}
}
