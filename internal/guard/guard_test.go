package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskdesk/internal/credstore"
	"github.com/BuzzLyutic/taskdesk/internal/session"
)

type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) Refresh(ctx context.Context, stale string) (string, error) {
	args := m.Called(ctx, stale)
	return args.String(0), args.Error(1)
}

type recordingView struct {
	events []string
}

func (v *recordingView) Placeholder() { v.events = append(v.events, "placeholder") }

func (v *recordingView) Content(ctx context.Context) error {
	v.events = append(v.events, "content")
	return nil
}

func (v *recordingView) Redirect(route string) { v.events = append(v.events, "redirect "+route) }

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func tokenExpiring(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestGuard_Evaluate(t *testing.T) {
	tests := []struct {
		name      string
		access    string
		setupMock func(m *MockRefresher, access string)
		want      State
	}{
		{
			name:      "no token",
			access:    "",
			setupMock: func(m *MockRefresher, _ string) {},
			want:      Unauthorized,
		},
		{
			name:      "valid token",
			access:    tokenExpiring(t, now.Add(time.Minute)),
			setupMock: func(m *MockRefresher, _ string) {},
			want:      Authorized,
		},
		{
			name:   "expired token refreshed",
			access: tokenExpiring(t, now.Add(-time.Minute)),
			setupMock: func(m *MockRefresher, access string) {
				m.On("Refresh", mock.Anything, access).Return("new", nil).Once()
			},
			want: Authorized,
		},
		{
			name:   "token expiring exactly now is refreshed",
			access: tokenExpiring(t, now),
			setupMock: func(m *MockRefresher, access string) {
				m.On("Refresh", mock.Anything, access).Return("new", nil).Once()
			},
			want: Authorized,
		},
		{
			name:   "expired token refresh fails",
			access: tokenExpiring(t, now.Add(-time.Minute)),
			setupMock: func(m *MockRefresher, access string) {
				m.On("Refresh", mock.Anything, access).Return("", session.ErrSessionLost).Once()
			},
			want: Unauthorized,
		},
		{
			name:      "malformed token",
			access:    "garbage",
			setupMock: func(m *MockRefresher, _ string) {},
			want:      Unauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := credstore.NewMemoryStore()
			if tt.access != "" {
				require.NoError(t, store.Set(context.Background(), credstore.Access, tt.access))
			}
			m := new(MockRefresher)
			tt.setupMock(m, tt.access)

			g := New(store, m, session.ClockFunc(func() time.Time { return now }), zap.NewNop())
			assert.Equal(t, tt.want, g.Evaluate(context.Background()))
			m.AssertExpectations(t)
		})
	}
}

func TestGuard_Serve(t *testing.T) {
	clock := session.ClockFunc(func() time.Time { return now })

	t.Run("authorized renders content", func(t *testing.T) {
		store := credstore.NewMemoryStore()
		require.NoError(t, store.Set(context.Background(), credstore.Access, tokenExpiring(t, now.Add(time.Hour))))
		v := &recordingView{}

		state, err := New(store, new(MockRefresher), clock, zap.NewNop()).Serve(context.Background(), v)
		require.NoError(t, err)
		assert.Equal(t, Authorized, state)
		assert.Equal(t, []string{"placeholder", "content"}, v.events)
	})

	t.Run("unauthorized redirects without content", func(t *testing.T) {
		v := &recordingView{}
		state, err := New(credstore.NewMemoryStore(), new(MockRefresher), clock, zap.NewNop()).Serve(context.Background(), v)
		require.NoError(t, err)
		assert.Equal(t, Unauthorized, state)
		assert.Equal(t, []string{"placeholder", "redirect /login"}, v.events)
	})

	t.Run("content error is returned", func(t *testing.T) {
		store := credstore.NewMemoryStore()
		require.NoError(t, store.Set(context.Background(), credstore.Access, tokenExpiring(t, now.Add(time.Hour))))
		boom := errors.New("boom")

		_, err := New(store, new(MockRefresher), clock, zap.NewNop()).Serve(context.Background(), failingView{boom})
		assert.ErrorIs(t, err, boom)
	})
}

type failingView struct{ err error }

func (failingView) Placeholder()                     {}
func (f failingView) Content(context.Context) error { return f.err }
func (failingView) Redirect(string)                  {}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unknown", Unknown.String())
	assert.Equal(t, "authorized", Authorized.String())
	assert.Equal(t, "unauthorized", Unauthorized.String())
}
