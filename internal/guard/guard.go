// Package guard decides whether a protected view may be shown.
package guard

import (
	"context"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskdesk/internal/credstore"
	"github.com/BuzzLyutic/taskdesk/internal/session"
)

type State int

const (
	Unknown State = iota
	Authorized
	Unauthorized
)

func (s State) String() string {
	switch s {
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// LoginRoute is where Unauthorized navigations are sent.
const LoginRoute = "/login"

// View is the rendering side of a protected navigation.
type View interface {
	Placeholder()
	Content(ctx context.Context) error
	Redirect(route string)
}

// Refresher is satisfied by *session.Refresher.
type Refresher interface {
	Refresh(ctx context.Context, stale string) (string, error)
}

type Guard struct {
	store     credstore.Store
	refresher Refresher
	clock     session.Clock
	logger    *zap.Logger
}

func New(store credstore.Store, refresher Refresher, clock session.Clock, logger *zap.Logger) *Guard {
	return &Guard{store: store, refresher: refresher, clock: clock, logger: logger}
}

// Evaluate resolves the session state. Only a token with expiry at or
// before now costs a network call, and then exactly one refresh.
func (g *Guard) Evaluate(ctx context.Context) State {
	token, err := g.store.Get(ctx, credstore.Access)
	if err != nil {
		g.logger.Warn("read access token", zap.Error(err))
		return Unauthorized
	}
	if token == "" {
		return Unauthorized
	}

	expired, err := session.Expired(token, g.clock.Now())
	if err != nil {
		g.logger.Warn("malformed access token", zap.Error(err))
		return Unauthorized
	}
	if !expired {
		return Authorized
	}

	if _, err := g.refresher.Refresh(ctx, token); err != nil {
		g.logger.Info("refresh on navigation failed", zap.Error(err))
		return Unauthorized
	}
	return Authorized
}

// Serve runs one protected navigation: placeholder while the state is
// Unknown, then either the content or a redirect to login.
func (g *Guard) Serve(ctx context.Context, v View) (State, error) {
	v.Placeholder()
	state := g.Evaluate(ctx)
	if state != Authorized {
		v.Redirect(LoginRoute)
		return state, nil
	}
	return state, v.Content(ctx)
}
