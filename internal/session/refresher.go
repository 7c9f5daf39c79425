package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/BuzzLyutic/taskdesk/internal/credstore"
)

// Exchanger trades a refresh token for a new access token.
type Exchanger interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Refresher runs the refresh exchange. Concurrent callers share a single
// in-flight exchange and all observe its result.
type Refresher struct {
	store    credstore.Store
	exchange Exchanger
	logger   *zap.Logger

	group  singleflight.Group
	lostMu sync.Mutex
	onLost func()
}

func NewRefresher(store credstore.Store, exchange Exchanger, logger *zap.Logger) *Refresher {
	return &Refresher{store: store, exchange: exchange, logger: logger}
}

// OnSessionLost registers fn to be called when a live session is torn
// down. fn runs at most once per session.
func (r *Refresher) OnSessionLost(fn func()) {
	r.lostMu.Lock()
	defer r.lostMu.Unlock()
	r.onLost = fn
}

// Refresh returns a fresh access token, stored before it is returned.
// stale is the access token the caller saw rejected or expired; if the
// store already holds a different one, that token is returned without a
// new exchange. Any failure clears both tokens and yields ErrSessionLost.
func (r *Refresher) Refresh(ctx context.Context, stale string) (string, error) {
	// The flight outlives a single caller's cancellation; other callers
	// may be waiting on it. The HTTP client timeout bounds it.
	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := r.group.Do("refresh", func() (any, error) {
		return r.refresh(flightCtx, stale)
	})
	if shared {
		r.logger.Debug("joined in-flight token refresh")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *Refresher) refresh(ctx context.Context, stale string) (string, error) {
	current, err := r.store.Get(ctx, credstore.Access)
	if err != nil {
		return "", r.Lose(ctx, fmt.Errorf("read access token: %w", err))
	}
	if current != "" && current != stale {
		return current, nil
	}

	refresh, err := r.store.Get(ctx, credstore.Refresh)
	if err != nil {
		return "", r.Lose(ctx, fmt.Errorf("read refresh token: %w", err))
	}
	if refresh == "" {
		return "", r.Lose(ctx, fmt.Errorf("no refresh token"))
	}

	access, err := r.exchange.Refresh(ctx, refresh)
	if err != nil {
		return "", r.Lose(ctx, fmt.Errorf("refresh exchange: %w", err))
	}
	if err := r.store.Set(ctx, credstore.Access, access); err != nil {
		return "", r.Lose(ctx, fmt.Errorf("store access token: %w", err))
	}
	r.logger.Info("access token refreshed")
	return access, nil
}

// Lose clears the credentials and returns ErrSessionLost wrapping cause.
// The session-lost callback fires only if credentials were present.
func (r *Refresher) Lose(ctx context.Context, cause error) error {
	r.lostMu.Lock()
	access, _ := r.store.Get(ctx, credstore.Access)
	refresh, _ := r.store.Get(ctx, credstore.Refresh)
	live := access != "" || refresh != ""

	if err := r.store.ClearAll(ctx); err != nil {
		r.logger.Error("failed to clear credentials", zap.Error(err))
	}
	onLost := r.onLost
	r.lostMu.Unlock()

	r.logger.Warn("session lost", zap.Error(cause))
	// колбэк вызывается без блокировки: он может снова вызвать Lose
	if live && onLost != nil {
		onLost()
	}
	return fmt.Errorf("%w: %w", ErrSessionLost, cause)
}
