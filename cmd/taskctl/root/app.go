package root

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskdesk/internal/api"
	"github.com/BuzzLyutic/taskdesk/internal/authform"
	"github.com/BuzzLyutic/taskdesk/internal/config"
	"github.com/BuzzLyutic/taskdesk/internal/credstore"
	"github.com/BuzzLyutic/taskdesk/internal/guard"
	"github.com/BuzzLyutic/taskdesk/internal/session"
	"github.com/BuzzLyutic/taskdesk/internal/taskstore"
	"github.com/BuzzLyutic/taskdesk/internal/ui"
)

var errNotLoggedIn = errors.New("not logged in")

// app is one "page load": the client stack wired for a single invocation.
type app struct {
	out    io.Writer
	logger *zap.Logger
	store  credstore.Store
	tasks  *taskstore.Controller
	guard  *guard.Guard
	form   *authform.Form
	close  func() error
}

func newApp(cfg config.Client, logger *zap.Logger, out io.Writer) (*app, error) {
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{out: out, logger: logger, store: store, close: closeStore}
	httpClient := &http.Client{Timeout: cfg.Timeout}

	auth := api.NewAuthClient(cfg.APIURL, httpClient, logger)
	refresher := session.NewRefresher(store, auth, logger)
	refresher.OnSessionLost(func() {
		fmt.Fprintln(out, ui.Warn.Render(ui.IconWarn+" Your session has expired. Please log in again."))
		a.navigate(guard.LoginRoute)
	})
	gw := session.NewGateway(cfg.APIURL, httpClient, store, refresher, logger)

	a.tasks = taskstore.New(api.NewTaskClient(gw), session.SystemClock, logger)
	a.guard = guard.New(store, refresher, session.SystemClock, logger)
	a.form = authform.New(auth, store, authform.NewFileFlash(cfg.FlashFile), authform.NavigatorFunc(a.navigate), logger)
	return a, nil
}

func openStore(cfg config.Client) (credstore.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Credentials {
	case "", "file":
		return credstore.NewFileStore(cfg.SessionFile), noop, nil
	case "memory":
		return credstore.NewMemoryStore(), noop, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		return credstore.NewRedisStore(client, "taskdesk", cfg.SessionTTL), client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown credentials backend %q", cfg.Credentials)
}

func (a *app) navigate(route string) {
	switch route {
	case guard.LoginRoute:
		fmt.Fprintln(a.out, ui.Muted.Render(ui.IconLock+" Log in with: taskctl login -u <username> -p <password>"))
	case authform.HomeRoute:
		fmt.Fprintln(a.out, ui.Muted.Render("Run taskctl list to see your tasks."))
	default:
		a.logger.Debug("navigate", zap.String("route", route))
	}
}

// showFlash prints the message left by the previous failed submission.
func (a *app) showFlash() {
	fl, ok := a.form.TakeFlash()
	if !ok {
		return
	}
	fmt.Fprintln(a.out, ui.Bad.Render(ui.IconError+" "+fl.Message))
	fields := make([]string, 0, len(fl.Fields))
	for f := range fl.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintln(a.out, "  "+ui.LabelValue(f, fl.Fields[f]))
	}
}

// protected runs content behind the route guard.
func (a *app) protected(ctx context.Context, content func(ctx context.Context) error) error {
	state, err := a.guard.Serve(ctx, &page{app: a, content: content})
	if err != nil {
		return err
	}
	if state != guard.Authorized {
		return errNotLoggedIn
	}
	return nil
}

type page struct {
	app     *app
	content func(ctx context.Context) error
}

func (p *page) Placeholder() { p.app.logger.Debug("checking session") }

func (p *page) Content(ctx context.Context) error { return p.content(ctx) }

func (p *page) Redirect(route string) { p.app.navigate(route) }
