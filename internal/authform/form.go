// Package authform implements the login and registration flows.
package authform

import (
	"context"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskdesk/internal/credstore"
	"github.com/BuzzLyutic/taskdesk/internal/model"
)

const (
	HomeRoute  = "/"
	LoginRoute = "/login"
)

// Authenticator is satisfied by *api.AuthClient.
type Authenticator interface {
	Login(ctx context.Context, creds model.Credentials) (model.TokenPair, error)
	Register(ctx context.Context, reg model.Registration) error
}

type Navigator interface {
	Navigate(route string)
}

type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

type Form struct {
	auth   Authenticator
	store  credstore.Store
	flash  FlashStore
	nav    Navigator
	logger *zap.Logger
}

func New(auth Authenticator, store credstore.Store, flash FlashStore, nav Navigator, logger *zap.Logger) *Form {
	return &Form{auth: auth, store: store, flash: flash, nav: nav, logger: logger}
}

// Login exchanges credentials for a token pair, stores both tokens and
// navigates home. Failures are returned as *FormError and saved as flash.
func (f *Form) Login(ctx context.Context, creds model.Credentials) error {
	creds.Username = strings.TrimSpace(creds.Username)
	if fields := requireFields(map[string]string{"username": creds.Username, "password": creds.Password}); fields != nil {
		return f.fail(&FormError{Kind: KindValidation, Message: MsgFixFields, Fields: fields})
	}

	pair, err := f.auth.Login(ctx, creds)
	if err != nil {
		return f.fail(Classify(err, true))
	}
	if err := f.store.SetPair(ctx, pair); err != nil {
		return f.fail(Classify(err, true))
	}
	f.logger.Info("logged in", zap.String("username", creds.Username))
	f.nav.Navigate(HomeRoute)
	return nil
}

// Register creates the account and sends the user to the login form.
// It does not log in.
func (f *Form) Register(ctx context.Context, reg model.Registration) error {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	fields := requireFields(map[string]string{
		"username": reg.Username,
		"password": reg.Password,
		"email":    reg.Email,
	})
	if fields == nil && !validEmail(reg.Email) {
		fields = map[string]string{"email": "Enter a valid email address."}
	}
	if fields != nil {
		return f.fail(&FormError{Kind: KindValidation, Message: MsgFixFields, Fields: fields})
	}

	if err := f.auth.Register(ctx, reg); err != nil {
		return f.fail(Classify(err, false))
	}
	f.logger.Info("registered", zap.String("username", reg.Username))
	f.nav.Navigate(LoginRoute)
	return nil
}

func (f *Form) Logout(ctx context.Context) error {
	if err := f.store.ClearAll(ctx); err != nil {
		return err
	}
	f.nav.Navigate(LoginRoute)
	return nil
}

// TakeFlash returns the error saved by the previous submission, once.
func (f *Form) TakeFlash() (Flash, bool) {
	fl, ok, err := f.flash.Take()
	if err != nil {
		f.logger.Warn("read flash", zap.Error(err))
		return Flash{}, false
	}
	return fl, ok
}

func (f *Form) fail(fe *FormError) error {
	if fe.Err != nil {
		f.logger.Warn("form submission failed", zap.Error(fe.Err))
	}
	if err := f.flash.Save(fe.Flash()); err != nil {
		f.logger.Warn("save flash", zap.Error(err))
	}
	return fe
}

func requireFields(values map[string]string) map[string]string {
	var missing map[string]string
	for field, v := range values {
		if v == "" {
			if missing == nil {
				missing = map[string]string{}
			}
			missing[field] = "This field is required."
		}
	}
	return missing
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
