package workflow

import (
	"context"
	"errors"

	"grocerycheck/application/pages"
	"grocerycheck/core/fault"
)

// Login signs in with the configured credentials.
func (w *Workflow) Login(ctx context.Context) error {
	return w.h.Step(ctx, "log in", func(ctx context.Context) error {
		if err := w.login.Login(ctx, w.env.Credentials); err != nil {
			return err
		}
		w.observe("login", "accepted")
		return nil
	})
}

// LoginRejected signs in with the configured email and a wrong password and
// checks that the shop refuses with its invalid-credentials message.
func (w *Workflow) LoginRejected(ctx context.Context, password string) error {
	return w.h.Step(ctx, "log in with wrong password", func(ctx context.Context) error {
		err := w.login.Login(ctx, w.env.Credentials.WithPassword(password))
		if err == nil {
			w.observe("login", "accepted")
			return fault.Assertf("login with a wrong password", "rejected", "accepted")
		}

		var rej *fault.RejectionError
		if !errors.As(err, &rej) || !errors.Is(err, fault.ErrValidationRejected) {
			return err
		}
		w.observe("login", "rejected")
		w.observe("login_message", rej.Message)
		if rej.Message != pages.MsgInvalidCredentials {
			return fault.Assertf("login error message", pages.MsgInvalidCredentials, rej.Message)
		}
		return nil
	})
}
