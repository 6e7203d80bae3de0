package pages

import (
	"context"
	"fmt"
	"strings"

	"grocerycheck/core/fault"
	"grocerycheck/domain/account"
	"grocerycheck/infrastructure/browser"
)

// LoginPath is the sign-in route.
const LoginPath = "/auth"

// MsgInvalidCredentials is shown for a wrong email or password.
const MsgInvalidCredentials = "Invalid email or password"

// LoginPage drives the sign-in form.
type LoginPage struct {
	page
}

// NewLoginPage returns the sign-in page object.
func NewLoginPage(d browser.Driver, site Site) *LoginPage {
	return &LoginPage{page: newPage(d, site)}
}

// Open navigates to the sign-in form and waits for it.
func (p *LoginPage) Open(ctx context.Context) error {
	if err := p.open(ctx, LoginPath); err != nil {
		return err
	}
	return p.waitVisible(ctx, LoginEmail, p.site.Timeouts.Wait)
}

// Submit fills and submits the form without waiting for the outcome.
func (p *LoginPage) Submit(ctx context.Context, creds account.Credentials) error {
	if err := p.typeInto(ctx, LoginEmail, creds.Email); err != nil {
		return err
	}
	if err := p.typeInto(ctx, LoginPassword, creds.Password); err != nil {
		return err
	}
	return p.click(ctx, LoginSubmit)
}

// AwaitOutcome waits until the form is either accepted or refused. A refusal
// is returned as a fault.ErrValidationRejected carrying the shown message.
func (p *LoginPage) AwaitOutcome(ctx context.Context) error {
	var refused string
	err := p.poll(ctx, "login outcome", p.site.Timeouts.Slow, func(ctx context.Context) (bool, error) {
		msg, err := p.firstText(ctx, LoginError)
		if err != nil {
			return false, err
		}
		if msg != "" {
			refused = msg
			return true, nil
		}
		return p.signedIn(ctx)
	})
	if err != nil {
		return err
	}
	if refused != "" {
		return fault.Rejected(fault.ErrValidationRejected, refused)
	}
	return nil
}

// signedIn requires both the store link and a route other than the form.
func (p *LoginPage) signedIn(ctx context.Context) (bool, error) {
	ok, err := p.d.Exists(ctx, StoreLink)
	if err != nil || !ok {
		return false, err
	}
	path, err := p.path(ctx)
	if err != nil {
		return false, err
	}
	return !strings.HasPrefix(path, LoginPath), nil
}

// Login opens the form, signs in and waits until the session is established.
func (p *LoginPage) Login(ctx context.Context, creds account.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	if err := p.Open(ctx); err != nil {
		return err
	}
	if err := p.Submit(ctx, creds); err != nil {
		return err
	}
	if err := p.AwaitOutcome(ctx); err != nil {
		return fmt.Errorf("login as %s: %w", creds.Identity(), err)
	}
	return nil
}
