// Package workflow composes page operations into the verification flows:
// login, age gate, shipping threshold, purchase and the review lifecycle.
// Every flow returns nil when the shop behaved as expected and a fault error
// describing the deviation otherwise.
package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"grocerycheck/application/pages"
	"grocerycheck/domain/account"
	"grocerycheck/domain/scenario"
	"grocerycheck/domain/shipping"
	"grocerycheck/infrastructure/browser"
)

// DefaultMaxUnits bounds the threshold workflow when Env leaves it unset.
const DefaultMaxUnits = 40

// Harness is the part of a session workflows run against.
type Harness interface {
	Driver() browser.Driver
	Step(ctx context.Context, name string, fn func(ctx context.Context) error) error
	Defer(name string, fn func(ctx context.Context) error)
}

// Env is the test data the workflows use. None of it is hard-coded.
type Env struct {
	Site        pages.Site
	Credentials account.Credentials
	Checkout    account.CheckoutProfile
	// Reviewer is the display name the shop shows on the user's reviews.
	Reviewer string
	Policy   shipping.Policy
	MaxUnits int

	RatingProduct   string
	ShippingProduct string

	Now func() time.Time
}

// Workflow runs verification flows in one session.
type Workflow struct {
	h   Harness
	env Env

	login   *pages.LoginPage
	shop    *pages.ShopPage
	cart    *pages.CartPage
	product *pages.ProductPage

	// admitted is set once the shop admitted this session with a verdict.
	admitted atomic.Bool

	mu           sync.Mutex
	observations map[string]string
}

// New binds the flows to a harness.
func New(h Harness, env Env) *Workflow {
	if env.Now == nil {
		env.Now = time.Now
	}
	if env.MaxUnits <= 0 {
		env.MaxUnits = DefaultMaxUnits
	}
	d := h.Driver()
	return &Workflow{
		h:            h,
		env:          env,
		login:        pages.NewLoginPage(d, env.Site),
		shop:         pages.NewShopPage(d, env.Site),
		cart:         pages.NewCartPage(d, env.Site),
		product:      pages.NewProductPage(d, env.Site),
		observations: make(map[string]string),
	}
}

// observe records a value seen on the page for the run report.
func (w *Workflow) observe(key string, value any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observations[key] = fmt.Sprint(value)
}

// Observations returns a copy of the values recorded so far.
func (w *Workflow) Observations() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]string, len(w.observations))
	for k, v := range w.observations {
		out[k] = v
	}
	return out
}

// ObservationSummary renders observations as sorted key=value pairs.
func ObservationSummary(obs map[string]string) string {
	keys := make([]string, 0, len(obs))
	for k := range obs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + obs[k]
	}
	return strings.Join(parts, " ")
}

// Execute runs the flow selected by sc.Kind. Login is not performed here
// for kinds that need it; the caller logs in first (see Login).
func (w *Workflow) Execute(ctx context.Context, sc *scenario.Scenario) error {
	switch sc.Kind {
	case scenario.KindLogin:
		return w.Login(ctx)
	case scenario.KindLoginRejected:
		return w.LoginRejected(ctx, sc.Password)
	case scenario.KindAgeGate:
		now := w.env.Now()
		date := sc.ResolveBirthDate(now)
		_, err := w.AgeGate(ctx, date, sc.ExpectedOutcome(date, now))
		return err
	case scenario.KindShippingThreshold:
		return w.ShippingThreshold(ctx, w.productFor(sc, w.env.ShippingProduct))
	case scenario.KindReviewLifecycle:
		return w.ReviewLifecycle(ctx, w.productFor(sc, w.env.RatingProduct), sc.Stars, sc.Comment)
	case scenario.KindReviewMissingRating:
		return w.MissingRating(ctx, w.productFor(sc, w.env.RatingProduct), sc.Comment)
	case scenario.KindRating:
		return w.Rating(ctx, w.productFor(sc, w.env.RatingProduct), sc.StarValues(), sc.Comment)
	default:
		return fmt.Errorf("scenario %s: unknown kind %q", sc.Name, sc.Kind)
	}
}

func (w *Workflow) productFor(sc *scenario.Scenario, fallback string) string {
	if sc.Product != "" {
		return sc.Product
	}
	return fallback
}
