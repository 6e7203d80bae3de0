package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocerycheck/application/pages/pagestest"
	"grocerycheck/application/workflow"
	"grocerycheck/core/event"
	"grocerycheck/core/eventbus"
	"grocerycheck/core/fault"
	"grocerycheck/domain/account"
	"grocerycheck/domain/agegate"
	"grocerycheck/domain/scenario"
	"grocerycheck/domain/shipping"
	"grocerycheck/infrastructure/browser"
	"grocerycheck/infrastructure/config"
)

type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) handle(e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) names(filter ...string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		for _, f := range filter {
			if e.EventName() == f {
				out = append(out, f)
			}
		}
	}
	return out
}

func testEnv(shop *pagestest.Shop) workflow.Env {
	return workflow.Env{
		Site:        shop.Site(),
		Credentials: account.Credentials{Email: shop.Email, Password: shop.Password},
		Checkout: account.CheckoutProfile{
			Street: "Main St 1", City: "Berlin", PostalCode: "10115",
			CardNumber: "4111111111111111", NameOnCard: "Maria Test", Expiry: "12/2030", CVC: "123",
		},
		Reviewer:        shop.Reviewer,
		Policy:          shipping.Policy{Threshold: shipping.Euros(30), FlatFee: shipping.Euros(8)},
		RatingProduct:   "Ginger",
		ShippingProduct: "Ginger",
		Now:             func() time.Time { return shop.Now },
	}
}

// newCoordinator builds a coordinator whose sessions each get a fresh shop
// prepared by configure.
func newCoordinator(t *testing.T, parallel int, configure func(*pagestest.Shop)) (*Coordinator, eventbus.EventBus, *recorder) {
	t.Helper()
	bus := eventbus.New(1024)
	rec := &recorder{}
	bus.Subscribe(rec.handle)

	c := NewCoordinator(&CoordinatorConfig{
		EventBus: bus,
		DriverFactory: func() browser.Driver {
			shop := pagestest.New()
			if configure != nil {
				configure(shop)
			}
			return shop
		},
		Env:             testEnv(pagestest.New()),
		Parallel:        parallel,
		ScenarioTimeout: 20 * time.Second,
		ArtifactsDir:    t.TempDir(),
	})
	return c, bus, rec
}

func ageScenario(name string, years, offset int) *scenario.Scenario {
	return &scenario.Scenario{Name: name, Kind: scenario.KindAgeGate, Age: &scenario.AgeSpec{Years: years, DayOffset: offset}}
}

func TestNewCoordinator_Defaults(t *testing.T) {
	c := NewCoordinator(&CoordinatorConfig{})
	assert.Equal(t, 1, c.parallel)
	assert.Equal(t, DefaultScenarioTimeout, c.scenarioTimeout)
	assert.NotNil(t, c.env.Now)
	assert.NotNil(t, c.logger)
	assert.IsType(t, &browser.ChromeDPDriver{}, c.newDriver())
}

func TestCoordinator_RunPasses(t *testing.T) {
	c, bus, rec := newCoordinator(t, 1, nil)

	empty := ""
	scenarios := []*scenario.Scenario{
		ageScenario("age-exactly-18", 18, 0),
		ageScenario("age-one-day-under", 18, -1),
		{Name: "age-empty", Kind: scenario.KindAgeGate, BirthDate: &empty, Expect: agegate.ValidationError},
		{Name: "login-rejected", Kind: scenario.KindLoginRejected, Password: "wrong"},
	}
	report, err := c.Run(context.Background(), "grocerymate", scenarios)
	require.NoError(t, err)
	bus.Close()

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "grocerymate", report.Suite)
	require.Len(t, report.Results, 4)
	for i, res := range report.Results {
		assert.Equal(t, scenarios[i].Name, res.Scenario)
		assert.Equal(t, event.StatusPassed, res.Status, "%s: %s", res.Scenario, res.Error)
		assert.NotEmpty(t, res.SessionID)
		assert.Empty(t, res.Artifacts)
	}
	assert.True(t, report.Passed())

	under, _ := report.Result("age-one-day-under")
	assert.Equal(t, "rejected (You are underage)", under.Observations["age_gate"])
	rejected, _ := report.Result("login-rejected")
	assert.Equal(t, "rejected", rejected.Observations["login"])

	names := rec.names("RunStarted", "RunFinished")
	assert.Equal(t, []string{"RunStarted", "RunFinished"}, names)
	assert.Len(t, rec.names("ScenarioStarted"), 4)
	assert.Len(t, rec.names("ScenarioFinished"), 4)
}

func TestCoordinator_FailureIsReportedWithArtifacts(t *testing.T) {
	c, bus, rec := newCoordinator(t, 1, func(s *pagestest.Shop) { s.FlatFeeAlways = true })

	report, err := c.Run(context.Background(), "grocerymate", []*scenario.Scenario{
		{Name: "shipping-threshold", Kind: scenario.KindShippingThreshold},
	})
	require.NoError(t, err)
	bus.Close()

	res := report.Results[0]
	assert.Equal(t, event.StatusFailed, res.Status)
	assert.Contains(t, res.Error, "shipping fee")
	require.Len(t, res.Artifacts, 2)
	for _, p := range res.Artifacts {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
	assert.Equal(t, "6.50 €", res.Observations["unit_price"])
	assert.Len(t, rec.names("ArtifactSaved"), 2)
	assert.False(t, report.Passed())
}

type brokenDriver struct{ *pagestest.Shop }

func (brokenDriver) Start(context.Context) error { return errors.New("chrome not found") }

func TestCoordinator_HarnessErrorIsNotAFailure(t *testing.T) {
	bus := eventbus.New(64)
	defer bus.Close()
	shop := pagestest.New()
	c := NewCoordinator(&CoordinatorConfig{
		EventBus:      bus,
		DriverFactory: func() browser.Driver { return brokenDriver{pagestest.New()} },
		Env:           testEnv(shop),
	})

	report, err := c.Run(context.Background(), "grocerymate", []*scenario.Scenario{ageScenario("age-exactly-18", 18, 0)})
	require.NoError(t, err)
	res := report.Results[0]
	assert.Equal(t, event.StatusError, res.Status)
	assert.Contains(t, res.Error, "chrome not found")
	assert.Empty(t, res.Artifacts)
}

func TestCoordinator_Parallel(t *testing.T) {
	c, bus, _ := newCoordinator(t, 3, nil)
	defer bus.Close()

	var scenarios []*scenario.Scenario
	for i := 0; i < 6; i++ {
		scenarios = append(scenarios, ageScenario(fmt.Sprintf("adult-%d", i), 20+i, 0))
	}
	report, err := c.Run(context.Background(), "adults", scenarios)
	require.NoError(t, err)

	require.Len(t, report.Results, 6)
	seen := make(map[string]bool)
	for i, res := range report.Results {
		assert.Equal(t, fmt.Sprintf("adult-%d", i), res.Scenario)
		assert.Equal(t, event.StatusPassed, res.Status, res.Error)
		assert.False(t, seen[res.SessionID], "sessions are never shared")
		seen[res.SessionID] = true
	}
}

func TestCoordinator_CancelledRunSkips(t *testing.T) {
	c, bus, _ := newCoordinator(t, 1, nil)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := c.Run(ctx, "grocerymate", []*scenario.Scenario{ageScenario("age-exactly-18", 18, 0)})
	require.NoError(t, err)
	assert.Equal(t, event.StatusSkipped, report.Results[0].Status)
	assert.Equal(t, 1, report.Counts()[event.StatusSkipped])
	assert.True(t, report.Passed())
}

func TestCoordinator_RunWithoutScenarios(t *testing.T) {
	c := NewCoordinator(&CoordinatorConfig{})
	_, err := c.Run(context.Background(), "empty", nil)
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, event.StatusPassed, Classify(nil))
	assert.Equal(t, event.StatusFailed, Classify(fault.Assertf("fee", "0.00 €", "8.00 €")))
	assert.Equal(t, event.StatusFailed, Classify(fmt.Errorf("step: %w", &fault.WaitTimeoutError{Locator: "x", Err: context.DeadlineExceeded})))
	assert.Equal(t, event.StatusError, Classify(errors.New("chrome crashed")))
	assert.Equal(t, event.StatusError, Classify(context.DeadlineExceeded))
}

func TestEnvFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Email, cfg.Password = "maria@example.com", "s3cret!"
	now := func() time.Time { return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC) }

	env := EnvFromConfig(cfg, now)
	assert.Equal(t, cfg.BaseURL, env.Site.BaseURL)
	assert.Equal(t, 10*time.Second, env.Site.Timeouts.Wait)
	assert.Equal(t, 3*time.Second, env.Site.Timeouts.Probe)
	assert.Equal(t, 20*time.Second, env.Site.Timeouts.Slow)
	assert.Equal(t, "maria@example.com", env.Credentials.Email)
	assert.True(t, env.Policy.Threshold.Equal(shipping.Euros(30)))
	assert.True(t, env.Policy.FlatFee.Equal(shipping.Euros(8)))
	assert.Equal(t, 40, env.MaxUnits)
	assert.Equal(t, "Ginger", env.ShippingProduct)
	assert.Equal(t, now(), env.Now())
}
