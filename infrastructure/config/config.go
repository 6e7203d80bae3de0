// Package config loads harness configuration: built-in defaults, an optional
// YAML file, a .env file and GROCERYCHECK_* environment overrides, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"grocerycheck/domain/account"
	"grocerycheck/domain/shipping"
	"grocerycheck/infrastructure/browser"
)

// Environment variables that override file values.
const (
	EnvEmail       = "GROCERYCHECK_EMAIL"
	EnvPassword    = "GROCERYCHECK_PASSWORD"
	EnvBaseURL     = "GROCERYCHECK_BASE_URL"
	EnvMongoURI    = "GROCERYCHECK_MONGO_URI"
	EnvPushgateway = "GROCERYCHECK_PUSHGATEWAY"
	EnvChromePath  = "GROCERYCHECK_CHROME_PATH"
)

// Config is the complete harness configuration.
type Config struct {
	BaseURL  string         `yaml:"baseURL"`
	Email    string         `yaml:"email"`
	Password string         `yaml:"password"`
	Timeouts Timeouts       `yaml:"timeouts"`
	Browser  BrowserConfig  `yaml:"browser"`
	Products Products       `yaml:"products"`
	Shipping ShippingConfig `yaml:"shipping"`
	Reviewer string         `yaml:"reviewer"`
	Checkout Checkout       `yaml:"checkout"`
	Run      RunConfig      `yaml:"run"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Timeouts bound the waits of pages and scenarios.
type Timeouts struct {
	// Default bounds an ordinary element wait
	Default time.Duration `yaml:"default"`
	// Short bounds probes for optional elements (age prompt, toasts)
	Short time.Duration `yaml:"short"`
	// Long bounds slow transitions (checkout, login redirect)
	Long time.Duration `yaml:"long"`
	// Scenario bounds a whole scenario unless it sets its own timeout
	Scenario time.Duration `yaml:"scenario"`
}

// BrowserConfig selects how Chrome is launched.
type BrowserConfig struct {
	Headless     bool   `yaml:"headless"`
	WindowWidth  int    `yaml:"windowWidth"`
	WindowHeight int    `yaml:"windowHeight"`
	NoSandbox    bool   `yaml:"noSandbox"`
	ExecPath     string `yaml:"execPath"`
}

// Products names the shop products each workflow uses, by image alt text.
type Products struct {
	Rating   string `yaml:"rating"`
	Shipping string `yaml:"shipping"`
}

// ShippingConfig describes the expected free-shipping rule.
type ShippingConfig struct {
	Threshold float64 `yaml:"threshold"`
	FlatFee   float64 `yaml:"flatFee"`
	// MaxUnits caps how many units the threshold workflow adds
	MaxUnits int `yaml:"maxUnits"`
}

// Checkout is the address and card used for purchases.
type Checkout struct {
	Street     string `yaml:"street"`
	City       string `yaml:"city"`
	PostalCode string `yaml:"postalCode"`
	CardNumber string `yaml:"cardNumber"`
	NameOnCard string `yaml:"nameOnCard"`
	Expiry     string `yaml:"expiry"`
	CVC        string `yaml:"cvc"`
}

// RunConfig holds orchestration settings.
type RunConfig struct {
	Suite        string `yaml:"suite"`
	Parallel     int    `yaml:"parallel"`
	ArtifactsDir string `yaml:"artifactsDir"`
}

// MongoConfig enables run report persistence when URI is set.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// MetricsConfig enables pushing run metrics when PushgatewayURL is set.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgatewayURL"`
	Job            string `yaml:"job"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
}

// Default returns the built-in configuration. Credentials are left empty.
func Default() *Config {
	return &Config{
		BaseURL: "https://grocerymate.masterschool.com",
		Timeouts: Timeouts{
			Default:  10 * time.Second,
			Short:    3 * time.Second,
			Long:     20 * time.Second,
			Scenario: 2 * time.Minute,
		},
		Browser: BrowserConfig{
			Headless:     true,
			WindowWidth:  1366,
			WindowHeight: 900,
			NoSandbox:    true,
		},
		Products: Products{
			Rating:   "Ginger",
			Shipping: "Ginger",
		},
		Shipping: ShippingConfig{
			Threshold: 30,
			FlatFee:   8,
			MaxUnits:  40,
		},
		Reviewer: "AutoTestG",
		Checkout: Checkout{
			Street:     "Test str. 1",
			City:       "Test",
			PostalCode: "12323",
			CardNumber: "1111111111111111",
			NameOnCard: "Maria Lazar",
			Expiry:     "12/2032",
			CVC:        "123",
		},
		Run: RunConfig{
			Suite:        "grocerymate",
			Parallel:     1,
			ArtifactsDir: "artifacts",
		},
		Mongo: MongoConfig{
			Database:   "grocerycheck",
			Collection: "runs",
		},
		Metrics: MetricsConfig{
			Job: "grocerycheck",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Options controls where Load looks for values.
type Options struct {
	// Path is an optional YAML file
	Path string
	// EnvFiles are dotenv files loaded into the process environment if present.
	// Variables already set win.
	EnvFiles []string
	// LookupEnv reads the environment; defaults to os.LookupEnv
	LookupEnv func(string) (string, bool)
}

// Load builds a Config from defaults, the YAML file at path (if any), ./.env
// and the environment. It does not require credentials; call Validate before a run.
func Load(path string) (*Config, error) {
	return LoadWith(Options{Path: path, EnvFiles: []string{".env"}})
}

// LoadWith is Load with explicit sources.
func LoadWith(opts Options) (*Config, error) {
	cfg := Default()

	if opts.Path != "" {
		data, err := os.ReadFile(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", opts.Path, err)
		}
		if err := Decode(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", opts.Path, err)
		}
	}

	for _, f := range opts.EnvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	applyEnv(cfg, lookup)

	return cfg, nil
}

// Decode overlays YAML data onto cfg. Unknown keys are errors.
func Decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvEmail, &cfg.Email)
	set(EnvPassword, &cfg.Password)
	set(EnvBaseURL, &cfg.BaseURL)
	set(EnvMongoURI, &cfg.Mongo.URI)
	set(EnvPushgateway, &cfg.Metrics.PushgatewayURL)
	set(EnvChromePath, &cfg.Browser.ExecPath)
}

// Validate checks everything a run depends on.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("baseURL %q must be an absolute http(s) URL", c.BaseURL))
	}
	if err := c.Credentials().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("credentials: %w (set %s and %s)", err, EnvEmail, EnvPassword))
	}
	if c.Timeouts.Default <= 0 || c.Timeouts.Short <= 0 || c.Timeouts.Long <= 0 || c.Timeouts.Scenario <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if err := c.ShippingPolicy().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Shipping.MaxUnits <= 0 {
		errs = append(errs, errors.New("shipping.maxUnits must be positive"))
	}
	if c.Products.Rating == "" || c.Products.Shipping == "" {
		errs = append(errs, errors.New("products.rating and products.shipping are required"))
	}
	if c.Reviewer == "" {
		errs = append(errs, errors.New("reviewer is required"))
	}
	if c.Run.Parallel < 1 {
		errs = append(errs, fmt.Errorf("run.parallel must be at least 1, got %d", c.Run.Parallel))
	}

	return errors.Join(errs...)
}

// Credentials returns the login details.
func (c *Config) Credentials() account.Credentials {
	return account.Credentials{Email: c.Email, Password: c.Password}
}

// CheckoutProfile returns the purchase details.
func (c *Config) CheckoutProfile() account.CheckoutProfile {
	return account.CheckoutProfile{
		Street:     c.Checkout.Street,
		City:       c.Checkout.City,
		PostalCode: c.Checkout.PostalCode,
		CardNumber: c.Checkout.CardNumber,
		NameOnCard: c.Checkout.NameOnCard,
		Expiry:     c.Checkout.Expiry,
		CVC:        c.Checkout.CVC,
	}
}

// ShippingPolicy returns the expected shipping rule in euros.
func (c *Config) ShippingPolicy() shipping.Policy {
	return shipping.Policy{
		Threshold: shipping.Euros(c.Shipping.Threshold),
		FlatFee:   shipping.Euros(c.Shipping.FlatFee),
	}
}

// DriverConfig returns the browser launch settings.
func (c *Config) DriverConfig() *browser.DriverConfig {
	dc := browser.DefaultDriverConfig()
	dc.Headless = c.Browser.Headless
	dc.NoSandbox = c.Browser.NoSandbox
	dc.ExecPath = c.Browser.ExecPath
	if c.Browser.WindowWidth > 0 {
		dc.WindowWidth = c.Browser.WindowWidth
	}
	if c.Browser.WindowHeight > 0 {
		dc.WindowHeight = c.Browser.WindowHeight
	}
	if c.Timeouts.Long > 0 {
		dc.CommandTimeout = c.Timeouts.Long
	}
	return dc
}

// URL joins p onto the base URL.
func (c *Config) URL(p string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(p, "/")
}

