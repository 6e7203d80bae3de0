package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"grocerycheck/application"
	"grocerycheck/domain/scenario"
	"grocerycheck/infrastructure/browser"
	"grocerycheck/infrastructure/config"
	"grocerycheck/infrastructure/logging"
	"grocerycheck/resources"
)

// Exit codes.
const (
	// ExitCodeSuccess: every scenario passed.
	ExitCodeSuccess = 0
	// ExitCodeError: the harness could not do its job (bad config, browser, a scenario error).
	ExitCodeError = 1
	// ExitCodeFailed: at least one scenario found the shop misbehaving.
	ExitCodeFailed = 4
)

// errScenariosFailed is returned by run when a scenario failed.
var errScenariosFailed = errors.New("scenarios failed")

// app carries what the commands share; tests swap the driver and clock.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string

	driverFactory func(cfg *config.Config) application.DriverFactory
	now           func() time.Time
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		driverFactory: func(cfg *config.Config) application.DriverFactory {
			dc := cfg.DriverConfig()
			return func() browser.Driver { return browser.NewChromeDPDriver(dc) }
		},
		now: time.Now,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "grocerycheck",
		Short: "Verify the GroceryMate shop in a real browser",
		Long: `grocerycheck drives Chrome through the GroceryMate shop and checks its
login, age verification, free-shipping threshold and review rules.

Credentials are read from GROCERYCHECK_EMAIL and GROCERYCHECK_PASSWORD
(or a .env file in the working directory).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetVersionTemplate(`{{printf "grocerycheck version %s\n" .Version}}`)
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file (defaults are built in)")

	root.AddCommand(
		newRunCmd(a),
		newScenariosCmd(a),
		newRunsCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

// execute runs the CLI and maps the outcome to an exit code.
func execute(a *app, args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.Execute()
	if err != nil && !errors.Is(err, errScenariosFailed) {
		fmt.Fprintln(a.stderr, "Error:", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.Is(err, errScenariosFailed):
		return ExitCodeFailed
	default:
		return ExitCodeError
	}
}

// loadConfig reads the config file named by --config.
func (a *app) loadConfig() (*config.Config, error) {
	return config.Load(a.configPath)
}

// setupLogging starts logging to stderr as configured.
func (a *app) setupLogging(cfg *config.Config) (*slog.Logger, func() error, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Format = cfg.Logging.Format
	lc.Dir = cfg.Logging.Dir
	lc.Output = a.stderr
	return logging.Setup(lc)
}

// loadSuites returns the embedded suites plus the one in file, if set.
func loadSuites(file string) (*scenario.Registry, error) {
	reg := scenario.NewRegistry()
	loader := scenario.NewLoader(reg)
	if err := loader.LoadFromFS(resources.ScenarioFiles, resources.ScenarioDir); err != nil {
		return nil, err
	}
	if file != "" {
		if err := loader.LoadPath(file); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
