package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"grocerycheck/application"
	"grocerycheck/application/report"
	"grocerycheck/core/event"
	"grocerycheck/core/eventbus"
	"grocerycheck/domain/run"
	"grocerycheck/infrastructure/config"
	"grocerycheck/infrastructure/metrics"
	"grocerycheck/infrastructure/repository"
	"grocerycheck/presentation"
)

// publishTimeout bounds storing the report and pushing metrics.
const publishTimeout = 30 * time.Second

type runOptions struct {
	suite     string
	suiteFile string
	only      []string
	parallel  int
	headful   bool
	artifacts string
	color     bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario suite against the shop",
		Long: `Run every scenario of a suite, each in its own browser session, and
print a summary. Exit code 0 means every scenario passed, 4 that the shop
failed at least one check and 1 that the harness itself ran into an error.`,
		Example: `  grocerycheck run
  grocerycheck run --only smoke --parallel 2
  grocerycheck run --only shipping-threshold --headful`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.suite, "suite", "s", "", "suite to run (default from config)")
	f.StringVar(&opts.suiteFile, "suite-file", "", "YAML file with an extra suite")
	f.StringSliceVar(&opts.only, "only", nil, "run only scenarios with these names or tags")
	f.IntVarP(&opts.parallel, "parallel", "p", 0, "sessions to run at once (default from config)")
	f.BoolVar(&opts.headful, "headful", false, "show the browser window")
	f.StringVar(&opts.artifacts, "artifacts", "", "directory for failure screenshots (default from config)")
	f.BoolVar(&opts.color, "color", false, "color the summary table")
	return cmd
}

func (o *runOptions) apply(cfg *config.Config, flags interface{ Changed(string) bool }) {
	if o.suite != "" {
		cfg.Run.Suite = o.suite
	}
	if flags.Changed("parallel") {
		cfg.Run.Parallel = o.parallel
	}
	if o.headful {
		cfg.Browser.Headless = false
	}
	if o.artifacts != "" {
		cfg.Run.ArtifactsDir = o.artifacts
	}
}

func (a *app) run(ctx context.Context, cmd *cobra.Command, opts *runOptions) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	opts.apply(cfg, cmd.Flags())
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closeLog, err := a.setupLogging(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer closeLog()

	registry, err := loadSuites(opts.suiteFile)
	if err != nil {
		return err
	}
	suite := registry.Get(cfg.Run.Suite)
	if suite == nil {
		return fmt.Errorf("unknown suite %q (available: %v)", cfg.Run.Suite, registry.List())
	}
	scenarios, err := suite.Select(opts.only)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := eventbus.New(1024)
	recorder := metrics.New()
	report.New(logger, recorder).Attach(bus)

	coordinator := application.NewCoordinator(&application.CoordinatorConfig{
		EventBus:        bus,
		DriverFactory:   a.driverFactory(cfg),
		Env:             application.EnvFromConfig(cfg, a.now),
		Logger:          logger,
		Parallel:        cfg.Run.Parallel,
		ScenarioTimeout: cfg.Timeouts.Scenario,
		ArtifactsDir:    cfg.Run.ArtifactsDir,
	})

	rep, err := coordinator.Run(ctx, suite.Name, scenarios)
	bus.Close()
	if err != nil {
		return err
	}

	recorder.RecordReport(rep)
	presentation.NewPrinter(a.stdout, opts.color).Report(rep)
	publish(cfg, rep, recorder, logger)

	switch c := rep.Counts(); {
	case c[event.StatusFailed] > 0:
		return errScenariosFailed
	case c[event.StatusError] > 0:
		return fmt.Errorf("%d of %d scenarios could not be completed", c[event.StatusError], len(rep.Results))
	}
	return nil
}

// publish stores the report and pushes metrics when configured. Failures
// are logged; they never change the run's verdict.
func publish(cfg *config.Config, rep *run.Report, recorder *metrics.Recorder, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if cfg.Mongo.URI != "" {
		if err := storeReport(ctx, cfg, rep, logger); err != nil {
			logger.Warn("Failed to store run report", "run_id", rep.ID, "error", err)
		}
	}
	if cfg.Metrics.PushgatewayURL != "" {
		if err := recorder.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
			logger.Warn("Failed to push metrics", "error", err)
		}
	}
}

func storeReport(ctx context.Context, cfg *config.Config, rep *run.Report, logger *slog.Logger) error {
	db, err := openMongo(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close(context.WithoutCancel(ctx))

	repo := repository.NewMongoRunRepository(db, cfg.Mongo.Collection, logger)
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Warn("Failed to ensure run indexes", "error", err)
	}
	return repo.Insert(ctx, rep)
}

func openMongo(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repository.MongoDB, error) {
	mc := repository.DefaultMongoDBConfig()
	mc.URI = cfg.Mongo.URI
	if cfg.Mongo.Database != "" {
		mc.Database = cfg.Mongo.Database
	}
	return repository.NewMongoDB(ctx, mc, logger)
}
