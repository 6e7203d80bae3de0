package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"grocerycheck/resources"
)

const masked = "********"

func newConfigCmd(a *app) *cobra.Command {
	var showDefault bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration a run would use, after the config file, .env and
environment are applied. Secrets are masked. With --default, print the
built-in configuration file as a starting point.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showDefault {
				_, err := a.stdout.Write(resources.DefaultConfig)
				return err
			}

			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Password != "" {
				cfg.Password = masked
			}
			if cfg.Mongo.URI != "" {
				cfg.Mongo.URI = redact(cfg.Mongo.URI)
			}
			cfg.Checkout.CardNumber = masked
			cfg.Checkout.CVC = masked

			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			_, err = a.stdout.Write(out)
			return err
		},
	}
	cmd.Flags().BoolVar(&showDefault, "default", false, "print the built-in config file")
	return cmd
}

func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return masked
	}
	return u.Redacted()
}
