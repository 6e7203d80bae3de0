package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"grocerycheck/presentation"
)

func newScenariosCmd(a *app) *cobra.Command {
	var suiteFile string
	cmd := &cobra.Command{
		Use:     "scenarios [suite...]",
		Aliases: []string{"ls"},
		Short:   "List the scenarios of the known suites",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := loadSuites(suiteFile)
			if err != nil {
				return err
			}
			names := args
			if len(names) == 0 {
				names = registry.List()
			}
			printer := presentation.NewPrinter(a.stdout, false)
			for _, name := range names {
				suite := registry.Get(name)
				if suite == nil {
					return fmt.Errorf("unknown suite %q (available: %v)", name, registry.List())
				}
				printer.Scenarios(suite)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&suiteFile, "suite-file", "", "YAML file with an extra suite")
	return cmd
}
