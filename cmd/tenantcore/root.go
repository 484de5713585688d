package main

import (
	"github.com/spf13/cobra"

	"github.com/aquafarm-pro/tenantcore/app"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tenantcore",
		Short:         "Multi-tenant admission control and cost accounting service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file path")

	root.AddCommand(newServeCmd())
	root.AddCommand(newSamplerCmd())
	root.AddCommand(newSnapshotCmd())
	root.AddCommand(newBreakdownCmd())
	return root
}

// buildApp loads configuration and assembles the container
func buildApp() (*app.App, error) {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}
