package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aquafarm-pro/tenantcore/usage"
)

func newServeCmd() *cobra.Command {
	var withSampler bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service, optionally with the usage sampler",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer func() { _ = application.Close() }()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if withSampler {
				runner, err := application.NewRunner(
					usage.StaticTenantLister(application.Config().Tenants))
				if err != nil {
					return err
				}
				if err := runner.Start(ctx); err != nil {
					return err
				}
				defer func() { _ = runner.Stop() }()
			}

			return application.Serve(ctx)
		},
	}
	cmd.Flags().BoolVar(&withSampler, "with-sampler", false, "run the periodic usage sampler in-process")
	return cmd
}

func newSamplerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sampler",
		Short: "Run only the periodic usage sampler",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer func() { _ = application.Close() }()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runner, err := application.NewRunner(
				usage.StaticTenantLister(application.Config().Tenants))
			if err != nil {
				return err
			}
			if err := runner.Start(ctx); err != nil {
				return err
			}
			defer func() { _ = runner.Stop() }()

			<-ctx.Done()
			return nil
		},
	}
}
