package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <tenant-id>",
		Short: "Print a tenant's current rate limit usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer func() { _ = application.Close() }()

			engine, err := application.Engine()
			if err != nil {
				return err
			}

			snapshot, err := engine.Snapshot(context.Background(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, snapshot)
		},
	}
}

func newBreakdownCmd() *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "breakdown <tenant-id>",
		Short: "Print a tenant's cost breakdown over the trailing period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer func() { _ = application.Close() }()

			aggregator, err := application.Aggregator()
			if err != nil {
				return err
			}

			end := time.Now().UTC()
			start := end.Add(-time.Duration(hours) * time.Hour)
			breakdown, err := aggregator.Breakdown(context.Background(), args[0], start, end)
			if err != nil {
				return err
			}
			return printJSON(cmd, breakdown)
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 24, "trailing period in hours")
	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
