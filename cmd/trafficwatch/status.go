package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	domusage "github.com/kailas-cloud/trafficwatch/internal/domain/usage"
	usageuc "github.com/kailas-cloud/trafficwatch/internal/usecase/usage"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current period usage from the configured store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			store, closeStore, err := openStore(ctx, &cfg, true, zap.NewNop())
			if err != nil {
				return err
			}
			defer closeStore()

			report, err := usageuc.New(store, usageuc.Config{
				QuotaGB:    cfg.Quota.MonthlyGB,
				ResetDay:   cfg.Quota.ResetDay,
				Thresholds: cfg.Quota.Thresholds,
			}, nil).GetReport(ctx)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), &report)
		},
	}
}

func printReport(out io.Writer, r *domusage.Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PERIOD\t%s\n", r.Period())
	fmt.Fprintf(w, "USED\t%.2f GB\n", r.UsedGB())
	fmt.Fprintf(w, "QUOTA\t%g GB\n", r.QuotaGB())
	fmt.Fprintf(w, "REMAINING\t%.2f GB\n", r.RemainingGB())
	fmt.Fprintf(w, "USAGE\t%.1f%%\n", r.Percent())
	lastReport := "-"
	if !r.LastReport().IsZero() {
		lastReport = string(r.LastReport())
	}
	fmt.Fprintf(w, "LAST REPORT\t%s\n", lastReport)
	fmt.Fprintf(w, "NEXT RESET\t%s\n", r.NextReset())
	for _, ts := range r.Thresholds() {
		state := "pending"
		if ts.Sent {
			state = "notified"
		}
		fmt.Fprintf(w, "THRESHOLD %s%%\t%s\n", ts.Threshold.Label(), state)
	}
	return w.Flush()
}
