package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"MomentumScan/internal/di"
	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/repository"
	"MomentumScan/internal/services/scoring"
)

func scanCmd(configPath *string) *cobra.Command {
	var (
		market string
		period string
		top    int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Screen one market once and print the ranking",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			if period == "" {
				period = cfg.Screener.DefaultPeriod
			}
			if !repository.IsValidPeriod(repository.Period(period)) {
				return fmt.Errorf("unsupported period %q", period)
			}
			if top <= 0 {
				top = cfg.Screener.DefaultTop
			}

			uc, cleanup, err := di.InitializeScreen(cfg)
			if err != nil {
				return fmt.Errorf("screen initialization failed: %w", err)
			}
			defer cleanup()

			report, err := uc.Run(cmd.Context(), market, repository.Period(period))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report.Top(top).WithoutSeries())
			}
			return printReport(out, report, top)
		},
	}
	cmd.Flags().StringVar(&market, "market", "kospi", "market or sector tag")
	cmd.Flags().StringVar(&period, "period", "", "display period (1mo, 3mo, 6mo, 1y, 2y, 3y, 5y, max)")
	cmd.Flags().IntVar(&top, "top", 0, "number of ranked rows to print")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func printReport(w io.Writer, r *models.ScreenReport, top int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSYMBOL\tNAME\tPRICE\tSCORE\tBADGE\tCROSS\tABOVE\tSUPPORT\tSTABLE")
	for _, rr := range r.Top(top).Ranked {
		cross := "-"
		if rr.Signals.GoldenCrossDate != nil {
			cross = rr.Signals.GoldenCrossDate.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%d\t%s\t%s\t%s\t%d\t%s\n",
			rr.Rank, rr.Symbol, rr.Name, rr.Price, rr.Score, scoring.Badge(rr.Score),
			cross, mark(rr.Signals.AboveShortMAs), rr.Signals.SupportCount, mark(rr.Signals.TrendStable))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s %s: total=%d succeeded=%d failed=%d sentiment=%.0f (%s) took=%s\n",
		r.Market, r.Period, r.Total, r.Succeeded, r.Failed, r.Sentiment.Value, r.Sentiment.Label,
		r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	return err
}

func mark(b bool) string {
	if b {
		return "Y"
	}
	return "-"
}
