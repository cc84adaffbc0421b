package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stockintel/internal/dashboard"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stockintel-cli %s\n", version)
		},
	}
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show stockintel-server status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()
			h, err := a.client.Ping(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (version %s) at %s\n", h.Message, h.Version, a.client.BaseURL())
			return nil
		},
	}
}

func (a *app) companiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "companies",
		Short: "List available companies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()
			companies, err := a.client.Companies(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SYMBOL\tNAME\tSECTOR")
			for _, co := range companies {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", co.Symbol, co.Name, co.Sector)
			}
			return tw.Flush()
		},
	}
}

func (a *app) seriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "series SYMBOL [DAYS]",
		Short: "Print daily closes",
		Long:  fmt.Sprintf("Print daily closes for SYMBOL, oldest first, over the last DAYS days (default %d).", dashboard.DefaultDays),
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := intArg(args, 1, dashboard.DefaultDays)
			if err != nil {
				return err
			}
			ctx, cancel := a.requestContext(cmd)
			defer cancel()
			points, err := a.client.Series(ctx, args[0], days)
			if err != nil {
				return err
			}
			dates, prices := dashboard.PrepareSeries(points)
			if len(dates) == 0 {
				return fmt.Errorf("no data available for %s", args[0])
			}
			out := cmd.OutOrStdout()
			for i := range dates {
				fmt.Fprintf(out, "%s  %10.2f\n", dates[i], prices[i])
			}
			return nil
		},
	}
}

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary SYMBOL",
		Short: "Show the 52-week summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()
			s, err := a.client.Summary(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s as of %s\n", s.Symbol, s.CurrentDate)
			fmt.Fprintf(out, "  price      %s\n", dashboard.FormatPrice(s.CurrentPrice))
			fmt.Fprintf(out, "  52w high   %.2f\n", s.Week52High)
			fmt.Fprintf(out, "  52w low    %.2f\n", s.Week52Low)
			fmt.Fprintf(out, "  avg close  %.2f\n", s.AvgClose)
			fmt.Fprintf(out, "  avg volume %s\n", dashboard.FormatInt(s.AvgVolume))
			fmt.Fprintf(out, "  days       %d\n", s.TradingDays)
			return nil
		},
	}
}

// moversCmd builds the gainers or losers command; name selects which.
func (a *app) moversCmd(name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " [N]",
		Short: short,
		Long:  fmt.Sprintf("%s. N defaults to %d.", short, dashboard.DefaultInsightsLimit),
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := intArg(args, 0, dashboard.DefaultInsightsLimit)
			if err != nil {
				return err
			}
			fetch, format := a.client.Gainers, dashboard.FormatGainerReturn
			if name == "losers" {
				fetch, format = a.client.Losers, dashboard.FormatLoserReturn
			}
			ctx, cancel := a.requestContext(cmd)
			defer cancel()
			entries, err := fetch(ctx, limit)
			if err != nil {
				return err
			}
			for i, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %-12s %s\n", i+1, e.Symbol, format(e.AvgReturn))
			}
			return nil
		},
	}
}

func (a *app) volatilityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "volatility SYMBOL",
		Short: "Show the volatility score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()
			v, err := a.client.Volatility(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, mean return %.2f%% over %d days\n",
				v.Symbol, dashboard.FormatVolatility(v), v.MeanReturn, v.DataPoints)
			return nil
		},
	}
}

func (a *app) compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare SYMBOL1 SYMBOL2",
		Short: "Compare two symbols",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()
			cmp, err := a.client.Compare(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SYMBOL\tPRICE\t52W HIGH\t52W LOW\tAVG CLOSE")
			for _, sym := range args {
				s := cmp.Comparison[sym]
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%.2f\n",
					sym, dashboard.FormatPrice(s.CurrentPrice), s.Week52High, s.Week52Low, s.AvgClose)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			in := cmp.Insights
			fmt.Fprintf(out, "better performer: %s (%.2f%% vs %.2f%%, diff %.2f)\n",
				in.BetterPerformer, in.Symbol1Performance, in.Symbol2Performance, in.PerformanceDifference)
			return nil
		},
	}
}

// intArg parses args[i] as a positive integer, or returns def when absent.
func intArg(args []string, i, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%q is not a positive integer", args[i])
	}
	return n, nil
}
