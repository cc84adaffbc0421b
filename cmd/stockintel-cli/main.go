package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stockintel/internal/config"
	"stockintel/pkg/stockintel"
)

const version = "0.1.0"

// app carries the global flags and the client built from them.
type app struct {
	api     string
	timeout time.Duration
	client  *stockintel.Client
}

// newRootCmd builds the command tree. defaultAPI and defaultTimeout seed the
// persistent --api and --timeout flags.
func newRootCmd(defaultAPI string, defaultTimeout time.Duration) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "stockintel-cli",
		Short: "Query a stockintel-server",
		Long: `stockintel-cli queries the Stock Intelligence API for the NSE universe:
the company roster, daily closes, 52-week summaries, top movers,
volatility scores and head-to-head comparisons.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.client = stockintel.NewClient(a.api, stockintel.WithTimeout(a.timeout))
		},
	}
	root.PersistentFlags().StringVar(&a.api, "api", defaultAPI, "API base URL")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", defaultTimeout, "per-request timeout")

	root.AddCommand(
		versionCmd(),
		a.statusCmd(),
		a.companiesCmd(),
		a.seriesCmd(),
		a.summaryCmd(),
		a.moversCmd("gainers", "Top gainers by average daily return"),
		a.moversCmd("losers", "Top losers by average daily return"),
		a.volatilityCmd(),
		a.compareCmd(),
	)
	return root
}

// requestContext bounds one command's requests, leaving a second of slack
// over the client's own per-request timeout.
func (a *app) requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout+time.Second)
}

func main() {
	cfgPath := "config/stockintel.yaml"
	if p := os.Getenv("STOCKINTEL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(cfg.Client.BaseURL, cfg.Client.Timeout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
