package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"stockintel/internal/analytics"
	"stockintel/internal/config"
	"stockintel/internal/domain"
	"stockintel/internal/store"
	"stockintel/internal/util"
)

// Defaults for Options left zero.
const (
	DefaultLookbackDays = 365
	DefaultMaxWorkers   = 4
	DefaultAttempts     = 3
	DefaultRetryDelay   = time.Second
)

// Options tunes a Collector.
type Options struct {
	LookbackDays int
	MaxWorkers   int
	// RatePerMin caps fetches per minute; zero disables the limit.
	RatePerMin int
	Attempts   int
	RetryDelay time.Duration
	Calendar   *util.TradingCalendar
	Logger     *slog.Logger

	// AfterRun is called once a run has written at least one bar, e.g. to
	// invalidate cached responses.
	AfterRun func(ctx context.Context) error
}

// Result reports one collection run.
type Result struct {
	Symbols int
	Bars    int
	Failed  []string
	Elapsed time.Duration
}

// Collector fetches the universe's daily bars, derives per-bar metrics and
// writes them to every configured bar store.
type Collector struct {
	fetcher   Fetcher
	companies store.CompanyStore
	stores    []store.BarStore
	universe  []config.Listing
	opts      Options
	limiter   *util.RateLimiter
	log       *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	running bool
}

// New creates a Collector. companies receives the roster; every store in
// stores receives the bars.
func New(fetcher Fetcher, companies store.CompanyStore, stores []store.BarStore, universe []config.Listing, opts Options) *Collector {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = DefaultLookbackDays
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = DefaultMaxWorkers
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Calendar == nil {
		opts.Calendar = util.NSECalendar()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Collector{
		fetcher:   fetcher,
		companies: companies,
		stores:    stores,
		universe:  universe,
		opts:      opts,
		log:       logger.With("component", "collector", "source", fetcher.Name()),
		now:       time.Now,
	}
	if opts.RatePerMin > 0 {
		c.limiter = util.NewRateLimiter(opts.RatePerMin, opts.MaxWorkers)
	}
	return c
}

// ErrRunning is returned by Run while another run is in progress.
var ErrRunning = errors.New("collection already running")

// Run performs one collection over the whole universe. A failing symbol is
// logged and reported in Result.Failed without aborting the others.
func (c *Collector) Run(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil, ErrRunning
	}
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	runStart := time.Now()
	companies := make([]domain.Company, 0, len(c.universe))
	for _, l := range c.universe {
		companies = append(companies, domain.Company{Symbol: l.Symbol, Name: l.Name, Sector: l.Sector})
	}
	if err := c.companies.UpsertCompanies(ctx, companies); err != nil {
		return nil, fmt.Errorf("upserting companies: %w", err)
	}

	last := c.opts.Calendar.LatestFinishedTradingDay(c.now())
	end := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -c.opts.LookbackDays)

	c.log.Info("collection starting",
		"symbols", len(c.universe),
		"start", start.Format(store.DateLayout),
		"end", last.Format(store.DateLayout),
	)

	var (
		mu  sync.Mutex
		res = &Result{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.MaxWorkers)
	for _, l := range c.universe {
		g.Go(func() error {
			n, err := c.collectOne(gctx, l, start, end)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.log.Error("symbol failed", "symbol", l.Symbol, "ticker", l.Ticker, "err", err)
				res.Failed = append(res.Failed, l.Symbol)
				return nil
			}
			res.Symbols++
			res.Bars += n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.Elapsed = time.Since(runStart)

	if res.Bars > 0 && c.opts.AfterRun != nil {
		if err := c.opts.AfterRun(ctx); err != nil {
			c.log.Warn("after-run hook failed", "err", err)
		}
	}

	c.log.Info("collection complete",
		"symbols", res.Symbols,
		"bars", res.Bars,
		"failed", len(res.Failed),
		"elapsed", res.Elapsed.Round(time.Millisecond),
	)
	return res, nil
}

func (c *Collector) collectOne(ctx context.Context, l config.Listing, start, end time.Time) (int, error) {
	var bars []domain.Bar
	err := util.Retry(ctx, c.opts.Attempts, c.opts.RetryDelay, func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		var err error
		bars, err = c.fetcher.FetchDailyBars(ctx, l.Ticker, start, end)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("fetching %s: %w", l.Ticker, err)
	}
	if len(bars) == 0 {
		c.log.Warn("no bars returned", "symbol", l.Symbol, "ticker", l.Ticker)
		return 0, nil
	}

	for i := range bars {
		bars[i].Symbol = l.Symbol
	}
	analytics.Derive(bars)

	for _, s := range c.stores {
		if err := s.WriteBars(ctx, bars); err != nil {
			return 0, fmt.Errorf("writing %s: %w", l.Symbol, err)
		}
	}
	c.log.Debug("symbol collected", "symbol", l.Symbol, "bars", len(bars))
	return len(bars), nil
}
