// Package dashboard implements the stock dashboard controller: it loads the
// company roster, price series, summaries and insights from the API and keeps
// the rendered view consistent with the most recently issued request.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"stockintel/internal/domain"
	"stockintel/pkg/stockintel"
)

// Defaults applied when Options leaves a field zero.
const (
	DefaultDays          = 30
	DefaultInsightsLimit = 5
	DefaultTimeout       = 10 * time.Second
)

var (
	// ErrStale is returned when a response was discarded because a newer
	// request of the same kind was issued while it was in flight.
	ErrStale = errors.New("superseded by a newer request")

	// ErrNoData is returned by LoadSeries when the series has no usable
	// points.
	ErrNoData = errors.New("no usable data points")
)

// Backend is the subset of the API the controller consumes.
// *stockintel.Client satisfies it.
type Backend interface {
	Ping(ctx context.Context) (*stockintel.Health, error)
	Companies(ctx context.Context) ([]domain.Company, error)
	Series(ctx context.Context, symbol string, days int) ([]domain.PricePoint, error)
	Summary(ctx context.Context, symbol string) (*domain.Summary, error)
	Volatility(ctx context.Context, symbol string) (*domain.Volatility, error)
	Gainers(ctx context.Context, limit int) ([]domain.InsightEntry, error)
	Losers(ctx context.Context, limit int) ([]domain.InsightEntry, error)
}

var _ Backend = (*stockintel.Client)(nil)

// Options tunes a Controller.
type Options struct {
	Timeout       time.Duration // per network call
	Days          int           // initial lookback window
	InsightsLimit int
	Logger        *slog.Logger
}

// Controller owns the dashboard state: the roster, the current symbol, the
// chart handle and one generation counter per asynchronous operation. All
// state is guarded by mu; view calls happen with mu held so that the
// generation check and the render it guards are atomic.
type Controller struct {
	backend Backend
	view    View
	chart   *ChartRenderer
	log     *slog.Logger
	timeout time.Duration
	limit   int

	mu          sync.Mutex
	roster      []domain.Company
	rosterState RosterState
	current     string
	days        int
	rosterGen   uint64
	seriesGen   uint64
	summaryGen  uint64
	insightsGen uint64
}

// NewController creates a Controller that renders through view and draws
// charts with charts on the TargetChart surface.
func NewController(backend Backend, view View, charts ChartFactory, opts Options) *Controller {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Days <= 0 {
		opts.Days = DefaultDays
	}
	if opts.InsightsLimit <= 0 {
		opts.InsightsLimit = DefaultInsightsLimit
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		backend: backend,
		view:    view,
		chart:   NewChartRenderer(view, charts, TargetChart),
		log:     opts.Logger.With("component", "dashboard"),
		timeout: opts.Timeout,
		limit:   opts.InsightsLimit,
		days:    opts.Days,
	}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Current returns the currently selected symbol.
func (c *Controller) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Roster returns a copy of the loaded roster.
func (c *Controller) Roster() []domain.Company {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Company, len(c.roster))
	copy(out, c.roster)
	return out
}

// Days returns the lookback window used by Select.
func (c *Controller) Days() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.days
}

// SetDays changes the lookback window used by Select. Non-positive values
// are ignored.
func (c *Controller) SetDays(days int) {
	if days <= 0 {
		return
	}
	c.mu.Lock()
	c.days = days
	c.mu.Unlock()
}

// Charts returns the number of live chart instances (0 or 1).
func (c *Controller) Charts() int {
	return c.chart.Live()
}

// ---------------------------------------------------------------------------
// Startup and bindings
// ---------------------------------------------------------------------------

// Start probes the backend, then loads the roster and the insights
// concurrently. It blocks until both loaders have finished. A failed probe
// is surfaced but does not stop the loaders.
func (c *Controller) Start(ctx context.Context) {
	c.Ping(ctx)
	c.Refresh(ctx)
}

// Ping probes the backend's liveness endpoint.
func (c *Controller) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	h, err := c.backend.Ping(ctx)
	if err != nil {
		c.log.Error("backend unreachable", "error", err)
		c.mu.Lock()
		c.view.RenderNotice(Notice{Kind: NoticeBackendDown, Err: err})
		c.mu.Unlock()
		return err
	}
	c.log.Info("backend is running", "message", h.Message, "version", h.Version)
	return nil
}

// Refresh reloads the roster and the insights concurrently and waits for
// both.
func (c *Controller) Refresh(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = c.LoadRoster(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = c.LoadInsights(ctx, c.limit)
	}()
	wg.Wait()
}

// Select is the action bound to every rendered roster entry: it loads the
// series for symbol with the current lookback window on a new goroutine.
func (c *Controller) Select(ctx context.Context, symbol string) {
	days := c.Days()
	go func() {
		_ = c.LoadSeries(ctx, symbol, days)
	}()
}

// ---------------------------------------------------------------------------
// Roster
// ---------------------------------------------------------------------------

// LoadRoster fetches the company roster and replaces the in-memory roster
// with it. An empty roster renders RosterEmpty; a failure renders
// RosterError, leaves the roster empty and surfaces NoticeRosterFailed.
func (c *Controller) LoadRoster(ctx context.Context) ([]domain.Company, error) {
	c.mu.Lock()
	c.rosterGen++
	gen := c.rosterGen
	c.mu.Unlock()

	c.log.Info("fetching companies")
	fctx, cancel := context.WithTimeout(ctx, c.timeout)
	companies, err := c.backend.Companies(fctx)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.rosterGen {
		c.log.Debug("discarding stale roster", "gen", gen, "latest", c.rosterGen)
		return nil, ErrStale
	}

	if err != nil {
		c.log.Error("loading companies", "error", err)
		c.roster = nil
		c.rosterState = RosterError
		c.renderRosterLocked(RosterError, nil)
		c.view.RenderNotice(Notice{Kind: NoticeRosterFailed, Err: err})
		return nil, err
	}

	c.roster = companies
	if len(companies) == 0 {
		c.log.Warn("no companies found; backend may not have collected data yet")
		c.rosterState = RosterEmpty
		c.renderRosterLocked(RosterEmpty, nil)
		return nil, nil
	}

	c.rosterState = RosterReady
	c.renderRosterLocked(RosterReady, companies)
	c.log.Info("loaded companies", "count", len(companies))
	return companies, nil
}

// Filter re-renders the roster restricted to entries whose name or symbol
// contains term (case-insensitive) and returns them. It reads the roster
// without modifying it. Nothing is rendered while the roster is not ready.
func (c *Controller) Filter(term string) []domain.Company {
	c.mu.Lock()
	defer c.mu.Unlock()

	filtered := MatchCompanies(c.roster, term)
	if c.rosterState == RosterReady {
		c.renderRosterLocked(RosterReady, filtered)
	}
	return filtered
}

func (c *Controller) renderRosterLocked(state RosterState, companies []domain.Company) {
	if err := c.view.RenderRoster(state, companies); err != nil {
		c.surfaceRenderErrorLocked(TargetRoster, err)
	}
}

// ---------------------------------------------------------------------------
// Series
// ---------------------------------------------------------------------------

// LoadSeries makes symbol the current selection, fetches its trailing days
// of prices and charts them, then loads its summary. An empty symbol is a
// no-op. Responses for a selection that has since been superseded are
// discarded and ErrStale is returned.
func (c *Controller) LoadSeries(ctx context.Context, symbol string, days int) error {
	if symbol == "" {
		c.log.Warn("no symbol provided to LoadSeries")
		return nil
	}
	if days <= 0 {
		days = DefaultDays
	}

	c.mu.Lock()
	c.current = symbol
	c.seriesGen++
	gen := c.seriesGen
	c.mu.Unlock()

	c.log.Info("loading series", "symbol", symbol, "days", days, "gen", gen)
	fctx, cancel := context.WithTimeout(ctx, c.timeout)
	points, err := c.backend.Series(fctx, symbol, days)
	cancel()

	c.mu.Lock()
	if gen != c.seriesGen {
		c.mu.Unlock()
		c.log.Debug("discarding stale series", "symbol", symbol, "gen", gen)
		return ErrStale
	}

	if err != nil {
		n := seriesNotice(symbol, err)
		c.view.RenderNotice(n)
		c.mu.Unlock()
		c.log.Error("loading series", "symbol", symbol, "notice", n.Kind, "status", n.Status, "error", err)
		return err
	}

	dates, prices := PrepareSeries(points)
	if len(dates) == 0 {
		c.view.RenderNotice(Notice{Kind: NoticeNoData, Symbol: symbol})
		c.mu.Unlock()
		c.log.Error("no usable data points", "symbol", symbol, "received", len(points))
		return ErrNoData
	}

	if err := c.chart.Render(dates, prices); err != nil {
		c.surfaceRenderErrorLocked(TargetChart, err)
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	c.log.Info("chart rendered", "symbol", symbol, "points", len(dates),
		"first", dates[0], "last", dates[len(dates)-1], "dropped", len(points)-len(dates))

	_ = c.LoadSummary(ctx, symbol)
	_ = c.LoadVolatility(ctx, symbol)
	return nil
}

// ---------------------------------------------------------------------------
// Summary and volatility
// ---------------------------------------------------------------------------

// LoadSummary fetches and renders the 52-week summary for symbol. Failures
// are logged and leave the displayed summary untouched. A summary for a
// symbol that is no longer current, or superseded by a newer summary
// request, is discarded.
func (c *Controller) LoadSummary(ctx context.Context, symbol string) error {
	if symbol == "" {
		return nil
	}
	c.mu.Lock()
	c.summaryGen++
	gen := c.summaryGen
	c.mu.Unlock()

	fctx, cancel := context.WithTimeout(ctx, c.timeout)
	s, err := c.backend.Summary(fctx, symbol)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.summaryGen || symbol != c.current {
		c.log.Debug("discarding stale summary", "symbol", symbol, "current", c.current)
		return ErrStale
	}
	if err != nil {
		c.log.Warn("loading summary", "symbol", symbol, "error", err)
		return err
	}
	if err := c.view.RenderSummary(symbol, *s); err != nil {
		c.surfaceRenderErrorLocked(TargetStats, err)
		return err
	}
	return nil
}

// LoadVolatility fetches the volatility score for symbol. Not-found clears
// the volatility line; other failures are logged and leave it untouched.
func (c *Controller) LoadVolatility(ctx context.Context, symbol string) error {
	fctx, cancel := context.WithTimeout(ctx, c.timeout)
	v, err := c.backend.Volatility(fctx, symbol)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if symbol != c.current {
		return ErrStale
	}
	switch {
	case errors.Is(err, stockintel.ErrNotFound):
		v = nil
	case err != nil:
		c.log.Warn("loading volatility", "symbol", symbol, "error", err)
		return err
	}
	if err := c.view.RenderVolatility(symbol, v); err != nil {
		c.surfaceRenderErrorLocked(TargetStats, err)
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Insights
// ---------------------------------------------------------------------------

// LoadInsights fetches the top gainers and losers concurrently, each bounded
// to limit entries, and fully replaces each list as its response arrives. A
// failed list keeps its previous content. The first error is returned.
func (c *Controller) LoadInsights(ctx context.Context, limit int) error {
	if limit <= 0 {
		limit = DefaultInsightsLimit
	}
	c.mu.Lock()
	c.insightsGen++
	gen := c.insightsGen
	c.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		return c.loadInsightList(ctx, gen, "gainers", TargetGainers, limit, c.backend.Gainers, c.view.RenderGainers)
	})
	g.Go(func() error {
		return c.loadInsightList(ctx, gen, "losers", TargetLosers, limit, c.backend.Losers, c.view.RenderLosers)
	})
	return g.Wait()
}

func (c *Controller) loadInsightList(
	ctx context.Context,
	gen uint64,
	name, target string,
	limit int,
	fetch func(context.Context, int) ([]domain.InsightEntry, error),
	render func([]domain.InsightEntry) error,
) error {
	fctx, cancel := context.WithTimeout(ctx, c.timeout)
	entries, err := fetch(fctx, limit)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.insightsGen {
		return ErrStale
	}
	if err != nil {
		c.log.Warn("loading insights", "list", name, "error", err)
		return err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	if err := render(entries); err != nil {
		c.surfaceRenderErrorLocked(target, err)
		return err
	}
	return nil
}

// surfaceRenderErrorLocked logs a render failure and, for a missing target,
// surfaces it as a notice.
func (c *Controller) surfaceRenderErrorLocked(target string, err error) {
	c.log.Error("rendering", "target", target, "error", err)
	if n, ok := targetNotice(target, err); ok {
		c.view.RenderNotice(n)
	}
}
