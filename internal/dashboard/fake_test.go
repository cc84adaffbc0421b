package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"stockintel/internal/domain"
	"stockintel/pkg/stockintel"
)

func ptr[T any](v T) *T { return &v }

func pt(date string, close float64) domain.PricePoint {
	return domain.PricePoint{Date: date, Close: ptr(close)}
}

// fakeBackend serves canned responses. A symbol present in gates blocks its
// Series call until the gate channel is closed.
type fakeBackend struct {
	mu sync.Mutex

	pingErr      error
	companies    []domain.Company
	companiesErr error

	series    map[string][]domain.PricePoint
	seriesErr map[string]error
	gates     map[string]chan struct{}

	summaries  map[string]*domain.Summary
	summaryErr error
	volatility map[string]*domain.Volatility

	gainers, losers       []domain.InsightEntry
	gainersErr, losersErr error

	summaryCalls []string
	seriesCalls  []string
	lastDays     int
	gainersLimit int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		series:     map[string][]domain.PricePoint{},
		seriesErr:  map[string]error{},
		gates:      map[string]chan struct{}{},
		summaries:  map[string]*domain.Summary{},
		volatility: map[string]*domain.Volatility{},
	}
}

func (f *fakeBackend) Ping(ctx context.Context) (*stockintel.Health, error) {
	if f.pingErr != nil {
		return nil, f.pingErr
	}
	return &stockintel.Health{Message: "ok", Version: "test"}, nil
}

func (f *fakeBackend) Companies(ctx context.Context) ([]domain.Company, error) {
	return f.companies, f.companiesErr
}

func (f *fakeBackend) Series(ctx context.Context, symbol string, days int) ([]domain.PricePoint, error) {
	f.mu.Lock()
	f.seriesCalls = append(f.seriesCalls, symbol)
	f.lastDays = days
	gate := f.gates[symbol]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.seriesErr[symbol]; err != nil {
		return nil, err
	}
	return f.series[symbol], nil
}

func (f *fakeBackend) Summary(ctx context.Context, symbol string) (*domain.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryCalls = append(f.summaryCalls, symbol)
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	if s, ok := f.summaries[symbol]; ok {
		return s, nil
	}
	return &domain.Summary{Symbol: symbol, CurrentPrice: ptr(1.0)}, nil
}

func (f *fakeBackend) Volatility(ctx context.Context, symbol string) (*domain.Volatility, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.volatility[symbol]; ok {
		return v, nil
	}
	return nil, &stockintel.StatusError{Code: 404}
}

func (f *fakeBackend) Gainers(ctx context.Context, limit int) ([]domain.InsightEntry, error) {
	f.mu.Lock()
	f.gainersLimit = limit
	f.mu.Unlock()
	return f.gainers, f.gainersErr
}

func (f *fakeBackend) Losers(ctx context.Context, limit int) ([]domain.InsightEntry, error) {
	return f.losers, f.losersErr
}

func (f *fakeBackend) summaryCallsFor(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.summaryCalls {
		if s == symbol {
			n++
		}
	}
	return n
}

func (f *fakeBackend) waitSeriesCalls(n int) {
	for {
		f.mu.Lock()
		got := len(f.seriesCalls)
		f.mu.Unlock()
		if got >= n {
			return
		}
		runtime.Gosched()
	}
}

// rosterRender records one RenderRoster call.
type rosterRender struct {
	state     RosterState
	companies []domain.Company
}

// fakeView records every render call. Ids in missing behave as absent
// rendering targets.
type fakeView struct {
	mu sync.Mutex

	missing map[string]bool

	rosters    []rosterRender
	summaries  []domain.Summary
	volatility []*domain.Volatility
	gainers    [][]domain.InsightEntry
	losers     [][]domain.InsightEntry
	notices    []Notice
	surface    *fakeSurface
}

func newFakeView() *fakeView {
	return &fakeView{missing: map[string]bool{}, surface: &fakeSurface{}}
}

func (v *fakeView) RenderRoster(state RosterState, companies []domain.Company) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.missing[TargetRoster] {
		return MissingTarget(TargetRoster)
	}
	v.rosters = append(v.rosters, rosterRender{state: state, companies: companies})
	return nil
}

func (v *fakeView) RenderSummary(symbol string, s domain.Summary) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.summaries = append(v.summaries, s)
	return nil
}

func (v *fakeView) RenderVolatility(symbol string, vol *domain.Volatility) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.volatility = append(v.volatility, vol)
	return nil
}

func (v *fakeView) RenderGainers(entries []domain.InsightEntry) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gainers = append(v.gainers, entries)
	return nil
}

func (v *fakeView) RenderLosers(entries []domain.InsightEntry) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.losers = append(v.losers, entries)
	return nil
}

func (v *fakeView) RenderNotice(n Notice) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, n)
}

func (v *fakeView) Surface(id string) (Surface, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.missing[id] {
		return nil, MissingTarget(id)
	}
	return v.surface, nil
}

func (v *fakeView) lastRoster() rosterRender {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.rosters) == 0 {
		return rosterRender{state: RosterLoading}
	}
	return v.rosters[len(v.rosters)-1]
}

func (v *fakeView) noticeKinds() []NoticeKind {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]NoticeKind, len(v.notices))
	for i, n := range v.notices {
		out[i] = n.Kind
	}
	return out
}

type fakeSurface struct {
	mu     sync.Mutex
	frames []string
}

func (s *fakeSurface) Size() (int, int) { return 80, 20 }

func (s *fakeSurface) Draw(frame string) {
	s.mu.Lock()
	s.frames = append(s.frames, frame)
	s.mu.Unlock()
}

func (s *fakeSurface) Clear() {}

// fakeCharts counts live charts and remembers the data of the last one.
type fakeCharts struct {
	mu       sync.Mutex
	live     int
	maxLive  int
	created  int
	released int
	dates    []string
	prices   []float64
	err      error
}

type fakeChart struct {
	f    *fakeCharts
	once sync.Once
}

func (c *fakeChart) Release() {
	c.once.Do(func() {
		c.f.mu.Lock()
		c.f.live--
		c.f.released++
		c.f.mu.Unlock()
	})
}

func (f *fakeCharts) NewChart(s Surface, dates []string, prices []float64) (Chart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.live++
	f.created++
	if f.live > f.maxLive {
		f.maxLive = f.live
	}
	f.dates = append([]string(nil), dates...)
	f.prices = append([]float64(nil), prices...)
	return &fakeChart{f: f}, nil
}

func (f *fakeCharts) last() ([]string, []float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dates, f.prices
}

var errBoom = errors.New("boom")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestController(b *fakeBackend, v *fakeView, c *fakeCharts) *Controller {
	return NewController(b, v, c, Options{Logger: quietLogger()})
}
