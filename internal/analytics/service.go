package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"stockintel/internal/domain"
	"stockintel/internal/store"
)

// ErrNotFound is returned when a symbol has no data for the query.
var ErrNotFound = errors.New("not found")

// Query windows.
const (
	SummaryWindow    = 52 * 7 * 24 * time.Hour
	MoversWindow     = 30 * 24 * time.Hour
	MoversMinDays    = 20
	VolatilityWindow = 90 * 24 * time.Hour
	VolatilityMin    = 10
)

// Querier answers every API query. Service implements it over a store;
// cache.Querier decorates it.
type Querier interface {
	Companies(ctx context.Context) ([]domain.Company, error)
	Series(ctx context.Context, symbol string, days int) ([]domain.PricePoint, error)
	Summary(ctx context.Context, symbol string) (*domain.Summary, error)
	Gainers(ctx context.Context, limit int) ([]domain.InsightEntry, error)
	Losers(ctx context.Context, limit int) ([]domain.InsightEntry, error)
	Volatility(ctx context.Context, symbol string) (*domain.Volatility, error)
	Compare(ctx context.Context, symbol1, symbol2 string) (*domain.Comparison, error)
}

// Source is the storage the Service reads. *store.SQLiteStore satisfies it.
type Source interface {
	Companies(ctx context.Context) ([]domain.Company, error)
	Series(ctx context.Context, symbol string, since time.Time) ([]domain.PricePoint, error)
	Stats(ctx context.Context, symbol string, since time.Time) (*store.Stats, error)
	Movers(ctx context.Context, since time.Time, minDays, limit int, ascending bool) ([]domain.InsightEntry, error)
	DailyReturns(ctx context.Context, symbol string, since time.Time) ([]float64, error)
}

var (
	_ Source  = (*store.SQLiteStore)(nil)
	_ Querier = (*Service)(nil)
)

// Service computes API responses from a Source.
type Service struct {
	src Source
	now func() time.Time
}

// NewService creates a Service reading from src.
func NewService(src Source) *Service {
	return &Service{src: src, now: time.Now}
}

// Companies returns the roster ordered by name.
func (s *Service) Companies(ctx context.Context) ([]domain.Company, error) {
	return s.src.Companies(ctx)
}

// Series returns the last days of points for symbol, newest first.
// ErrNotFound is returned when there are none.
func (s *Service) Series(ctx context.Context, symbol string, days int) ([]domain.PricePoint, error) {
	since := s.now().AddDate(0, 0, -days)
	points, err := s.src.Series(ctx, symbol, since)
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", symbol, err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrNotFound)
	}
	return points, nil
}

// Summary returns the 52-week statistics of symbol.
func (s *Service) Summary(ctx context.Context, symbol string) (*domain.Summary, error) {
	st, err := s.src.Stats(ctx, symbol, s.now().Add(-SummaryWindow))
	if err != nil {
		return nil, fmt.Errorf("summary %s: %w", symbol, err)
	}
	if st == nil {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrNotFound)
	}
	sum := &domain.Summary{
		Symbol:      symbol,
		CurrentDate: st.LastDate,
		Week52High:  Round2(st.High),
		Week52Low:   Round2(st.Low),
		AvgClose:    Round2(st.AvgClose),
		AvgVolume:   int64(st.AvgVolume),
		TradingDays: st.TradingDays,
	}
	if st.LastClose != nil && *st.LastClose != 0 {
		p := Round2(*st.LastClose)
		sum.CurrentPrice = &p
	}
	return sum, nil
}

// Gainers returns the symbols with the highest average daily return over
// the last 30 days.
func (s *Service) Gainers(ctx context.Context, limit int) ([]domain.InsightEntry, error) {
	return s.movers(ctx, limit, false)
}

// Losers returns the symbols with the lowest average daily return over the
// last 30 days.
func (s *Service) Losers(ctx context.Context, limit int) ([]domain.InsightEntry, error) {
	return s.movers(ctx, limit, true)
}

func (s *Service) movers(ctx context.Context, limit int, ascending bool) ([]domain.InsightEntry, error) {
	entries, err := s.src.Movers(ctx, s.now().Add(-MoversWindow), MoversMinDays, limit, ascending)
	if err != nil {
		return nil, fmt.Errorf("movers: %w", err)
	}
	for i := range entries {
		entries[i].AvgReturn = Round2(entries[i].AvgReturn)
	}
	return entries, nil
}

// Volatility returns the sample stdev of symbol's daily returns over the
// last 90 days. ErrNotFound is returned with fewer than 10 returns.
func (s *Service) Volatility(ctx context.Context, symbol string) (*domain.Volatility, error) {
	returns, err := s.src.DailyReturns(ctx, symbol, s.now().Add(-VolatilityWindow))
	if err != nil {
		return nil, fmt.Errorf("volatility %s: %w", symbol, err)
	}
	if len(returns) < VolatilityMin {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrNotFound)
	}
	score := StdDev(returns)
	return &domain.Volatility{
		Symbol:         symbol,
		Score:          Round2(score),
		Classification: Classify(score),
		MeanReturn:     Round2(Mean(returns)),
		DataPoints:     len(returns),
	}, nil
}

// Compare contrasts the summaries of two symbols by how far each current
// price sits above its average close. ErrNotFound is returned when either
// summary is missing or has no usable price.
func (s *Service) Compare(ctx context.Context, symbol1, symbol2 string) (*domain.Comparison, error) {
	s1, err := s.Summary(ctx, symbol1)
	if err != nil {
		return nil, err
	}
	s2, err := s.Summary(ctx, symbol2)
	if err != nil {
		return nil, err
	}
	p1, ok1 := Performance(*s1)
	p2, ok2 := Performance(*s2)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("comparing %s and %s: %w", symbol1, symbol2, ErrNotFound)
	}

	better := symbol2
	if p1 > p2 {
		better = symbol1
	}
	return &domain.Comparison{
		Comparison: map[string]domain.Summary{symbol1: *s1, symbol2: *s2},
		Insights: domain.ComparisonInsights{
			BetterPerformer:       better,
			Symbol1Performance:    Round2(p1),
			Symbol2Performance:    Round2(p2),
			PerformanceDifference: Round2(math.Abs(p1 - p2)),
		},
	}, nil
}
