package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockintel/internal/analytics"
	"stockintel/internal/domain"
	"stockintel/internal/store"
	"stockintel/pkg/stockintel"
)

func f64(v float64) *float64 { return &v }

// newTestAPI serves a SQLite store seeded with 25 recent days for TCS
// (rising) and INFY (falling).
func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "stocks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, db.UpsertCompanies(ctx, []domain.Company{
		{Symbol: "TCS", Name: "Tata Consultancy Services", Sector: "IT"},
		{Symbol: "INFY", Name: "Infosys", Sector: "IT"},
	}))

	today := time.Now().UTC().Truncate(24 * time.Hour)
	var bars []domain.Bar
	for i := 1; i <= 25; i++ {
		d := today.AddDate(0, 0, -i)
		tcsRet, infyRet := 2.0, -1.0
		if i%2 == 0 {
			tcsRet, infyRet = 1.0, -3.0
		}
		bars = append(bars,
			domain.Bar{Symbol: "TCS", Date: d, Open: 100, High: 110, Low: 90, Close: 110 - float64(i), Volume: 1000, DailyReturn: f64(tcsRet)},
			domain.Bar{Symbol: "INFY", Date: d, Open: 50, High: 55, Low: 40, Close: 40 + float64(i), Volume: 500, DailyReturn: f64(infyRet)},
		)
	}
	require.NoError(t, db.WriteBars(ctx, bars))

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewServer(analytics.NewService(db), quiet).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestRoot(t *testing.T) {
	srv := newTestAPI(t)

	var h Health
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/", &h))
	assert.Equal(t, Health{Message: "Stock Intelligence API", Version: "1.0.0", Docs: "/docs"}, h)
}

func TestCORS(t *testing.T) {
	srv := newTestAPI(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/companies", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestNotFoundDetail(t *testing.T) {
	srv := newTestAPI(t)

	tests := []struct {
		path   string
		detail string
	}{
		{"/data/NOPE", "Symbol NOPE not found"},
		{"/summary/NOPE", "Symbol NOPE not found"},
		{"/insights/volatility/NOPE", "Symbol NOPE not found"},
		{"/compare?symbol1=TCS&symbol2=NOPE", "One or both symbols not found"},
	}
	for _, tt := range tests {
		var e ErrorResponse
		assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+tt.path, &e), tt.path)
		assert.Equal(t, tt.detail, e.Detail, tt.path)
	}
}

func TestBadParams(t *testing.T) {
	srv := newTestAPI(t)

	for _, path := range []string{
		"/data/TCS?days=abc",
		"/data/TCS?days=0",
		"/insights/gainers?limit=-1",
		"/insights/losers?limit=x",
		"/compare?symbol1=TCS",
	} {
		var e ErrorResponse
		assert.Equal(t, http.StatusUnprocessableEntity, getJSON(t, srv.URL+path, &e), path)
		assert.NotEmpty(t, e.Detail, path)
	}
}

// The client SDK decodes everything the server encodes.
func TestClientRoundTrip(t *testing.T) {
	srv := newTestAPI(t)
	c := stockintel.NewClient(srv.URL)
	ctx := context.Background()

	h, err := c.Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, APIVersion, h.Version)

	companies, err := c.Companies(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "INFY", companies[0].Symbol)

	points, err := c.Series(ctx, "TCS", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, points)
	assert.LessOrEqual(t, len(points), 10)
	assert.Greater(t, points[0].Date, points[len(points)-1].Date, "newest first")

	points, err = c.Series(ctx, "TCS", DefaultDays)
	require.NoError(t, err)
	assert.Len(t, points, 25)

	sum, err := c.Summary(ctx, "TCS")
	require.NoError(t, err)
	assert.Equal(t, 110.0, sum.Week52High)
	assert.Equal(t, 90.0, sum.Week52Low)
	assert.Equal(t, 25, sum.TradingDays)
	require.NotNil(t, sum.CurrentPrice)
	assert.Equal(t, 109.0, *sum.CurrentPrice)

	gainers, err := c.Gainers(ctx, 5)
	require.NoError(t, err)
	require.Len(t, gainers, 2)
	assert.Equal(t, "TCS", gainers[0].Symbol)
	assert.Equal(t, 1.52, gainers[0].AvgReturn) // 13×2 + 12×1 over 25
	assert.Equal(t, 25, gainers[0].Days)

	losers, err := c.Losers(ctx, 1)
	require.NoError(t, err)
	require.Len(t, losers, 1)
	assert.Equal(t, "INFY", losers[0].Symbol)

	vol, err := c.Volatility(ctx, "INFY")
	require.NoError(t, err)
	assert.Equal(t, 25, vol.DataPoints)
	assert.Equal(t, domain.VolatilityLow, vol.Classification)

	cmp, err := c.Compare(ctx, "TCS", "INFY")
	require.NoError(t, err)
	assert.Len(t, cmp.Comparison, 2)
	assert.Contains(t, []string{"TCS", "INFY"}, cmp.Insights.BetterPerformer)

	_, err = c.Summary(ctx, "NOPE")
	assert.True(t, errors.Is(err, stockintel.ErrNotFound))
}

type failingQuerier struct{ analytics.Querier }

func (failingQuerier) Companies(context.Context) ([]domain.Company, error) {
	return nil, errors.New("database is locked")
}

func TestInternalError(t *testing.T) {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewServer(failingQuerier{}, quiet).Handler())
	defer srv.Close()

	var e ErrorResponse
	assert.Equal(t, http.StatusInternalServerError, getJSON(t, srv.URL+"/companies", &e))
	assert.Equal(t, "internal server error", e.Detail)
}
