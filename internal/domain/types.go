// Package domain defines the core market-data types shared by the dashboard,
// the HTTP client, and the backend server.
package domain

import "time"

// Company is one entry of the roster. Symbol is its identity.
type Company struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Sector string `json:"sector,omitempty"`
}

// PricePoint is one day of a price series as served by /data/{symbol}.
// Close is a pointer because the backend may return null for a day it has no
// close for; such points are unusable for charting.
type PricePoint struct {
	Date        string   `json:"date"`
	Open        *float64 `json:"open,omitempty"`
	High        *float64 `json:"high,omitempty"`
	Low         *float64 `json:"low,omitempty"`
	Close       *float64 `json:"close"`
	Volume      *int64   `json:"volume,omitempty"`
	DailyReturn *float64 `json:"daily_return,omitempty"`
	MA7         *float64 `json:"ma_7,omitempty"`
}

// Usable reports whether the point can be plotted.
func (p PricePoint) Usable() bool {
	return p.Date != "" && p.Close != nil
}

// Summary holds 52-week statistics for one symbol.
type Summary struct {
	Symbol       string   `json:"symbol"`
	CurrentPrice *float64 `json:"current_price"`
	CurrentDate  string   `json:"current_date,omitempty"`
	Week52High   float64  `json:"week_52_high"`
	Week52Low    float64  `json:"week_52_low"`
	AvgClose     float64  `json:"avg_close"`
	AvgVolume    int64    `json:"avg_volume"`
	TradingDays  int      `json:"trading_days"`
}

// InsightEntry is one ranked row in the gainers or losers list.
type InsightEntry struct {
	Symbol    string  `json:"symbol"`
	AvgReturn float64 `json:"avg_return"`
	Days      int     `json:"days,omitempty"`
}

// Volatility classification labels.
const (
	VolatilityLow      = "Low"
	VolatilityModerate = "Moderate"
	VolatilityHigh     = "High"
)

// Volatility is the volatility score of a symbol's recent daily returns.
type Volatility struct {
	Symbol         string  `json:"symbol"`
	Score          float64 `json:"volatility_score"`
	Classification string  `json:"classification"`
	MeanReturn     float64 `json:"mean_return"`
	DataPoints     int     `json:"data_points"`
}

// ComparisonInsights summarises which of two symbols performed better.
type ComparisonInsights struct {
	BetterPerformer       string  `json:"better_performer"`
	Symbol1Performance    float64 `json:"symbol1_performance"`
	Symbol2Performance    float64 `json:"symbol2_performance"`
	PerformanceDifference float64 `json:"performance_difference"`
}

// Comparison is the response of /compare.
type Comparison struct {
	Comparison map[string]Summary `json:"comparison"`
	Insights   ComparisonInsights `json:"insights"`
}

// Bar is a daily OHLCV bar with derived metrics, as collected and stored by
// the backend.
type Bar struct {
	Symbol      string
	Date        time.Time
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      int64
	DailyReturn *float64
	MA7         *float64
}
