// Package collector populates the backend stores with daily bars for a
// fixed universe of listings, on startup and on a cron schedule.
package collector

import (
	"context"
	"time"

	"stockintel/internal/domain"
)

// Fetcher loads daily bars for one data-source ticker.
type Fetcher interface {
	// Name returns the data source identifier.
	Name() string
	// FetchDailyBars returns the bars of ticker dated within [start, end),
	// oldest first. Bar.Symbol is left for the caller to set.
	FetchDailyBars(ctx context.Context, ticker string, start, end time.Time) ([]domain.Bar, error)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
