// Package store persists the company universe and daily bars collected by
// the backend: SQLite serves queries, Parquet keeps a columnar archive.
package store

import (
	"context"
	"time"

	"stockintel/internal/domain"
)

// DateLayout is how bar dates are stored and served.
const DateLayout = "2006-01-02"

// CompanyStore persists the company roster.
type CompanyStore interface {
	// UpsertCompanies inserts companies that are not yet known. Existing
	// rows are left untouched.
	UpsertCompanies(ctx context.Context, companies []domain.Company) error

	// Companies returns every company ordered by name.
	Companies(ctx context.Context) ([]domain.Company, error)
}

// BarStore persists daily bars.
type BarStore interface {
	// WriteBars persists a batch of bars, replacing any existing bar for the
	// same (symbol, date).
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for symbol within [start, end], oldest first.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)
}
