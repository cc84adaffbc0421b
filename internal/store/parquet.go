package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"stockintel/internal/domain"
)

// Compile-time interface check.
var _ BarStore = (*ParquetArchive)(nil)

// ParquetArchive implements BarStore using Parquet files on disk, one file
// per symbol and year:
//
//	<DataDir>/<Market>/daily/<SYMBOL>/<YYYY>.parquet
type ParquetArchive struct {
	DataDir string
	Market  string
}

// NewParquetArchive creates a ParquetArchive rooted at dataDir. An empty
// market defaults to "nse".
func NewParquetArchive(dataDir, market string) *ParquetArchive {
	if market == "" {
		market = "nse"
	}
	return &ParquetArchive{DataDir: dataDir, Market: market}
}

// BarRecord is the Parquet schema for daily bar data.
type BarRecord struct {
	Symbol      string   `parquet:"symbol"`
	Timestamp   int64    `parquet:"timestamp,timestamp(millisecond)"` // Unix ms, midnight UTC
	Open        float64  `parquet:"open"`
	High        float64  `parquet:"high"`
	Low         float64  `parquet:"low"`
	Close       float64  `parquet:"close"`
	Volume      int64    `parquet:"volume"`
	DailyReturn *float64 `parquet:"daily_return,optional"`
	MA7         *float64 `parquet:"ma_7,optional"`
}

// WriteBars merges bars into the per-symbol, per-year files. Records for an
// existing (symbol, date) are replaced.
func (a *ParquetArchive) WriteBars(_ context.Context, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	type key struct {
		symbol string
		year   int
	}
	groups := make(map[key][]BarRecord)
	for _, b := range bars {
		k := key{symbol: b.Symbol, year: b.Date.Year()}
		groups[k] = append(groups[k], toRecord(b))
	}

	for k, records := range groups {
		path := a.barPath(k.symbol, k.year)

		existing, _ := readParquetFile[BarRecord](path)
		merged := mergeBarRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing bars for %s/%d: %w", k.symbol, k.year, err)
		}
	}
	return nil
}

// ReadBars reads bars for symbol within [start, end], oldest first.
func (a *ParquetArchive) ReadBars(_ context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	var bars []domain.Bar
	for year := start.Year(); year <= end.Year(); year++ {
		records, err := readParquetFile[BarRecord](a.barPath(symbol, year))
		if err != nil {
			// No file for this year.
			continue
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if ts.Before(start) || ts.After(end) {
				continue
			}
			bars = append(bars, fromRecord(r))
		}
	}
	return bars, nil
}

// ListSymbols lists all symbols that have archived bars.
func (a *ParquetArchive) ListSymbols() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(a.DataDir, a.Market, "daily"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// barPath returns the filesystem path for a bar Parquet file.
func (a *ParquetArchive) barPath(symbol string, year int) string {
	return filepath.Join(a.DataDir, a.Market, "daily", strings.ToUpper(symbol), fmt.Sprintf("%d.parquet", year))
}

func toRecord(b domain.Bar) BarRecord {
	d := b.Date
	return BarRecord{
		Symbol:      b.Symbol,
		Timestamp:   time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).UnixMilli(),
		Open:        b.Open,
		High:        b.High,
		Low:         b.Low,
		Close:       b.Close,
		Volume:      b.Volume,
		DailyReturn: b.DailyReturn,
		MA7:         b.MA7,
	}
}

func fromRecord(r BarRecord) domain.Bar {
	return domain.Bar{
		Symbol:      r.Symbol,
		Date:        time.UnixMilli(r.Timestamp).UTC(),
		Open:        r.Open,
		High:        r.High,
		Low:         r.Low,
		Close:       r.Close,
		Volume:      r.Volume,
		DailyReturn: r.DailyReturn,
		MA7:         r.MA7,
	}
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}

// mergeBarRecords deduplicates bar records by (symbol, timestamp), preferring
// incoming records over existing ones. The result is sorted by timestamp.
func mergeBarRecords(existing, incoming []BarRecord) []BarRecord {
	type key struct {
		symbol string
		ts     int64
	}
	seen := make(map[key]BarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Symbol, r.Timestamp}] = r
	}
	for _, r := range incoming {
		seen[key{r.Symbol, r.Timestamp}] = r
	}

	merged := make([]BarRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
