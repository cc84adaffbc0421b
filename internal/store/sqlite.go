package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stockintel/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ CompanyStore = (*SQLiteStore)(nil)
var _ BarStore = (*SQLiteStore)(nil)

// SQLiteStore implements CompanyStore and BarStore backed by a SQLite
// database, and answers the aggregate queries the API serves.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, creating
// its directory if needed, and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps :memory: databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			symbol TEXT PRIMARY KEY,
			name   TEXT NOT NULL,
			sector TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS stock_data (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol       TEXT NOT NULL,
			date         TEXT NOT NULL,
			open         REAL,
			high         REAL,
			low          REAL,
			close        REAL,
			volume       INTEGER,
			daily_return REAL,
			ma_7         REAL,
			UNIQUE(symbol, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_symbol_date ON stock_data(symbol, date)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// CompanyStore implementation
// ---------------------------------------------------------------------------

// UpsertCompanies inserts companies, ignoring symbols that already exist.
func (s *SQLiteStore) UpsertCompanies(ctx context.Context, companies []domain.Company) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO companies (symbol, name, sector) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range companies {
		if _, err := stmt.ExecContext(ctx, c.Symbol, c.Name, nullString(c.Sector)); err != nil {
			return fmt.Errorf("inserting company %s: %w", c.Symbol, err)
		}
	}
	return tx.Commit()
}

// Companies returns all companies ordered by name.
func (s *SQLiteStore) Companies(ctx context.Context) ([]domain.Company, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol, name, sector FROM companies ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := []domain.Company{}
	for rows.Next() {
		var c domain.Company
		var sector sql.NullString
		if err := rows.Scan(&c.Symbol, &c.Name, &sector); err != nil {
			return nil, err
		}
		c.Sector = sector.String
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// ---------------------------------------------------------------------------
// BarStore implementation
// ---------------------------------------------------------------------------

// WriteBars inserts or replaces bars in a single transaction.
func (s *SQLiteStore) WriteBars(ctx context.Context, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO stock_data
			(symbol, date, open, high, low, close, volume, daily_return, ma_7)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		_, err := stmt.ExecContext(ctx,
			b.Symbol, b.Date.Format(DateLayout),
			b.Open, b.High, b.Low, b.Close, b.Volume,
			nullFloat(b.DailyReturn), nullFloat(b.MA7))
		if err != nil {
			return fmt.Errorf("writing bar %s/%s: %w", b.Symbol, b.Date.Format(DateLayout), err)
		}
	}
	return tx.Commit()
}

// ReadBars returns bars for symbol within [start, end], oldest first.
func (s *SQLiteStore) ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, date, open, high, low, close, volume, daily_return, ma_7
		FROM stock_data
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`,
		symbol, start.Format(DateLayout), end.Format(DateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		var (
			b          domain.Bar
			date       string
			o, h, l, c sql.NullFloat64
			vol        sql.NullInt64
			ret, ma7   sql.NullFloat64
		)
		if err := rows.Scan(&b.Symbol, &date, &o, &h, &l, &c, &vol, &ret, &ma7); err != nil {
			return nil, err
		}
		b.Date, err = time.Parse(DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parsing date %q: %w", date, err)
		}
		b.Open, b.High, b.Low, b.Close = o.Float64, h.Float64, l.Float64, c.Float64
		b.Volume = vol.Int64
		b.DailyReturn = floatPtr(ret)
		b.MA7 = floatPtr(ma7)
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Series returns the price points of symbol dated on or after since,
// newest first.
func (s *SQLiteStore) Series(ctx context.Context, symbol string, since time.Time) ([]domain.PricePoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, open, high, low, close, volume, daily_return, ma_7
		FROM stock_data
		WHERE symbol = ? AND date >= ?
		ORDER BY date DESC`,
		symbol, since.Format(DateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var (
			p          domain.PricePoint
			o, h, l, c sql.NullFloat64
			vol        sql.NullInt64
			ret, ma7   sql.NullFloat64
		)
		if err := rows.Scan(&p.Date, &o, &h, &l, &c, &vol, &ret, &ma7); err != nil {
			return nil, err
		}
		p.Open, p.High, p.Low, p.Close = floatPtr(o), floatPtr(h), floatPtr(l), floatPtr(c)
		if vol.Valid {
			v := vol.Int64
			p.Volume = &v
		}
		p.DailyReturn, p.MA7 = floatPtr(ret), floatPtr(ma7)
		points = append(points, p)
	}
	return points, rows.Err()
}

// Stats holds the raw (unrounded) aggregates behind a summary.
type Stats struct {
	High, Low   float64
	AvgClose    float64
	AvgVolume   float64
	TradingDays int
	LastClose   *float64
	LastDate    string
}

// Stats aggregates the bars of symbol dated on or after since, plus the
// most recent close overall. It returns nil when no bars match.
func (s *SQLiteStore) Stats(ctx context.Context, symbol string, since time.Time) (*Stats, error) {
	var (
		st         Stats
		high, low  sql.NullFloat64
		avgC, avgV sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(high), MIN(low), AVG(close), AVG(volume), COUNT(*)
		FROM stock_data
		WHERE symbol = ? AND date >= ?`,
		symbol, since.Format(DateLayout)).Scan(&high, &low, &avgC, &avgV, &st.TradingDays)
	if err != nil {
		return nil, err
	}
	if st.TradingDays == 0 {
		return nil, nil
	}
	st.High, st.Low, st.AvgClose, st.AvgVolume = high.Float64, low.Float64, avgC.Float64, avgV.Float64

	var last sql.NullFloat64
	err = s.db.QueryRowContext(ctx, `
		SELECT close, date FROM stock_data
		WHERE symbol = ?
		ORDER BY date DESC LIMIT 1`, symbol).Scan(&last, &st.LastDate)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, err
	}
	st.LastClose = floatPtr(last)
	return &st, nil
}

// Movers ranks symbols by their average daily return over bars dated on or
// after since, keeping only symbols with at least minDays returns. Results
// are descending (gainers) unless ascending is set (losers).
func (s *SQLiteStore) Movers(ctx context.Context, since time.Time, minDays, limit int, ascending bool) ([]domain.InsightEntry, error) {
	order := "DESC"
	if ascending {
		order = "ASC"
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, AVG(daily_return) AS avg_return, COUNT(*) AS days
		FROM stock_data
		WHERE date >= ? AND daily_return IS NOT NULL
		GROUP BY symbol
		HAVING days >= ?
		ORDER BY avg_return `+order+`, symbol ASC
		LIMIT ?`,
		since.Format(DateLayout), minDays, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.InsightEntry{}
	for rows.Next() {
		var e domain.InsightEntry
		if err := rows.Scan(&e.Symbol, &e.AvgReturn, &e.Days); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DailyReturns returns the non-null daily returns of symbol dated on or
// after since, newest first.
func (s *SQLiteStore) DailyReturns(ctx context.Context, symbol string, since time.Time) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT daily_return FROM stock_data
		WHERE symbol = ? AND date >= ? AND daily_return IS NOT NULL
		ORDER BY date DESC`,
		symbol, since.Format(DateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var r float64
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
