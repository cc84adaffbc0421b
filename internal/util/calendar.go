package util

import (
	"time"
)

// TradingCalendar provides weekday-based session awareness for an exchange
// whose regular session closes at a fixed local time. Exchange holidays are
// not modelled; a holiday simply yields no bars from the data source.
type TradingCalendar struct {
	loc         *time.Location
	closeHour   int
	closeMinute int
}

// NewTradingCalendar creates a TradingCalendar for an exchange in loc whose
// session closes at closeHour:closeMinute local time.
func NewTradingCalendar(loc *time.Location, closeHour, closeMinute int) *TradingCalendar {
	if loc == nil {
		loc = time.UTC
	}
	return &TradingCalendar{
		loc:         loc,
		closeHour:   closeHour,
		closeMinute: closeMinute,
	}
}

// NSECalendar returns the calendar for the National Stock Exchange of India
// (session close 15:30 IST). Falls back to a fixed +05:30 zone when the tz
// database is unavailable.
func NSECalendar() *TradingCalendar {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+1800)
	}
	return NewTradingCalendar(loc, 15, 30)
}

// IsTradingDay reports whether t falls on a weekday in the exchange's zone.
func (tc *TradingCalendar) IsTradingDay(t time.Time) bool {
	switch t.In(tc.loc).Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// LatestFinishedTradingDay returns midnight (exchange time) of the most
// recent trading day whose session had closed at or before now.
func (tc *TradingCalendar) LatestFinishedTradingDay(now time.Time) time.Time {
	local := now.In(tc.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tc.loc)
	closeAt := day.Add(time.Duration(tc.closeHour)*time.Hour + time.Duration(tc.closeMinute)*time.Minute)
	if local.Before(closeAt) {
		day = day.AddDate(0, 0, -1)
	}
	for !tc.IsTradingDay(day) {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// Location returns the exchange's time zone.
func (tc *TradingCalendar) Location() *time.Location {
	return tc.loc
}
