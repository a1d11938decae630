package util

import (
	"time"
)

// TradingCalendar provides trading-day awareness for the mainland and Hong
// Kong sessions. Exchange holidays are not modelled; a day counts as a
// trading day when it falls on a weekday. Daily-bar fetching only needs
// weekends excluded, since the quote service returns no rows for holidays.
type TradingCalendar struct{}

// NewTradingCalendar creates a TradingCalendar.
func NewTradingCalendar() *TradingCalendar {
	return &TradingCalendar{}
}

// IsTradingDay reports whether t falls on a weekday.
func (tc *TradingCalendar) IsTradingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// NextTradingDay returns the first trading day at or after t, truncated to
// midnight in t's location.
func (tc *TradingCalendar) NextTradingDay(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	for !tc.IsTradingDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// TradingDays returns the number of trading days in [start, end], inclusive.
func (tc *TradingCalendar) TradingDays(start, end time.Time) int {
	n := 0
	for d := tc.NextTradingDay(start); !d.After(end); d = d.AddDate(0, 0, 1) {
		if tc.IsTradingDay(d) {
			n++
		}
	}
	return n
}
