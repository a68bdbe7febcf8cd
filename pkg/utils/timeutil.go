package utils

import (
	"time"
)

// Eastern is the America/Toronto location. NYSE and TSX both trade on Eastern time.
var Eastern *time.Location

func init() {
	var err error
	Eastern, err = time.LoadLocation("America/Toronto")
	if err != nil {
		// Fallback: fixed EST if the tz database is not available
		Eastern = time.FixedZone("EST", -5*60*60)
	}
}

// Exchange identifies a listing venue covered by the screening universes.
type Exchange string

const (
	NYSE Exchange = "NYSE"
	TSX  Exchange = "TSX"
)

// ExchangeOf returns the venue a ticker trades on, judged by its suffix.
func ExchangeOf(ticker string) Exchange {
	if IsCanadian(ticker) {
		return TSX
	}
	return NYSE
}

// NowEastern returns the current time in Eastern time.
func NowEastern() time.Time {
	return time.Now().In(Eastern)
}

// MarketOpenTime returns the regular-session open (9:30 AM ET) for a given date.
func MarketOpenTime(date time.Time) time.Time {
	d := date.In(Eastern)
	return time.Date(d.Year(), d.Month(), d.Day(), 9, 30, 0, 0, Eastern)
}

// MarketCloseTime returns the regular-session close (4:00 PM ET) for a given date.
func MarketCloseTime(date time.Time) time.Time {
	d := date.In(Eastern)
	return time.Date(d.Year(), d.Month(), d.Day(), 16, 0, 0, 0, Eastern)
}

// IsMarketOpenAt checks if the exchange would be open at the given time.
func IsMarketOpenAt(ex Exchange, t time.Time) bool {
	t = t.In(Eastern)
	if !IsTradingDay(ex, t) {
		return false
	}
	return !t.Before(MarketOpenTime(t)) && t.Before(MarketCloseTime(t))
}

// IsTradingDay checks if the given date is a trading day (not weekend, not holiday).
func IsTradingDay(ex Exchange, t time.Time) bool {
	t = t.In(Eastern)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !IsTradingHoliday(ex, t)
}

// NextTradingDay returns the next trading day strictly after from.
func NextTradingDay(ex Exchange, from time.Time) time.Time {
	next := from.In(Eastern).AddDate(0, 0, 1)
	for !IsTradingDay(ex, next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// IsTradingHoliday checks if the given date is a full-day holiday on the exchange.
// The calendars cover 2026 only.
func IsTradingHoliday(ex Exchange, t time.Time) bool {
	_, ok := HolidayName(ex, t)
	return ok
}

// HolidayName returns the holiday observed by the exchange on t, if any.
func HolidayName(ex Exchange, t time.Time) (string, bool) {
	dateStr := t.In(Eastern).Format("2006-01-02")
	switch ex {
	case TSX:
		name, ok := tsxHolidays2026[dateStr]
		return name, ok
	default:
		name, ok := nyseHolidays2026[dateStr]
		return name, ok
	}
}

var nyseHolidays2026 = map[string]string{
	"2026-01-01": "New Year's Day",
	"2026-01-19": "Martin Luther King Jr. Day",
	"2026-02-16": "Washington's Birthday",
	"2026-04-03": "Good Friday",
	"2026-05-25": "Memorial Day",
	"2026-06-19": "Juneteenth",
	"2026-07-03": "Independence Day (observed)",
	"2026-09-07": "Labor Day",
	"2026-11-26": "Thanksgiving Day",
	"2026-12-25": "Christmas Day",
}

var tsxHolidays2026 = map[string]string{
	"2026-01-01": "New Year's Day",
	"2026-02-16": "Family Day",
	"2026-04-03": "Good Friday",
	"2026-05-18": "Victoria Day",
	"2026-07-01": "Canada Day",
	"2026-08-03": "Civic Holiday",
	"2026-09-07": "Labour Day",
	"2026-10-12": "Thanksgiving Day",
	"2026-12-25": "Christmas Day",
	"2026-12-28": "Boxing Day (observed)",
}

// MarketStatus describes the exchange session at now: "OPEN", "PRE-MARKET",
// "CLOSED" or "CLOSED (<reason>)".
func MarketStatus(ex Exchange, now time.Time) string {
	now = now.In(Eastern)

	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return "CLOSED (Weekend)"
	}
	if holiday, ok := HolidayName(ex, now); ok {
		return "CLOSED (" + holiday + ")"
	}

	switch {
	case now.Before(MarketOpenTime(now)):
		return "PRE-MARKET"
	case now.Before(MarketCloseTime(now)):
		return "OPEN"
	default:
		return "CLOSED"
	}
}
