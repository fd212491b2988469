package utils

import (
	"log"
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// TradingCalendar answers trading-day and market-hours questions for the
// exchange a code trades on, backed by scmhub/calendar.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// Suffix to MIC (ISO 10383) mapping. Unsuffixed codes are treated as ASX
// listings since the watchlist is Australian-first; currency pairs and
// commodities have no exchange session and also fall through to ASX hours
// for refresh pacing.
var suffixMIC = map[string]string{
	".AX": "xasx",
	".NZ": "xnze",
	".L":  "xlon",
	".PA": "xpar",
	".DE": "xfra",
	".AS": "xams",
	".MI": "xmil",
	".ST": "xsto",
	".SW": "xswx",
	".TO": "xtse",
	".T":  "xtks",
	".HK": "xhkg",
	".KS": "xkrx",
	".SS": "xshg",
	".SZ": "xshe",
}

// -----------------------------------------------------------------------------

func GetCalendar(code string) *TradingCalendar {
	mic := "xasx"
	if idx := strings.LastIndex(code, "."); idx >= 0 {
		if m, ok := suffixMIC[code[idx:]]; ok {
			mic = m
		} else {
			// Unknown suffix: assume a US listing
			mic = "xnys"
		}
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar("xasx")
	}

	if cal == nil {
		log.Printf("WARNING: no calendar for MIC '%s', using Mon-Fri 10:00-16:00 Sydney fallback", mic)
		sydney, _ := time.LoadLocation("Australia/Sydney")
		if sydney == nil {
			sydney = time.UTC
		}
		return &TradingCalendar{Fallback: true, Timezone: sydney}
	}

	return &TradingCalendar{Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute reports whether the exchange is open at a specific minute.
func (tc *TradingCalendar) IsOpenOnMinute(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}

		// ASX cash session, 10:00 - 16:00 Sydney
		hour := t.Hour()
		return hour >= 10 && hour < 16
	}

	return tc.Calendar.IsOpen(t)
}
