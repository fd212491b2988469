package utils

import (
	"sync"
	"time"

	"portfolio-observer/src/logger"
)

// MarketScheduler tracks the exchange calendars behind the watched codes so
// the feed can slow its polling when every relevant market is closed.
type MarketScheduler struct {
	Calendars map[string]*TradingCalendar
	Logger    *logger.Logger
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(codes []string, l *logger.Logger) *MarketScheduler {
	ms := &MarketScheduler{
		Calendars: make(map[string]*TradingCalendar),
		Logger:    l,
	}
	ms.mapCodes(codes)
	return ms
}

// -----------------------------------------------------------------------------

func (ms *MarketScheduler) mapCodes(codes []string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	// Full rebuild so codes removed from the watchlist drop out too.
	ms.Calendars = make(map[string]*TradingCalendar)

	for _, code := range codes {
		if cal := GetCalendar(code); cal != nil {
			ms.Calendars[code] = cal
		}
	}

	uniqueCals := make(map[*TradingCalendar]bool)
	for _, cal := range ms.Calendars {
		uniqueCals[cal] = true
	}

	ms.Logger.Info("MarketScheduler: mapped %d codes to %d calendars",
		len(codes), len(uniqueCals))
}

// UpdateCodes rebuilds the calendar mapping after a watchlist change.
func (ms *MarketScheduler) UpdateCodes(codes []string) {
	ms.mapCodes(codes)
}

// -----------------------------------------------------------------------------

// AnyMarketOpen reports whether any tracked exchange is currently in session.
func (ms *MarketScheduler) AnyMarketOpen() bool {
	now := time.Now().UTC()

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	uniqueCals := make(map[*TradingCalendar]bool)
	for _, cal := range ms.Calendars {
		uniqueCals[cal] = true
	}

	if len(uniqueCals) == 0 {
		return false
	}

	for cal := range uniqueCals {
		if cal.IsOpenOnMinute(now) {
			return true
		}
	}

	return false
}
