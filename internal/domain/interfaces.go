package domain

import "time"

// CalendarSource is the event-calendar collaborator. Lookups are served from
// the collaborator's own cache; refresh/timeout is its responsibility.
type CalendarSource interface {
	// ShouldAvoidTradingToday reports whether high-impact events block new
	// entries for the symbol today, with a human-readable reason.
	ShouldAvoidTradingToday(symbol string) (bool, string, error)

	// UpcomingEvents returns the scheduled events within the window.
	UpcomingEvents(window time.Duration) ([]CalendarEvent, error)
}

// DangerZoneSource classifies the current intraday index-move severity.
type DangerZoneSource interface {
	CurrentStatus(symbol string) (DangerStatus, error)
}

// ExpirySource answers expiry-calendar questions for a symbol.
type ExpirySource interface {
	IsExpiryDay(symbol string) (bool, error)
	DaysToExpiry(symbol string) (int, error)
}

// SignalSink receives every emitted StrategySignal. The order-execution
// collaborator and the diagnostic stream both sit behind this.
type SignalSink interface {
	Publish(signal StrategySignal)
}
