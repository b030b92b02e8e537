// Package gate decides whether a symbol is tradable right now. The liquidity
// whitelist is a hard block with no fallback; the calendar, danger-zone and
// expiry checks degrade to allow when their collaborators fail, because a
// stale answer from them must not silence the whole selection path.
package gate

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantroll/stratagem/internal/domain"
)

// Verdict is the gate's answer for one symbol at one instant.
type Verdict struct {
	Allowed bool
	// Reason explains a block; empty when allowed.
	Reason string
	// ConservativeOnly restricts candidates to low-risk hedged structures.
	// Set during elevated danger-zone readings that do not warrant a block.
	ConservativeOnly bool
	// Degraded is set when a secondary check failed and was skipped.
	Degraded bool
}

// Gate runs the pre-selection market checks in severity order: liquidity
// whitelist, event calendar, danger zone, expiry day. The first failing
// check's reason is surfaced.
type Gate struct {
	whitelist map[string]struct{}
	calendar  domain.CalendarSource
	danger    domain.DangerZoneSource
	expiry    domain.ExpirySource
	cacheTTL  time.Duration
	log       zerolog.Logger

	mu    sync.Mutex
	cache map[string]cachedVerdict
}

type cachedVerdict struct {
	verdict Verdict
	at      time.Time
}

// New builds a gate. calendar, danger and expiry may be nil, in which case
// the corresponding check is skipped.
func New(
	whitelist []string,
	calendar domain.CalendarSource,
	danger domain.DangerZoneSource,
	expiry domain.ExpirySource,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *Gate {
	wl := make(map[string]struct{}, len(whitelist))
	for _, s := range whitelist {
		wl[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}
	return &Gate{
		whitelist: wl,
		calendar:  calendar,
		danger:    danger,
		expiry:    expiry,
		cacheTTL:  cacheTTL,
		log:       log.With().Str("component", "market-gate").Logger(),
		cache:     make(map[string]cachedVerdict),
	}
}

// Check evaluates the gate for a symbol. Whitelist rejection is never cached
// away and never degraded; the remaining checks are cached for the TTL.
func (g *Gate) Check(symbol string) Verdict {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))

	if _, ok := g.whitelist[normalized]; !ok {
		// Hard block: an untracked underlying means unknown liquidity,
		// and there is no safe fallback answer.
		return Verdict{Allowed: false, Reason: "instrument " + normalized + " is not on the liquidity whitelist"}
	}

	if g.cacheTTL > 0 {
		g.mu.Lock()
		if c, ok := g.cache[normalized]; ok && time.Since(c.at) < g.cacheTTL {
			g.mu.Unlock()
			return c.verdict
		}
		g.mu.Unlock()
	}

	verdict := g.evaluate(normalized)

	if g.cacheTTL > 0 {
		g.mu.Lock()
		g.cache[normalized] = cachedVerdict{verdict: verdict, at: time.Now()}
		g.mu.Unlock()
	}

	return verdict
}

// Invalidate drops the cached verdict for a symbol.
func (g *Gate) Invalidate(symbol string) {
	g.mu.Lock()
	delete(g.cache, strings.ToUpper(strings.TrimSpace(symbol)))
	g.mu.Unlock()
}

func (g *Gate) evaluate(symbol string) Verdict {
	verdict := Verdict{Allowed: true}

	if g.calendar != nil {
		avoid, reason, err := g.calendar.ShouldAvoidTradingToday(symbol)
		switch {
		case err != nil:
			g.log.Warn().Err(err).Str("symbol", symbol).Msg("Calendar check failed, allowing")
			verdict.Degraded = true
		case avoid:
			return Verdict{Allowed: false, Reason: "calendar: " + reason}
		}
	}

	if g.danger != nil {
		status, err := g.danger.CurrentStatus(symbol)
		switch {
		case err != nil:
			g.log.Warn().Err(err).Str("symbol", symbol).Msg("Danger-zone check failed, allowing")
			verdict.Degraded = true
		case status.Level == domain.DangerCritical || status.Level == domain.DangerEmergency:
			return Verdict{
				Allowed: false,
				Reason:  "danger zone " + string(status.Level),
			}
		case status.Level == domain.DangerRisk:
			verdict.ConservativeOnly = true
			g.log.Info().
				Str("symbol", symbol).
				Float64("change_pct", status.ChangePct).
				Msg("Danger zone RISK, restricting to conservative structures")
		}
	}

	if g.expiry != nil {
		isExpiry, err := g.expiry.IsExpiryDay(symbol)
		switch {
		case err != nil:
			g.log.Warn().Err(err).Str("symbol", symbol).Msg("Expiry check failed, allowing")
			verdict.Degraded = true
		case isExpiry:
			return Verdict{Allowed: false, Reason: "expiry day, no new entries"}
		}
	}

	return verdict
}
