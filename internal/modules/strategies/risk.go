package strategies

// RiskAction is the single action a risk tick resolves to.
type RiskAction string

const (
	RiskNone       RiskAction = "NONE"
	RiskSoftWarn   RiskAction = "SOFT_WARN"
	RiskHardStop   RiskAction = "HARD_STOP"
	RiskTakeProfit RiskAction = "TAKE_PROFIT"

	// Variant-specific advisories
	RiskExitTestedSide RiskAction = "EXIT_TESTED_SIDE"
	RiskAdjustHedge    RiskAction = "ADJUST_HEDGE"
	RiskDeltaRebalance RiskAction = "DELTA_REBALANCE"
)

// softWarnFraction of the stop distance at which a warning fires.
const softWarnFraction = 0.7

// advisoryFunc lets a variant contribute its own advisory check. It runs only
// after the stop and target checks have both declined.
type advisoryFunc func(mtm float64, ctx RiskContext) RiskAction

// evalRiskLadder resolves a tick against the shared precedence ladder:
// stop-loss breach first, then take-profit, then the variant advisory, then
// the soft warning. A tick that satisfies both the stop and a lower rung
// always yields the stop - the ordering here is the contract, not a
// performance detail.
func evalRiskLadder(mtm float64, th Profile, ctx RiskContext, advisory advisoryFunc) RiskAction {
	lots := ctx.Lots
	if lots < 1 {
		lots = 1
	}

	stopLevel := -th.StopPerLot * float64(lots)
	targetLevel := th.TargetPerLot * float64(lots)

	if mtm <= stopLevel {
		return RiskHardStop
	}
	if mtm >= targetLevel {
		return RiskTakeProfit
	}
	if advisory != nil {
		if action := advisory(mtm, ctx); action != RiskNone {
			return action
		}
	}
	if mtm <= stopLevel*softWarnFraction {
		return RiskSoftWarn
	}
	return RiskNone
}
