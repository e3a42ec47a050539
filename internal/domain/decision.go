package domain

// Rejection reasons carried by an unapproved Decision. A decision carries the
// first failing check only — checks run in a fixed order and stop at the
// first violation.
const (
	ReasonApproved        = "all_risk_checks_passed"
	ReasonDrawdown        = "hard_stop_loss_exceeded"
	ReasonHourlyTradeCap  = "hourly_trade_limit_reached"
	ReasonDailyLoss       = "daily_loss_limit_reached"
	ReasonOpenPositions   = "max_open_positions_reached"
	ReasonPositionSize    = "position_size_exceeds_limit"
	ReasonLowConfidence   = "confidence_below_threshold"
)

// Decision is the governor's verdict on a signal. A policy rejection is a
// typed result, never an error: Approved is false and Reason names the first
// failing check. Sizing and exit levels are only populated when approved.
type Decision struct {
	Approved     bool
	Reason       string
	PositionSize float64 // notional in quote currency
	StopLoss     float64
	TakeProfit   float64
}

// Reject builds an unapproved decision with the given reason.
func Reject(reason string) Decision {
	return Decision{Approved: false, Reason: reason}
}
