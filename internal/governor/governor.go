package governor

import (
	"github.com/alejandrodnm/chimera/config"
	"github.com/alejandrodnm/chimera/internal/domain"
)

// Governor evaluates trade signals against the immutable risk limits. It is a
// pure function over (signal, account): no clock, no side effects, no state.
// Policy violations come back as an unapproved Decision carrying the first
// failing check; only structurally invalid input produces an error.
type Governor struct {
	limits config.RiskLimits
}

// New builds a governor with the given limits.
func New(limits config.RiskLimits) *Governor {
	return &Governor{limits: limits}
}

// Evaluate runs the risk checks in strict order and, when all pass, sizes the
// position and derives the exit levels. The decision always precedes the
// executor: the executor never re-checks limits.
//
// Check order: drawdown hard stop, hourly trade cap, daily loss cap, open
// position cap, proposed size cap, confidence floor.
func (g *Governor) Evaluate(sig domain.Signal, acct domain.AccountState) (domain.Decision, error) {
	if err := sig.Validate(); err != nil {
		return domain.Decision{}, err
	}

	if acct.Drawdown >= g.limits.HardStopLoss {
		return domain.Reject(domain.ReasonDrawdown), nil
	}
	if acct.TradesLastHour >= g.limits.MaxTradesPerHour {
		return domain.Reject(domain.ReasonHourlyTradeCap), nil
	}
	if acct.DailyPnL <= -g.limits.MaxDailyLoss {
		return domain.Reject(domain.ReasonDailyLoss), nil
	}
	if acct.OpenPositions >= g.limits.MaxOpenPositions {
		return domain.Reject(domain.ReasonOpenPositions), nil
	}

	ceiling := domain.AllowedSize(acct.Balance, g.limits.CapitalCap, g.limits.MaxPosition)
	if sig.SizeHint > ceiling {
		return domain.Reject(domain.ReasonPositionSize), nil
	}
	if sig.Confidence < g.limits.MinConfidence {
		return domain.Reject(domain.ReasonLowConfidence), nil
	}

	return domain.Decision{
		Approved:     true,
		Reason:       domain.ReasonApproved,
		PositionSize: domain.ScaledSize(ceiling, sig.SizeHint, sig.Confidence),
		StopLoss:     domain.StopPrice(sig.Price, g.limits.StopLossPct),
		TakeProfit:   domain.TakePrice(sig.Price, g.limits.TakeProfitPct),
	}, nil
}
