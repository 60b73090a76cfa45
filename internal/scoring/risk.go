package scoring

import (
	"FinRank/internal/domain/models"
	"FinRank/internal/indicator"
)

// riskScore rates risk control from drawdown, distance to support and
// the risk/reward ratio. A broken support forces the dimension to 0
// regardless of the other conditions. Under the downtrend angle the
// dimension is held to a stricter discount.
func riskScore(r models.IndicatorRecord, downtrendAngle float64) float64 {
	supportPts, broken := supportScore(r)
	if broken {
		return 0
	}
	discount := 1.0
	if angle, ok := r.Field(indicator.FieldMA10Angle); ok && angle < downtrendAngle {
		discount = 0.7
	}
	s := drawdownScore(r) + supportPts + riskRewardScore(r)
	return clampScore(s * discount)
}

func drawdownScore(r models.IndicatorRecord) float64 {
	hi, ok := r.Field(indicator.FieldHigh52)
	if !ok || hi <= 0 {
		return 18
	}
	dd := (hi - r.Close) / hi
	switch {
	case dd < 0.10:
		return 40
	case dd < 0.20:
		return 30
	case dd < 0.30:
		return 18
	case dd < 0.40:
		return 8
	default:
		return 0
	}
}

// supportScore returns the support-distance points and whether support
// is broken (close more than 3% below the support level).
func supportScore(r models.IndicatorRecord) (float64, bool) {
	sup, ok := r.Field(indicator.FieldSupport)
	if !ok || sup <= 0 {
		return 10, false
	}
	dist := (r.Close - sup) / sup
	switch {
	case dist > 0.05:
		return 30, false
	case dist >= 0:
		return 20, false
	case dist >= -0.03:
		return 10, false
	default:
		return 0, true
	}
}

// riskRewardScore bands the ratio of remaining upside (to the trailing
// high) against downside (to the trailing low).
func riskRewardScore(r models.IndicatorRecord) float64 {
	hi, okHi := r.Field(indicator.FieldHigh52)
	lo, okLo := r.Field(indicator.FieldLow52)
	if !okHi || !okLo {
		return 10
	}
	down := r.Close - lo
	if down <= 0 {
		return 3
	}
	rr := (hi - r.Close) / down
	switch {
	case rr >= 2:
		return 30
	case rr >= 1:
		return 20
	case rr >= 0.5:
		return 10
	default:
		return 3
	}
}
