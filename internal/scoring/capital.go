package scoring

import (
	"FinRank/internal/domain/models"
	"FinRank/internal/indicator"
)

// capitalScore rates capital power from volume/price co-movement,
// net-inflow bands, large-order participation and the volume-trend
// class. Every component is discounted when the mid-window slope falls
// below the downtrend angle: inflow readings are not trusted against a
// falling trend.
func capitalScore(r models.IndicatorRecord, downtrendAngle float64) float64 {
	discount := 1.0
	if angle, ok := r.Field(indicator.FieldMA10Angle); ok && angle < downtrendAngle {
		discount = 0.5
	}
	s := coMovementScore(r) + netInflowScore(r) + largeOrderScore(r) + volumeTrendScore(r)
	return clampScore(s * discount)
}

func coMovementScore(r models.IndicatorRecord) float64 {
	corr, ok := r.Field(indicator.FieldVPCorr)
	if !ok {
		return 12
	}
	switch {
	case corr > 0.5:
		return 30
	case corr > 0.2:
		return 20
	case corr > -0.2:
		return 12
	default:
		return 5
	}
}

func netInflowScore(r models.IndicatorRecord) float64 {
	nir, ok := r.Field(indicator.FieldNetInflowRatio)
	if !ok {
		return 12
	}
	switch {
	case nir > 0.3:
		return 30
	case nir > 0.1:
		return 22
	case nir > -0.1:
		return 12
	case nir > -0.3:
		return 6
	default:
		return 0
	}
}

func largeOrderScore(r models.IndicatorRecord) float64 {
	lor, ok := r.Field(indicator.FieldLargeOrderRatio)
	if !ok {
		return 8
	}
	switch {
	case lor > 0.4:
		return 20
	case lor > 0.25:
		return 14
	case lor > 0.1:
		return 8
	default:
		return 3
	}
}

func volumeTrendScore(r models.IndicatorRecord) float64 {
	code, ok := r.Field(indicator.FieldVolumeTrend)
	if !ok {
		return 4
	}
	switch code {
	case indicator.VolumeTrendIncreasing:
		return 20
	case indicator.VolumeTrendIntermittent:
		return 12
	case indicator.VolumeTrendStable:
		return 8
	default:
		return 4
	}
}
