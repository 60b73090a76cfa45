package scoring

import (
	"FinRank/internal/domain/models"
	"FinRank/internal/indicator"
)

// technicalScore rates oscillator health, convergence-divergence
// ordering, stochastic crossover state and band position, under the same
// downtrend discount as the capital dimension.
func technicalScore(r models.IndicatorRecord, downtrendAngle float64) float64 {
	discount := 1.0
	if angle, ok := r.Field(indicator.FieldMA10Angle); ok && angle < downtrendAngle {
		discount = 0.5
	}
	s := oscillatorScore(r) + convergenceScore(r) + stochasticScore(r) + bandPositionScore(r)
	return clampScore(s * discount)
}

// oscillatorScore: the healthy mid band scores best; both extremes read
// as risk, with deep oversold kept above deep overbought for the rebound
// case.
func oscillatorScore(r models.IndicatorRecord) float64 {
	v, ok := r.Field(indicator.FieldRSI12)
	if !ok {
		return 12
	}
	switch {
	case v >= 45 && v <= 65:
		return 30
	case v >= 30 && v < 45:
		return 20
	case v > 65 && v <= 75:
		return 15
	case v < 30:
		return 10
	default:
		return 5
	}
}

func convergenceScore(r models.IndicatorRecord) float64 {
	dif, okDif := r.Field(indicator.FieldMACDDif)
	dea, okDea := r.Field(indicator.FieldMACDDea)
	hist, okHist := r.Field(indicator.FieldMACDHist)
	if !okDif || !okDea || !okHist {
		return 10
	}
	switch {
	case dif > dea && hist > 0 && dif > 0:
		return 25
	case dif > dea:
		return 18
	case hist > 0:
		return 12
	default:
		return 5
	}
}

func stochasticScore(r models.IndicatorRecord) float64 {
	k, okK := r.Field(indicator.FieldKDJK)
	d, okD := r.Field(indicator.FieldKDJD)
	if !okK || !okD {
		return 10
	}
	switch {
	case k > d && k < 80 && d < 80:
		return 25
	case k > d:
		return 12
	case k < d && k < 20:
		return 10
	default:
		return 5
	}
}

func bandPositionScore(r models.IndicatorRecord) float64 {
	mid, okMid := r.Field(indicator.FieldBollMid)
	upper, okUp := r.Field(indicator.FieldBollUpper)
	lower, okLo := r.Field(indicator.FieldBollLower)
	if !okMid || !okUp || !okLo {
		return 10
	}
	close := r.Close
	switch {
	case close > upper:
		return 8
	case close >= mid:
		return 20
	case close >= lower:
		return 12
	default:
		return 4
	}
}
