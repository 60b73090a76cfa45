package scoring

import (
	"FinRank/internal/domain/models"
	"FinRank/internal/indicator"
)

// trendScore rates trend strength from moving-average ordering, slope,
// position against the trailing range, and volatility stability. A field
// the indicator pass could not produce scores its component at the
// neutral band, never at zero.
func trendScore(r models.IndicatorRecord) float64 {
	s := arrangementScore(r) + slopeScore(r) + positionScore(r) + stabilityScore(r)
	return clampScore(s)
}

// arrangementScore: full bullish short<mid<long alignment scores highest,
// degraded alignments lower, full bearish at the floor of 3.
func arrangementScore(r models.IndicatorRecord) float64 {
	sma5, ok5 := r.Field(indicator.FieldSMA5)
	sma10, ok10 := r.Field(indicator.FieldSMA10)
	sma20, ok20 := r.Field(indicator.FieldSMA20)
	if !ok5 || !ok10 || !ok20 {
		return 8
	}
	switch {
	case sma5 > sma10 && sma10 > sma20:
		return 30
	case sma5 > sma10:
		return 20
	case sma10 > sma20:
		return 15
	case sma5 < sma10 && sma10 < sma20:
		return 3
	default:
		return 8
	}
}

// slopeScore buckets the mid-window price angle. The sweet band is a
// moderate positive slope; an angle past 45 degrees reads overextended.
func slopeScore(r models.IndicatorRecord) float64 {
	angle, ok := r.Field(indicator.FieldMA10Angle)
	if !ok {
		return 8
	}
	switch {
	case angle > 45:
		return 18
	case angle > 15:
		return 25
	case angle > 5:
		return 15
	case angle > -5:
		return 8
	case angle > -15:
		return 4
	default:
		return 0
	}
}

// positionScore places the close inside the trailing high/low range. A
// new trailing high scores highest; below the trailing low scores 0.
func positionScore(r models.IndicatorRecord) float64 {
	hi, okHi := r.Field(indicator.FieldHigh52)
	lo, okLo := r.Field(indicator.FieldLow52)
	if !okHi || !okLo || hi <= lo {
		return 8
	}
	close := r.Close
	switch {
	case close >= hi:
		return 25
	case close < lo:
		return 0
	}
	pos := (close - lo) / (hi - lo)
	switch {
	case pos >= 0.8:
		return 20
	case pos >= 0.5:
		return 15
	case pos >= 0.2:
		return 8
	default:
		return 4
	}
}

// stabilityScore rewards low trailing volatility.
func stabilityScore(r models.IndicatorRecord) float64 {
	vol, ok := r.Field(indicator.FieldVol20)
	if !ok {
		return 5
	}
	switch {
	case vol < 0.15:
		return 15
	case vol < 0.25:
		return 10
	case vol < 0.35:
		return 5
	default:
		return 0
	}
}
