package scoring

import "FinRank/internal/domain/models"

// Environment multiplier tables. Each regime re-weights the four
// dimensions before the composite sum; normal is the identity.
type envMultipliers struct {
	Trend     float64
	Capital   float64
	Technical float64
	Risk      float64
}

var environmentTable = map[models.MarketEnvironment]envMultipliers{
	models.EnvBull:     {Trend: 1.10, Capital: 1.10, Technical: 0.90, Risk: 0.90},
	models.EnvBear:     {Trend: 0.80, Capital: 0.90, Technical: 1.10, Risk: 1.30},
	models.EnvVolatile: {Trend: 0.90, Capital: 1.00, Technical: 1.20, Risk: 1.10},
	models.EnvNormal:   {Trend: 1.00, Capital: 1.00, Technical: 1.00, Risk: 1.00},
}

// Composite thresholds for the five ordered levels.
func levelFor(composite float64) models.ScoreLevel {
	switch {
	case composite >= 85:
		return models.LevelExcellent
	case composite >= 70:
		return models.LevelGood
	case composite >= 55:
		return models.LevelNeutral
	case composite >= 40:
		return models.LevelWeak
	default:
		return models.LevelPoor
	}
}

// clampScore bounds a dimension or composite score to [0,100].
func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
