package models

import "time"

// MarketEnvironment is a coarse regime tag used to re-weight scoring dimensions.
type MarketEnvironment string

const (
	EnvBull     MarketEnvironment = "bull"
	EnvBear     MarketEnvironment = "bear"
	EnvVolatile MarketEnvironment = "volatile"
	EnvNormal   MarketEnvironment = "normal"
)

// Valid reports whether the environment is one of the defined regimes.
func (e MarketEnvironment) Valid() bool {
	switch e {
	case EnvBull, EnvBear, EnvVolatile, EnvNormal:
		return true
	}
	return false
}

// ScoreLevel is one of five ordered composite-score labels.
type ScoreLevel string

const (
	LevelExcellent ScoreLevel = "excellent"
	LevelGood      ScoreLevel = "good"
	LevelNeutral   ScoreLevel = "neutral"
	LevelWeak      ScoreLevel = "weak"
	LevelPoor      ScoreLevel = "poor"
)

// DimensionWeights holds the base weight of each scoring dimension.
type DimensionWeights struct {
	Trend     float64 `yaml:"trend" default:"0.45" validate:"gte=0,lte=1"`
	Capital   float64 `yaml:"capital" default:"0.20" validate:"gte=0,lte=1"`
	Technical float64 `yaml:"technical" default:"0.20" validate:"gte=0,lte=1"`
	Risk      float64 `yaml:"risk" default:"0.15" validate:"gte=0,lte=1"`
}

// ScoreRecord is the immutable output of one scoring pass for one
// instrument on one date. The next pass supersedes it rather than
// mutating it.
type ScoreRecord struct {
	InstrumentID   string
	Date           time.Time
	TrendScore     float64
	CapitalScore   float64
	TechnicalScore float64
	RiskScore      float64
	CompositeScore float64
	Level          ScoreLevel
	WeightsUsed    DimensionWeights
	Environment    MarketEnvironment
	ComputedAt     time.Time
}
