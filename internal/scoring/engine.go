package scoring

import (
	"context"
	"fmt"
	"time"

	"FinRank/internal/domain/models"
	domrepo "FinRank/internal/domain/repository"
	applogger "FinRank/pkg/logger"
)

// Config holds scoring parameters. Weights and factor tables missing
// from configuration fall back to the documented defaults.
type Config struct {
	Weights        models.DimensionWeights `yaml:"weights"`
	DowntrendAngle float64                 `yaml:"downtrend_angle" default:"-10"`
	NullRatioWarn  float64                 `yaml:"null_ratio_warn" default:"0.2" validate:"gte=0,lte=1"`
	// Multiplicative adjustment factors by industry label and market-cap
	// bucket. A label absent from the table adjusts by 1.0.
	IndustryFactors  map[string]float64 `yaml:"industry_factors"`
	CapBucketFactors map[string]float64 `yaml:"cap_bucket_factors"`
}

// DefaultConfig returns the documented default weights and thresholds.
func DefaultConfig() Config {
	return Config{
		Weights:        models.DimensionWeights{Trend: 0.45, Capital: 0.20, Technical: 0.20, Risk: 0.15},
		DowntrendAngle: -10,
		NullRatioWarn:  0.2,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Weights == (models.DimensionWeights{}) {
		c.Weights = d.Weights
	}
	if c.DowntrendAngle == 0 {
		c.DowntrendAngle = d.DowntrendAngle
	}
	if c.NullRatioWarn <= 0 {
		c.NullRatioWarn = d.NullRatioWarn
	}
	return c
}

// Engine computes dimension scores and weighted composites from
// indicator records. Pure apart from emitted log and metric events.
type Engine struct {
	cfg      Config
	log      *applogger.Logger
	metrics  domrepo.Metrics
	warnings *applogger.WarningCollector
	now      func() time.Time
}

// New creates a scoring engine. log and metrics may be nil.
func New(cfg Config, log *applogger.Logger, metrics domrepo.Metrics) *Engine {
	return &Engine{
		cfg:      cfg.withDefaults(),
		log:      log,
		metrics:  metrics,
		warnings: applogger.NewWarningCollector(),
		now:      time.Now,
	}
}

// Score computes one ScoreRecord per input record under the given market
// environment. cls may be nil; then every categorical adjustment is 1.0.
// An undefined environment is a contract error. Data-quality findings
// come back as advisory warnings, never as errors.
func (e *Engine) Score(ctx context.Context, recs []models.IndicatorRecord, env models.MarketEnvironment, cls domrepo.ClassificationSource) ([]models.ScoreRecord, []models.Warning, error) {
	if !env.Valid() {
		return nil, nil, fmt.Errorf("scoring: undefined market environment %q", env)
	}

	e.precheck(ctx, recs, cls)

	mult := environmentTable[env]
	w := e.cfg.Weights
	computedAt := e.now()

	out := make([]models.ScoreRecord, 0, len(recs))
	for _, r := range recs {
		trend := trendScore(r)
		capital := capitalScore(r, e.cfg.DowntrendAngle)
		technical := technicalScore(r, e.cfg.DowntrendAngle)
		risk := riskScore(r, e.cfg.DowntrendAngle)

		composite := trend*w.Trend*mult.Trend +
			capital*w.Capital*mult.Capital +
			technical*w.Technical*mult.Technical +
			risk*w.Risk*mult.Risk
		composite = clampScore(composite)
		composite = clampScore(composite * e.adjustment(ctx, r.InstrumentID, cls))

		level := levelFor(composite)
		if e.metrics != nil {
			e.metrics.RecordScore(string(level))
		}

		out = append(out, models.ScoreRecord{
			InstrumentID:   r.InstrumentID,
			Date:           r.Date,
			TrendScore:     trend,
			CapitalScore:   capital,
			TechnicalScore: technical,
			RiskScore:      risk,
			CompositeScore: composite,
			Level:          level,
			WeightsUsed:    w,
			Environment:    env,
			ComputedAt:     computedAt,
		})
	}

	warnings := e.drainWarnings()
	return out, warnings, nil
}

// adjustment multiplies the industry and cap-bucket factors for an
// instrument; any missing classification or table entry contributes 1.0.
func (e *Engine) adjustment(ctx context.Context, instrumentID string, cls domrepo.ClassificationSource) float64 {
	if cls == nil {
		return 1.0
	}
	c, ok := cls.Lookup(ctx, instrumentID)
	if !ok {
		return 1.0
	}
	factor := 1.0
	if f, ok := e.cfg.IndustryFactors[c.Industry]; ok {
		factor *= f
	}
	if f, ok := e.cfg.CapBucketFactors[c.CapBucket]; ok {
		factor *= f
	}
	return factor
}

func (e *Engine) drainWarnings() []models.Warning {
	collected := e.warnings.Drain()
	if len(collected) == 0 {
		return nil
	}
	out := make([]models.Warning, 0, len(collected))
	for _, w := range collected {
		if e.metrics != nil {
			e.metrics.RecordWarning(w.Kind)
		}
		out = append(out, models.Warning{Kind: w.Kind, Message: w.Message, Count: w.Count})
	}
	return out
}
