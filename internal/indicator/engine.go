package indicator

import (
	"fmt"

	"FinRank/internal/domain/models"
	applogger "FinRank/pkg/logger"
)

// Config holds tunable indicator parameters. Zero values are replaced by
// defaults in New.
type Config struct {
	VolumeRatioWindow int     `yaml:"volume_ratio_window" default:"10" validate:"gte=2"`
	BollWindow        int     `yaml:"boll_window" default:"20" validate:"gte=2"`
	BollMultiplier    float64 `yaml:"boll_multiplier" default:"2" validate:"gt=0"`
	PositionWindow    int     `yaml:"position_window" default:"52" validate:"gte=2"`
	AngleScale        float64 `yaml:"angle_scale" default:"100" validate:"gt=0"`
}

// DefaultConfig returns the standard parameter set.
func DefaultConfig() Config {
	return Config{
		VolumeRatioWindow: 10,
		BollWindow:        20,
		BollMultiplier:    2,
		PositionWindow:    52,
		AngleScale:        100,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.VolumeRatioWindow < 2 {
		c.VolumeRatioWindow = d.VolumeRatioWindow
	}
	if c.BollWindow < 2 {
		c.BollWindow = d.BollWindow
	}
	if c.BollMultiplier <= 0 {
		c.BollMultiplier = d.BollMultiplier
	}
	if c.PositionWindow < 2 {
		c.PositionWindow = d.PositionWindow
	}
	if c.AngleScale <= 0 {
		c.AngleScale = d.AngleScale
	}
	return c
}

// Engine computes indicator columns from bar series. It is pure: no I/O,
// no shared mutable state, safe for concurrent use.
type Engine struct {
	cfg Config
	log *applogger.Logger
}

// New creates an indicator engine.
func New(cfg Config, log *applogger.Logger) *Engine {
	return &Engine{cfg: cfg.withDefaults(), log: log}
}

// Compute returns one IndicatorRecord per input bar, carrying every field
// the requested indicators produced. Unknown names are skipped with a
// warning. A failure inside one formula is isolated: its columns are
// omitted and the remaining indicators still run. Warm-up rows keep the
// affected fields absent.
func (e *Engine) Compute(series models.BarSeries, names []string) ([]models.IndicatorRecord, error) {
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("indicator input: %w", err)
	}

	recs := make([]models.IndicatorRecord, len(series.Bars))
	for i, b := range series.Bars {
		recs[i] = models.NewIndicatorRecord(b)
	}

	for _, name := range names {
		kind, ok := ParseKind(name)
		if !ok {
			if e.log != nil {
				e.log.Warn("unknown indicator skipped",
					applogger.String("indicator", name),
					applogger.String("instrument", series.InstrumentID))
			}
			continue
		}
		cols, err := e.computeKind(kind, series.Bars)
		if err != nil {
			if e.log != nil {
				e.log.Error("indicator failed, columns omitted",
					applogger.String("indicator", kind.String()),
					applogger.String("instrument", series.InstrumentID),
					applogger.Error(err))
			}
			continue
		}
		for _, c := range cols {
			for i := range recs {
				if c.ok[i] {
					recs[i].Fields[c.name] = c.vals[i]
				}
			}
		}
	}
	return recs, nil
}

// ComputeBatch runs Compute over several series, preserving input order in
// the merged output. A series that fails its contract check fails the
// whole call: malformed input is a contract error, not a data condition.
func (e *Engine) ComputeBatch(batch []models.BarSeries, names []string) ([]models.IndicatorRecord, error) {
	out := make([]models.IndicatorRecord, 0)
	for _, s := range batch {
		recs, err := e.Compute(s, names)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

// computeKind runs one formula with panic isolation.
func (e *Engine) computeKind(k Kind, bars []models.Bar) (cols []column, err error) {
	defer func() {
		if r := recover(); r != nil {
			cols = nil
			err = fmt.Errorf("indicator %s panic: %v", k, r)
		}
	}()
	fn := registry[k]
	if fn == nil {
		return nil, fmt.Errorf("indicator %s not registered", k)
	}
	return fn(e.cfg, bars), nil
}
