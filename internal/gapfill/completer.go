package gapfill

import (
	"fmt"
	"sort"
	"time"

	"FinRank/internal/domain/models"
	applogger "FinRank/pkg/logger"
)

// Strategy selects how a missing trading date is filled.
type Strategy string

const (
	StrategyForward  Strategy = "forward"
	StrategyBackward Strategy = "backward"
	StrategyLinear   Strategy = "linear"
)

// Config bounds the completion pass.
type Config struct {
	Strategy         Strategy `yaml:"strategy" default:"forward" validate:"oneof=forward backward linear"`
	MaxFillDays      int      `yaml:"max_fill_days" default:"5" validate:"gte=1"`
	QualityThreshold float64  `yaml:"quality_threshold" default:"0.6" validate:"gte=0,lte=1"`
}

// DefaultConfig returns the standard completion parameters.
func DefaultConfig() Config {
	return Config{Strategy: StrategyForward, MaxFillDays: 5, QualityThreshold: 0.6}
}

// Completer detects and fills missing trading dates in a bar series
// against an externally supplied trading calendar.
type Completer struct {
	cfg Config
	log *applogger.Logger
}

// New creates a completer.
func New(cfg Config, log *applogger.Logger) *Completer {
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyForward
	}
	if cfg.MaxFillDays <= 0 {
		cfg.MaxFillDays = 5
	}
	return &Completer{cfg: cfg, log: log}
}

// Complete returns a new completed series and its report. Malformed input
// (unordered series or calendar) is a contract error and returns one;
// missing-data conditions never do. An empty series is never fabricated:
// it comes back untouched with Success=false so the caller can re-fetch.
// Fill quality below the configured threshold also flags Success=false
// while still returning the filled series.
func (c *Completer) Complete(series models.BarSeries, calendar []time.Time) (models.BarSeries, models.CompletionReport, error) {
	report := models.CompletionReport{
		InstrumentID:  series.InstrumentID,
		OriginalCount: series.Len(),
	}

	if err := series.Validate(); err != nil {
		return models.BarSeries{}, report, fmt.Errorf("gapfill input: %w", err)
	}
	if series.Empty() {
		return series, report, nil
	}
	if len(calendar) == 0 {
		return models.BarSeries{}, report, fmt.Errorf("gapfill: empty trading calendar for non-empty series")
	}
	for i := 1; i < len(calendar); i++ {
		if !calendar[i-1].Before(calendar[i]) {
			return models.BarSeries{}, report, fmt.Errorf("gapfill: calendar dates must be strictly increasing at %d", i)
		}
	}

	minDate := series.Bars[0].Date
	maxDate := series.Bars[len(series.Bars)-1].Date

	// Calendar positions covered by the series range.
	lo := sort.Search(len(calendar), func(i int) bool { return !calendar[i].Before(minDate) })
	hi := sort.Search(len(calendar), func(i int) bool { return calendar[i].After(maxDate) })
	span := calendar[lo:hi]

	present := make(map[int64]models.Bar, series.Len())
	for _, b := range series.Bars {
		present[b.Date.Unix()] = b
	}

	// Gap runs of consecutive missing calendar positions.
	type gap struct{ start, end int } // [start,end) indexes into span
	var gaps []gap
	for i := 0; i < len(span); {
		if _, ok := present[span[i].Unix()]; ok {
			i++
			continue
		}
		j := i
		for j < len(span) {
			if _, ok := present[span[j].Unix()]; ok {
				break
			}
			j++
		}
		gaps = append(gaps, gap{start: i, end: j})
		i = j
	}

	filled := make(map[int64]models.Bar)
	for _, g := range gaps {
		for i := g.start; i < g.end; i++ {
			report.MissingDates = append(report.MissingDates, span[i])
		}
		if g.end-g.start > c.cfg.MaxFillDays {
			if c.log != nil {
				c.log.Warn("gap exceeds fill budget, left missing",
					applogger.String("instrument", series.InstrumentID),
					applogger.Int("gap_days", g.end-g.start),
					applogger.Int("max_fill_days", c.cfg.MaxFillDays))
			}
			continue
		}
		prev, hasPrev := c.neighborBefore(span, present, g.start)
		next, hasNext := c.neighborAfter(span, present, g.end)
		for i := g.start; i < g.end; i++ {
			b, ok := c.fillOne(span[i], prev, hasPrev, next, hasNext, i-g.start+1, g.end-g.start+1)
			if !ok {
				continue
			}
			filled[span[i].Unix()] = b
			report.FilledDates = append(report.FilledDates, span[i])
		}
	}
	report.FilledCount = len(filled)

	// Assemble the completed series in calendar order; bars outside the
	// calendar (if any) keep their positions by date.
	out := models.BarSeries{InstrumentID: series.InstrumentID}
	out.Bars = make([]models.Bar, 0, series.Len()+len(filled))
	out.Bars = append(out.Bars, series.Bars...)
	for _, b := range filled {
		out.Bars = append(out.Bars, b)
	}
	sort.Slice(out.Bars, func(i, j int) bool { return out.Bars[i].Date.Before(out.Bars[j].Date) })

	report.QualityScore = qualityScore(report.OriginalCount, len(report.MissingDates), continuityScore(out, calendar))
	report.Success = report.QualityScore >= c.cfg.QualityThreshold
	if !report.Success && c.log != nil {
		c.log.Warn("fill quality below threshold",
			applogger.String("instrument", series.InstrumentID),
			applogger.Float64("quality", report.QualityScore),
			applogger.Float64("threshold", c.cfg.QualityThreshold))
	}
	return out, report, nil
}

func (c *Completer) neighborBefore(span []time.Time, present map[int64]models.Bar, idx int) (models.Bar, bool) {
	for i := idx - 1; i >= 0; i-- {
		if b, ok := present[span[i].Unix()]; ok {
			return b, true
		}
	}
	return models.Bar{}, false
}

func (c *Completer) neighborAfter(span []time.Time, present map[int64]models.Bar, idx int) (models.Bar, bool) {
	for i := idx; i < len(span); i++ {
		if b, ok := present[span[i].Unix()]; ok {
			return b, true
		}
	}
	return models.Bar{}, false
}

// fillOne builds the synthetic bar for one missing date. Linear
// interpolation falls back to forward fill at a series boundary.
func (c *Completer) fillOne(date time.Time, prev models.Bar, hasPrev bool, next models.Bar, hasNext bool, step, total int) (models.Bar, bool) {
	restamp := func(b models.Bar) models.Bar {
		b.Date = date
		return b
	}
	switch c.cfg.Strategy {
	case StrategyBackward:
		if hasNext {
			return restamp(next), true
		}
		if hasPrev {
			return restamp(prev), true
		}
	case StrategyLinear:
		if hasPrev && hasNext {
			f := float64(step) / float64(total)
			lerp := func(a, b float64) float64 { return a + (b-a)*f }
			out := models.Bar{
				InstrumentID: prev.InstrumentID,
				Date:         date,
				Open:         lerp(prev.Open, next.Open),
				High:         lerp(prev.High, next.High),
				Low:          lerp(prev.Low, next.Low),
				Close:        lerp(prev.Close, next.Close),
				Volume:       int64(lerp(float64(prev.Volume), float64(next.Volume))),
				Amount:       lerp(prev.Amount, next.Amount),
			}
			return out, true
		}
		if hasPrev {
			return restamp(prev), true
		}
		if hasNext {
			return restamp(next), true
		}
	default: // forward
		if hasPrev {
			return restamp(prev), true
		}
		if hasNext {
			return restamp(next), true
		}
	}
	return models.Bar{}, false
}

// qualityScore combines fill ratio and continuity:
// 0.7*(1 - missing/(original+missing)) + 0.3*continuity.
func qualityScore(original, missing int, continuity float64) float64 {
	fillPart := 1.0
	if original+missing > 0 {
		fillPart = 1 - float64(missing)/float64(original+missing)
	}
	return 0.7*fillPart + 0.3*continuity
}

// continuityScore is the fraction of adjacent post-fill bar pairs whose
// distance measured in trading-calendar positions is at most 3. Distances
// use calendar positions, not wall-clock days, so holiday gaps in the
// calendar itself do not count against continuity.
func continuityScore(series models.BarSeries, calendar []time.Time) float64 {
	if series.Len() < 2 {
		return 1
	}
	pos := func(t time.Time) int {
		return sort.Search(len(calendar), func(i int) bool { return !calendar[i].Before(t) })
	}
	good, pairs := 0, 0
	prev := pos(series.Bars[0].Date)
	for _, b := range series.Bars[1:] {
		cur := pos(b.Date)
		pairs++
		if cur-prev <= 3 {
			good++
		}
		prev = cur
	}
	return float64(good) / float64(pairs)
}
