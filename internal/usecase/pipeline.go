package usecase

import (
	"context"
	"fmt"
	"time"

	"FinRank/internal/chunker"
	"FinRank/internal/domain/models"
	domrepo "FinRank/internal/domain/repository"
	"FinRank/internal/gapfill"
	"FinRank/internal/indicator"
	"FinRank/internal/scoring"
	"FinRank/pkg/cache"
	applogger "FinRank/pkg/logger"
)

// Pipeline orchestrates the full scoring pass: gap completion per
// instrument, chunked parallel indicator computation, scoring, and an
// optional sink write. Each stage is also exposed on its own so callers
// can run partial passes.
type Pipeline struct {
	completer *gapfill.Completer
	engine    *indicator.Engine
	scorer    *scoring.Engine
	scheduler *chunker.Scheduler[models.IndicatorRecord]

	feed     domrepo.BarFeed
	calendar domrepo.CalendarProvider
	cls      domrepo.ClassificationSource
	sink     domrepo.ScoreSink
	metrics  domrepo.Metrics
	cache    cache.Service
	cacheTTL time.Duration

	market      string
	destination string
	names       []string

	log *applogger.Logger
}

// PipelineParams carries the collaborators a Pipeline needs. Sink,
// cache, classification source and calendar provider are optional.
type PipelineParams struct {
	Completer *gapfill.Completer
	Engine    *indicator.Engine
	Scorer    *scoring.Engine
	Scheduler *chunker.Scheduler[models.IndicatorRecord]

	Feed     domrepo.BarFeed
	Calendar domrepo.CalendarProvider
	Cls      domrepo.ClassificationSource
	Sink     domrepo.ScoreSink
	Metrics  domrepo.Metrics
	Cache    cache.Service
	CacheTTL time.Duration

	Market      string
	Destination string
	// Names is the default indicator set; empty means every
	// registered indicator.
	Names []string

	Log *applogger.Logger
}

// NewPipeline creates a Pipeline from its parts.
func NewPipeline(p PipelineParams) *Pipeline {
	log := p.Log
	if log == nil {
		log = applogger.Nop()
	}
	names := p.Names
	if len(names) == 0 {
		names = indicator.AllNames()
	}
	return &Pipeline{
		completer:   p.Completer,
		engine:      p.Engine,
		scorer:      p.Scorer,
		scheduler:   p.Scheduler,
		feed:        p.Feed,
		calendar:    p.Calendar,
		cls:         p.Cls,
		sink:        p.Sink,
		metrics:     p.Metrics,
		cache:       p.Cache,
		cacheTTL:    p.CacheTTL,
		market:      p.Market,
		destination: p.Destination,
		names:       names,
		log:         log,
	}
}

// RunResult is the outcome of a full pipeline pass.
type RunResult struct {
	Scores     []models.ScoreRecord
	Indicators []models.IndicatorRecord
	Reports    []models.CompletionReport
	Summary    models.RunSummary
	Warnings   []models.Warning
}

// Run executes the full pass for the given instruments and date range
// under the given market environment. Per-instrument data problems are
// contained; only contract violations or a failed sink write abort the
// run.
func (p *Pipeline) Run(ctx context.Context, instrumentIDs []string, from, to time.Time, env models.MarketEnvironment) (*RunResult, error) {
	if p.feed == nil {
		return nil, fmt.Errorf("pipeline: no bar feed configured")
	}
	if !env.Valid() {
		return nil, fmt.Errorf("pipeline: invalid market environment %q", env)
	}

	start := time.Now()

	batch, reports, err := p.loadAndComplete(ctx, instrumentIDs, from, to)
	if err != nil {
		return nil, err
	}

	records, summary, err := p.RunParallel(ctx, batch)
	if err != nil {
		return nil, err
	}

	scores, warnings, err := p.Score(ctx, records, env)
	if err != nil {
		return nil, err
	}
	summary.Warnings = append(summary.Warnings, warnings...)

	if p.sink != nil {
		sinkStart := time.Now()
		if err := p.sink.WriteScores(ctx, p.destination, scores); err != nil {
			return nil, fmt.Errorf("write scores: %w", err)
		}
		if err := p.sink.WriteIndicators(ctx, p.destination, records); err != nil {
			return nil, fmt.Errorf("write indicators: %w", err)
		}
		p.recordStage("sink", sinkStart)
	}

	p.log.Info("pipeline run finished",
		applogger.Int("instruments", len(instrumentIDs)),
		applogger.Int("rows", len(records)),
		applogger.Int("scores", len(scores)),
		applogger.Duration("elapsed", time.Since(start)))

	return &RunResult{
		Scores:     scores,
		Indicators: records,
		Reports:    reports,
		Summary:    summary,
		Warnings:   warnings,
	}, nil
}

// CompleteGaps repairs one series against the market trading calendar.
func (p *Pipeline) CompleteGaps(ctx context.Context, series models.BarSeries, from, to time.Time) (models.BarSeries, models.CompletionReport, error) {
	if p.calendar == nil {
		return series, models.CompletionReport{InstrumentID: series.InstrumentID}, fmt.Errorf("pipeline: no calendar provider configured")
	}
	dates, err := p.calendar.TradingDates(ctx, p.market, from, to)
	if err != nil {
		return series, models.CompletionReport{InstrumentID: series.InstrumentID}, fmt.Errorf("load trading calendar: %w", err)
	}
	return p.completer.Complete(series, dates)
}

// ComputeIndicators computes the configured indicator set for one
// series, consulting the result cache when one is wired.
func (p *Pipeline) ComputeIndicators(ctx context.Context, series models.BarSeries, names []string) ([]models.IndicatorRecord, error) {
	if len(names) == 0 {
		names = p.names
	}
	key := p.cacheKey(series, names)
	if key != "" {
		var cached []models.IndicatorRecord
		if err := p.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}
	records, err := p.engine.Compute(series, names)
	if err != nil {
		return nil, err
	}
	if key != "" {
		if err := p.cache.Set(ctx, key, records, p.cacheTTL); err != nil {
			p.log.Warn("cache indicator batch", applogger.Error(err))
		}
	}
	return records, nil
}

// RunParallel computes indicators for a batch of series through the
// chunk scheduler. Rows are chunked on instrument boundaries so no
// series is split across workers.
func (p *Pipeline) RunParallel(ctx context.Context, batch []models.BarSeries) ([]models.IndicatorRecord, models.RunSummary, error) {
	start := time.Now()

	rows := make([]models.IndicatorRecord, 0)
	for _, series := range batch {
		if err := series.Validate(); err != nil {
			return nil, models.RunSummary{}, fmt.Errorf("invalid series %s: %w", series.InstrumentID, err)
		}
		for _, b := range series.Bars {
			rows = append(rows, models.NewIndicatorRecord(b))
		}
	}

	out, summary, err := p.scheduler.Run(ctx, rows,
		func(r models.IndicatorRecord) string { return r.InstrumentID },
		p.enrichChunk)
	if err != nil {
		return nil, summary, err
	}

	p.recordStage("indicators", start)
	return out, summary, nil
}

// enrichChunk recomputes indicator fields for every series present in
// the chunk. Chunks hold whole series, so each instrument's bars arrive
// together and in order.
func (p *Pipeline) enrichChunk(ctx context.Context, rows []models.IndicatorRecord) ([]models.IndicatorRecord, error) {
	out := make([]models.IndicatorRecord, 0, len(rows))
	i := 0
	for i < len(rows) {
		j := i
		for j < len(rows) && rows[j].InstrumentID == rows[i].InstrumentID {
			j++
		}
		bars := make([]models.Bar, 0, j-i)
		for _, r := range rows[i:j] {
			bars = append(bars, r.Bar)
		}
		series := models.BarSeries{InstrumentID: rows[i].InstrumentID, Bars: bars}
		records, err := p.ComputeIndicators(ctx, series, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
		i = j
	}
	return out, nil
}

// Score scores indicator rows under one market environment.
func (p *Pipeline) Score(ctx context.Context, records []models.IndicatorRecord, env models.MarketEnvironment) ([]models.ScoreRecord, []models.Warning, error) {
	start := time.Now()
	scores, warnings, err := p.scorer.Score(ctx, records, env, p.cls)
	if err != nil {
		return nil, nil, err
	}
	p.recordStage("scoring", start)
	return scores, warnings, nil
}

// Close releases the sink and cache.
func (p *Pipeline) Close() error {
	var first error
	if p.sink != nil {
		if err := p.sink.Close(); err != nil {
			first = err
		}
	}
	if p.cache != nil {
		if err := p.cache.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (p *Pipeline) loadAndComplete(ctx context.Context, instrumentIDs []string, from, to time.Time) ([]models.BarSeries, []models.CompletionReport, error) {
	start := time.Now()

	batch := make([]models.BarSeries, 0, len(instrumentIDs))
	reports := make([]models.CompletionReport, 0, len(instrumentIDs))
	for _, id := range instrumentIDs {
		series, err := p.feed.GetBars(ctx, id, from, to)
		if err != nil {
			return nil, nil, fmt.Errorf("load bars for %s: %w", id, err)
		}
		if p.calendar != nil {
			completed, report, err := p.CompleteGaps(ctx, series, from, to)
			if err != nil {
				return nil, nil, fmt.Errorf("complete gaps for %s: %w", id, err)
			}
			series = completed
			reports = append(reports, report)
		}
		batch = append(batch, series)
	}

	p.recordStage("gapfill", start)
	return batch, reports, nil
}

func (p *Pipeline) cacheKey(series models.BarSeries, names []string) string {
	if p.cache == nil || series.Empty() {
		return ""
	}
	first := series.Bars[0].Date.Unix()
	last := series.Bars[len(series.Bars)-1].Date.Unix()
	params := []interface{}{series.InstrumentID, first, last, series.Len()}
	for _, n := range names {
		params = append(params, n)
	}
	return cache.ContentKey("indicators", params...)
}

func (p *Pipeline) recordStage(stage string, start time.Time) {
	if p.metrics != nil {
		p.metrics.RecordStageDuration(stage, time.Since(start).Seconds())
	}
}
