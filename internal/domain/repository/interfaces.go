package repository

import (
	"context"
	"time"

	"FinRank/internal/domain/models"
)

// BarFeed supplies bar series per instrument and date range. The feed
// guarantees ascending de-duplicated dates per call; a result may be empty.
// Fetching itself lives outside this module.
type BarFeed interface {
	GetBars(ctx context.Context, instrumentID string, from, to time.Time) (models.BarSeries, error)
}

// CalendarProvider returns sorted valid trading dates for a market and range.
// Used only by gap completion.
type CalendarProvider interface {
	TradingDates(ctx context.Context, market string, from, to time.Time) ([]time.Time, error)
}

// Classification is an instrument's categorical reference data.
type Classification struct {
	Industry  string
	CapBucket string // "large", "mid", "small"
}

// ClassificationSource supplies industry label and market-cap bucket per
// instrument. A missing mapping defaults every adjustment factor to 1.0.
type ClassificationSource interface {
	Lookup(ctx context.Context, instrumentID string) (Classification, bool)
	// KnownIndustries returns the closed set of valid industry labels,
	// consulted by the scoring input-quality pre-check.
	KnownIndustries(ctx context.Context) []string
}

// ScoreSink accepts a materialized indicator/score dataset plus a
// destination identifier. Its own error semantics apply.
type ScoreSink interface {
	WriteScores(ctx context.Context, destination string, records []models.ScoreRecord) error
	WriteIndicators(ctx context.Context, destination string, records []models.IndicatorRecord) error
	Close() error
}

// Metrics records pipeline events. Implementations must be safe for
// concurrent use.
type Metrics interface {
	RecordChunk(status string)
	RecordRows(n int)
	RecordThroughput(rowsPerSecond float64)
	RecordStageDuration(stage string, seconds float64)
	RecordScore(level string)
	RecordWarning(kind string)
}
