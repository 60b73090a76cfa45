package gapfill

import (
	"math"
	"testing"
	"time"

	"FinRank/internal/domain/models"
)

func calendarDays(n int) []time.Time {
	base := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = base.AddDate(0, 0, i)
	}
	return out
}

func seriesOn(dates []time.Time, skip map[int]bool) models.BarSeries {
	s := models.BarSeries{InstrumentID: "T.1"}
	for i, d := range dates {
		if skip[i] {
			continue
		}
		c := 100 + float64(i)
		s.Bars = append(s.Bars, models.Bar{
			InstrumentID: "T.1",
			Date:         d,
			Open:         c,
			High:         c + 1,
			Low:          c - 1,
			Close:        c,
			Volume:       1000 + int64(i),
			Amount:       c * 1000,
		})
	}
	return s
}

func TestCompleteSeriesUntouchedWhenFull(t *testing.T) {
	c := New(DefaultConfig(), nil)
	cal := calendarDays(10)
	in := seriesOn(cal, nil)

	out, report, err := c.Complete(in, cal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != in.Len() {
		t.Fatalf("complete series changed length: %d -> %d", in.Len(), out.Len())
	}
	if report.FilledCount != 0 || len(report.MissingDates) != 0 {
		t.Fatalf("complete series reported gaps: %+v", report)
	}
	if math.Abs(report.QualityScore-1) > 1e-9 {
		t.Fatalf("quality = %v, want exactly 1.0", report.QualityScore)
	}
	if !report.Success {
		t.Fatalf("complete series flagged unsuccessful")
	}
}

func TestCompleteForwardFill(t *testing.T) {
	c := New(DefaultConfig(), nil)
	cal := calendarDays(10)
	in := seriesOn(cal, map[int]bool{4: true, 5: true})

	out, report, err := c.Complete(in, cal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 10 {
		t.Fatalf("got %d bars, want 10", out.Len())
	}
	if report.FilledCount != 2 {
		t.Fatalf("filled %d, want 2", report.FilledCount)
	}
	// forward fill copies the last present bar, restamped
	if out.Bars[4].Close != out.Bars[3].Close {
		t.Fatalf("forward fill close = %v, want %v", out.Bars[4].Close, out.Bars[3].Close)
	}
	if !out.Bars[4].Date.Equal(cal[4]) {
		t.Fatalf("filled bar not restamped to calendar date")
	}
}

func TestCompleteLinearFill(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Strategy = StrategyLinear
	c := New(cfg, nil)
	cal := calendarDays(10)
	in := seriesOn(cal, map[int]bool{5: true})

	out, _, err := c.Complete(in, cal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// neighbors close at 104 and 106, single missing step lands midway
	want := (out.Bars[4].Close + out.Bars[6].Close) / 2
	if math.Abs(out.Bars[5].Close-want) > 1e-9 {
		t.Fatalf("linear fill close = %v, want %v", out.Bars[5].Close, want)
	}
}

func TestCompleteLeadingGapBackfills(t *testing.T) {
	c := New(DefaultConfig(), nil)
	cal := calendarDays(8)
	in := seriesOn(cal, map[int]bool{0: true, 1: true})

	out, report, err := c.Complete(in, cal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.FilledCount != 0 {
		// series range starts at its first bar; dates before it are
		// outside the span and never count as missing
		t.Fatalf("leading dates outside series range were filled: %+v", report)
	}
	if out.Len() != 6 {
		t.Fatalf("got %d bars, want 6", out.Len())
	}
}

func TestCompleteLongGapLeftMissing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFillDays = 2
	cfg.QualityThreshold = 0.9
	c := New(cfg, nil)
	cal := calendarDays(12)
	in := seriesOn(cal, map[int]bool{3: true, 4: true, 5: true, 6: true})

	out, report, err := c.Complete(in, cal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.FilledCount != 0 {
		t.Fatalf("gap beyond MaxFillDays was filled")
	}
	if len(report.MissingDates) != 4 {
		t.Fatalf("missing dates = %d, want 4", len(report.MissingDates))
	}
	if out.Len() != 8 {
		t.Fatalf("got %d bars, want 8", out.Len())
	}
	if report.Success {
		t.Fatalf("low-quality fill flagged successful")
	}
}

func TestCompleteEmptySeries(t *testing.T) {
	c := New(DefaultConfig(), nil)
	in := models.BarSeries{InstrumentID: "T.1"}

	out, report, err := c.Complete(in, calendarDays(5))
	if err != nil {
		t.Fatalf("empty series must not error: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("empty series was fabricated")
	}
	if report.Success {
		t.Fatalf("empty series flagged successful")
	}
}

func TestCompleteEmptyCalendarIsContractError(t *testing.T) {
	c := New(DefaultConfig(), nil)
	in := seriesOn(calendarDays(5), nil)

	if _, _, err := c.Complete(in, nil); err == nil {
		t.Fatalf("expected contract error for empty calendar")
	}
}

func TestCompleteUnorderedCalendarIsContractError(t *testing.T) {
	c := New(DefaultConfig(), nil)
	cal := calendarDays(5)
	cal[2], cal[3] = cal[3], cal[2]
	in := seriesOn(calendarDays(5), nil)

	if _, _, err := c.Complete(in, cal); err == nil {
		t.Fatalf("expected contract error for unordered calendar")
	}
}

func TestCompleteIdempotent(t *testing.T) {
	c := New(DefaultConfig(), nil)
	cal := calendarDays(10)
	in := seriesOn(cal, map[int]bool{4: true})

	once, _, err := c.Complete(in, cal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, report, err := c.Complete(once, cal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if twice.Len() != once.Len() || report.FilledCount != 0 {
		t.Fatalf("second pass altered a completed series")
	}
	if math.Abs(report.QualityScore-1) > 1e-9 {
		t.Fatalf("second pass quality = %v, want exactly 1.0", report.QualityScore)
	}
}
