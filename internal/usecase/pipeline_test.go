package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"FinRank/internal/chunker"
	"FinRank/internal/domain/models"
	domrepo "FinRank/internal/domain/repository"
	"FinRank/internal/gapfill"
	"FinRank/internal/indicator"
	"FinRank/internal/scoring"
)

type fakeFeed struct {
	series map[string]models.BarSeries
}

func (f fakeFeed) GetBars(_ context.Context, id string, _, _ time.Time) (models.BarSeries, error) {
	return f.series[id], nil
}

type fakeCalendar struct {
	dates []time.Time
}

func (f fakeCalendar) TradingDates(_ context.Context, _ string, _, _ time.Time) ([]time.Time, error) {
	return f.dates, nil
}

type recordingSink struct {
	mu         sync.Mutex
	scores     []models.ScoreRecord
	indicators []models.IndicatorRecord
	dest       string
}

func (s *recordingSink) WriteScores(_ context.Context, dest string, recs []models.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dest = dest
	s.scores = append(s.scores, recs...)
	return nil
}

func (s *recordingSink) WriteIndicators(_ context.Context, dest string, recs []models.IndicatorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indicators = append(s.indicators, recs...)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func tradingDays(n int) []time.Time {
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = base.AddDate(0, 0, i)
	}
	return out
}

func seriesFor(id string, dates []time.Time) models.BarSeries {
	s := models.BarSeries{InstrumentID: id}
	for i, d := range dates {
		c := 100 + float64(i)
		s.Bars = append(s.Bars, models.Bar{
			InstrumentID: id,
			Date:         d,
			Open:         c,
			High:         c + 1,
			Low:          c - 1,
			Close:        c,
			Volume:       1000,
			Amount:       c * 1000,
		})
	}
	return s
}

func testPipeline(sink domrepo.ScoreSink, feed domrepo.BarFeed, cal domrepo.CalendarProvider) *Pipeline {
	poolCfg := chunker.DefaultConfig()
	poolCfg.Workers = 2
	poolCfg.ChunkSize = 50
	return NewPipeline(PipelineParams{
		Completer:   gapfill.New(gapfill.DefaultConfig(), nil),
		Engine:      indicator.New(indicator.DefaultConfig(), nil),
		Scorer:      scoring.New(scoring.DefaultConfig(), nil, nil),
		Scheduler:   chunker.NewScheduler[models.IndicatorRecord](poolCfg, nil, nil),
		Feed:        feed,
		Calendar:    cal,
		Sink:        sink,
		Market:      "SSE",
		Destination: "out",
	})
}

func TestRunFullPass(t *testing.T) {
	dates := tradingDays(60)
	feed := fakeFeed{series: map[string]models.BarSeries{
		"A.1": seriesFor("A.1", dates),
		"B.2": seriesFor("B.2", dates),
	}}
	sink := &recordingSink{}
	p := testPipeline(sink, feed, fakeCalendar{dates: dates})

	res, err := p.Run(context.Background(), []string{"A.1", "B.2"}, dates[0], dates[len(dates)-1], models.EnvNormal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Indicators) != 120 {
		t.Fatalf("got %d indicator rows, want 120", len(res.Indicators))
	}
	if len(res.Scores) != 120 {
		t.Fatalf("got %d scores, want 120", len(res.Scores))
	}
	if len(sink.scores) != 120 || len(sink.indicators) != 120 {
		t.Fatalf("sink received %d/%d rows, want 120/120", len(sink.scores), len(sink.indicators))
	}
	if sink.dest != "out" {
		t.Fatalf("sink destination %q, want out", sink.dest)
	}
	// 60 bars is enough for sma20 to exist on the tail rows
	last := res.Indicators[59]
	if _, ok := last.Field(indicator.FieldSMA20); !ok {
		t.Fatalf("tail row missing sma20 after parallel run")
	}
}

func TestRunInvalidEnvironment(t *testing.T) {
	dates := tradingDays(10)
	feed := fakeFeed{series: map[string]models.BarSeries{"A.1": seriesFor("A.1", dates)}}
	p := testPipeline(nil, feed, fakeCalendar{dates: dates})

	if _, err := p.Run(context.Background(), []string{"A.1"}, dates[0], dates[9], "sideways"); err == nil {
		t.Fatalf("expected error for undefined environment")
	}
}

func TestRunParallelKeepsInstrumentsWhole(t *testing.T) {
	dates := tradingDays(30)
	p := testPipeline(nil, fakeFeed{}, nil)

	batch := []models.BarSeries{
		seriesFor("A.1", dates),
		seriesFor("B.2", dates),
		seriesFor("C.3", dates),
	}
	out, summary, err := p.RunParallel(context.Background(), batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 90 {
		t.Fatalf("got %d rows, want 90", len(out))
	}
	if summary.ChunksFailed != 0 {
		t.Fatalf("unexpected chunk failures: %+v", summary)
	}
	// window fields must match a sequential computation, proving no
	// series was split across chunks
	seq, err := indicator.New(indicator.DefaultConfig(), nil).ComputeBatch(batch, indicator.AllNames())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seq) != len(out) {
		t.Fatalf("sequential %d rows vs parallel %d", len(seq), len(out))
	}
	for i := range out {
		pv, pok := out[i].Field(indicator.FieldSMA20)
		sv, sok := seq[i].Field(indicator.FieldSMA20)
		if pok != sok || pv != sv {
			t.Fatalf("row %d sma20 differs: parallel %v/%v, sequential %v/%v", i, pv, pok, sv, sok)
		}
	}
}

func TestCompleteGapsRepairsHole(t *testing.T) {
	dates := tradingDays(10)
	full := seriesFor("A.1", dates)
	holed := models.BarSeries{InstrumentID: "A.1"}
	for i, b := range full.Bars {
		if i == 5 {
			continue
		}
		holed.Bars = append(holed.Bars, b)
	}
	p := testPipeline(nil, fakeFeed{}, fakeCalendar{dates: dates})

	out, report, err := p.CompleteGaps(context.Background(), holed, dates[0], dates[9])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 10 || report.FilledCount != 1 {
		t.Fatalf("got %d bars, filled %d; want 10 and 1", out.Len(), report.FilledCount)
	}
}
