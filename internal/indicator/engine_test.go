package indicator

import (
	"testing"
	"time"

	"FinRank/internal/domain/models"
)

func mkSeries(id string, closes []float64) models.BarSeries {
	bars := mkBars(closes)
	for i := range bars {
		bars[i].InstrumentID = id
	}
	return models.BarSeries{InstrumentID: id, Bars: bars}
}

func TestComputeUnknownNameSkipped(t *testing.T) {
	e := New(DefaultConfig(), nil)
	series := mkSeries("A.1", ramp(10, 1, 1))

	recs, err := e.Compute(series, []string{"ma", "no_such_indicator"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 10 {
		t.Fatalf("got %d records, want 10", len(recs))
	}
	if _, ok := recs[9].Field(FieldSMA5); !ok {
		t.Fatalf("known indicator dropped alongside unknown one")
	}
}

func TestComputeWarmupFieldsAbsent(t *testing.T) {
	e := New(DefaultConfig(), nil)
	series := mkSeries("A.1", ramp(10, 1, 1))

	recs, err := e.Compute(series, []string{"ma"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := recs[3].Field(FieldSMA5); ok {
		t.Fatalf("warm-up row carries sma5")
	}
	if v, ok := recs[4].Field(FieldSMA5); !ok || v != 3 {
		t.Fatalf("sma5 at index 4 = %v (%v), want 3", v, ok)
	}
	// sma20 can never fill on 10 bars
	if _, ok := recs[9].Field(FieldSMA20); ok {
		t.Fatalf("sma20 present on a 10-bar series")
	}
}

func TestComputeRejectsUnorderedDates(t *testing.T) {
	e := New(DefaultConfig(), nil)
	series := mkSeries("A.1", ramp(5, 1, 1))
	series.Bars[2].Date = series.Bars[0].Date.Add(-24 * time.Hour)

	if _, err := e.Compute(series, []string{"ma"}); err == nil {
		t.Fatalf("expected contract error for unordered dates")
	}
}

func TestComputeBatchPreservesOrder(t *testing.T) {
	e := New(DefaultConfig(), nil)
	a := mkSeries("A.1", ramp(6, 1, 1))
	b := mkSeries("B.2", ramp(4, 10, 1))

	recs, err := e.ComputeBatch([]models.BarSeries{a, b}, []string{"ma"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 10 {
		t.Fatalf("got %d records, want 10", len(recs))
	}
	for i := 0; i < 6; i++ {
		if recs[i].InstrumentID != "A.1" {
			t.Fatalf("record %d belongs to %s, want A.1", i, recs[i].InstrumentID)
		}
	}
	for i := 6; i < 10; i++ {
		if recs[i].InstrumentID != "B.2" {
			t.Fatalf("record %d belongs to %s, want B.2", i, recs[i].InstrumentID)
		}
	}
}

func TestComputeBatchFailsOnBadSeries(t *testing.T) {
	e := New(DefaultConfig(), nil)
	good := mkSeries("A.1", ramp(6, 1, 1))
	bad := mkSeries("B.2", ramp(4, 10, 1))
	bad.Bars[1].InstrumentID = "C.3"

	if _, err := e.ComputeBatch([]models.BarSeries{good, bad}, []string{"ma"}); err == nil {
		t.Fatalf("expected error for mismatched instrument id")
	}
}

func TestParseKindRoundtrip(t *testing.T) {
	for _, name := range AllNames() {
		k, ok := ParseKind(name)
		if !ok {
			t.Fatalf("ParseKind(%q) failed", name)
		}
		if k.String() != name {
			t.Fatalf("roundtrip %q -> %q", name, k.String())
		}
	}
	if _, ok := ParseKind("bogus"); ok {
		t.Fatalf("ParseKind accepted bogus name")
	}
}
