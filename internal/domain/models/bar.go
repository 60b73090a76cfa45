package models

import (
	"fmt"
	"time"
)

// Bar represents one daily OHLCV record for one instrument.
type Bar struct {
	InstrumentID string
	Date         time.Time
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       int64
	Amount       float64
}

// BarSeries is an ordered sequence of bars for a single instrument,
// ascending by date. Transforms never mutate a series in place; they
// produce a new one.
type BarSeries struct {
	InstrumentID string
	Bars         []Bar
}

// NewBarSeries builds a series and checks the ordering contract.
func NewBarSeries(instrumentID string, bars []Bar) (BarSeries, error) {
	s := BarSeries{InstrumentID: instrumentID, Bars: bars}
	if err := s.Validate(); err != nil {
		return BarSeries{}, err
	}
	return s, nil
}

// Validate checks that dates are strictly increasing and unique and that
// every bar belongs to the series instrument.
func (s BarSeries) Validate() error {
	for i, b := range s.Bars {
		if b.InstrumentID != s.InstrumentID {
			return fmt.Errorf("bar %d: instrument %q does not match series %q", i, b.InstrumentID, s.InstrumentID)
		}
		if b.Volume < 0 {
			return fmt.Errorf("bar %d (%s): negative volume %d", i, b.Date.Format("2006-01-02"), b.Volume)
		}
		if i > 0 && !s.Bars[i-1].Date.Before(b.Date) {
			return fmt.Errorf("bar %d (%s): dates must be strictly increasing", i, b.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Len returns the number of bars.
func (s BarSeries) Len() int { return len(s.Bars) }

// Empty reports whether the series has no bars.
func (s BarSeries) Empty() bool { return len(s.Bars) == 0 }

// Clone returns a deep copy so transforms can own their data.
func (s BarSeries) Clone() BarSeries {
	out := BarSeries{InstrumentID: s.InstrumentID}
	out.Bars = make([]Bar, len(s.Bars))
	copy(out.Bars, s.Bars)
	return out
}
