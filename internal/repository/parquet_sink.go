package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"FinRank/internal/domain/models"
	domrepo "FinRank/internal/domain/repository"
)

// ParquetSink writes score datasets to local parquet files. The
// destination is the output path; indicator rows go to a sibling file
// derived from it.
type ParquetSink struct{}

func NewParquetSink() *ParquetSink { return &ParquetSink{} }

// indicatorPath derives the indicator file path from the score path by
// inserting a suffix before the extension.
func indicatorPath(destination string) string {
	ext := filepath.Ext(destination)
	return destination[:len(destination)-len(ext)] + "_indicators" + ext
}

type scoreRow struct {
	InstrumentID string  `parquet:"instrument_id"`
	Date         int64   `parquet:"date,timestamp"`
	Trend        float64 `parquet:"trend"`
	Capital      float64 `parquet:"capital"`
	Technical    float64 `parquet:"technical"`
	Risk         float64 `parquet:"risk"`
	Composite    float64 `parquet:"composite"`
	Level        string  `parquet:"level"`
	Environment  string  `parquet:"environment"`
	ComputedAt   int64   `parquet:"computed_at,timestamp"`
}

func (s *ParquetSink) WriteScores(_ context.Context, destination string, records []models.ScoreRecord) error {
	if destination == "" {
		return fmt.Errorf("parquet sink: empty destination")
	}
	rows := make([]scoreRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, scoreRow{
			InstrumentID: r.InstrumentID,
			Date:         r.Date.UnixMilli(),
			Trend:        r.TrendScore,
			Capital:      r.CapitalScore,
			Technical:    r.TechnicalScore,
			Risk:         r.RiskScore,
			Composite:    r.CompositeScore,
			Level:        string(r.Level),
			Environment:  string(r.Environment),
			ComputedAt:   r.ComputedAt.UnixMilli(),
		})
	}
	if err := parquet.WriteFile(destination, rows); err != nil {
		return fmt.Errorf("write parquet scores: %w", err)
	}
	return nil
}

type indicatorRow struct {
	InstrumentID string  `parquet:"instrument_id"`
	Date         int64   `parquet:"date,timestamp"`
	Open         float64 `parquet:"open"`
	High         float64 `parquet:"high"`
	Low          float64 `parquet:"low"`
	Close        float64 `parquet:"close"`
	Volume       int64   `parquet:"volume"`
	Amount       float64 `parquet:"amount"`
	Fields       string  `parquet:"fields"` // JSON object of computed fields
}

func (s *ParquetSink) WriteIndicators(_ context.Context, destination string, records []models.IndicatorRecord) error {
	if destination == "" {
		return fmt.Errorf("parquet sink: empty destination")
	}
	rows := make([]indicatorRow, 0, len(records))
	for _, r := range records {
		fields, err := json.Marshal(r.Fields)
		if err != nil {
			return fmt.Errorf("marshal fields: %w", err)
		}
		rows = append(rows, indicatorRow{
			InstrumentID: r.InstrumentID,
			Date:         r.Date.UnixMilli(),
			Open:         r.Open,
			High:         r.High,
			Low:          r.Low,
			Close:        r.Close,
			Volume:       r.Volume,
			Amount:       r.Amount,
			Fields:       string(fields),
		})
	}
	if err := parquet.WriteFile(indicatorPath(destination), rows); err != nil {
		return fmt.Errorf("write parquet indicators: %w", err)
	}
	return nil
}

func (s *ParquetSink) Close() error { return nil }

var _ domrepo.ScoreSink = (*ParquetSink)(nil)
