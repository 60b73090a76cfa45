package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"FinRank/internal/domain/models"
	domrepo "FinRank/internal/domain/repository"
	pkgch "FinRank/pkg/clickhouse"
	applogger "FinRank/pkg/logger"
)

// ClickHouseSink implements ScoreSink backed by ClickHouse. Scores are
// written wide; indicators are written long (one row per field) since
// the field set varies per run.
type ClickHouseSink struct {
	db *sql.DB
	l  *applogger.Logger
}

// NewClickHouseSink creates a ClickHouse-backed sink.
func NewClickHouseSink(ch *pkgch.Client) *ClickHouseSink {
	return &ClickHouseSink{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *ClickHouseSink) SetLogger(l *applogger.Logger) { s.l = l }

// tableFor joins the destination prefix (a database or table prefix)
// with the dataset name.
func tableFor(destination, dataset string) string {
	return destination + "." + dataset
}

// insertBatchSize bounds one multi-row VALUES statement.
const insertBatchSize = 2000

func (s *ClickHouseSink) WriteScores(ctx context.Context, destination string, records []models.ScoreRecord) error {
	if len(records) == 0 {
		return nil
	}
	if destination == "" {
		return fmt.Errorf("clickhouse sink: destination prefix required")
	}
	table := tableFor(destination, "scores")
	for start := 0; start < len(records); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		values := make([]string, 0, len(batch))
		args := make([]interface{}, 0, len(batch)*10)
		for _, r := range batch {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.InstrumentID,
				r.Date,
				r.TrendScore,
				r.CapitalScore,
				r.TechnicalScore,
				r.RiskScore,
				r.CompositeScore,
				string(r.Level),
				string(r.Environment),
				r.ComputedAt,
			)
		}
		q := fmt.Sprintf(
			"INSERT INTO %s (instrument_id, date, trend, capital, technical, risk, composite, level, environment, computed_at) VALUES %s",
			table, strings.Join(values, ","),
		)
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse score insert failed",
					applogger.String("table", table),
					applogger.Int("rows", len(batch)),
					applogger.Error(err))
			}
			return fmt.Errorf("insert scores: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseSink) WriteIndicators(ctx context.Context, destination string, records []models.IndicatorRecord) error {
	if len(records) == 0 {
		return nil
	}
	if destination == "" {
		return fmt.Errorf("clickhouse sink: destination prefix required")
	}
	table := tableFor(destination, "indicators")
	values := make([]string, 0, insertBatchSize)
	args := make([]interface{}, 0, insertBatchSize*4)
	flush := func() error {
		if len(values) == 0 {
			return nil
		}
		q := fmt.Sprintf(
			"INSERT INTO %s (instrument_id, date, field, value) VALUES %s",
			table, strings.Join(values, ","),
		)
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert indicators: %w", err)
		}
		values = values[:0]
		args = args[:0]
		return nil
	}

	for _, r := range records {
		for name, v := range r.Fields {
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, r.InstrumentID, r.Date, name, v)
			if len(values) >= insertBatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	return flush()
}

// Close is a no-op; the pool is owned by the shared client.
func (s *ClickHouseSink) Close() error { return nil }

var _ domrepo.ScoreSink = (*ClickHouseSink)(nil)
