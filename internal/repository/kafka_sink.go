package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"FinRank/internal/domain/models"
	domrepo "FinRank/internal/domain/repository"
)

// KafkaSink publishes score datasets as JSON messages keyed by
// instrument id, one message per record. The destination overrides the
// configured topic when non-empty.
type KafkaSink struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaSink creates a Kafka-backed sink.
func NewKafkaSink(brokers []string, topic string, requiredAcks int, batchTimeout time.Duration) *KafkaSink {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequiredAcks(requiredAcks),
		BatchTimeout: batchTimeout,
	}
	return &KafkaSink{writer: w, topic: topic}
}

type scoreMessage struct {
	InstrumentID string    `json:"instrument_id"`
	Date         time.Time `json:"date"`
	Trend        float64   `json:"trend"`
	Capital      float64   `json:"capital"`
	Technical    float64   `json:"technical"`
	Risk         float64   `json:"risk"`
	Composite    float64   `json:"composite"`
	Level        string    `json:"level"`
	Environment  string    `json:"environment"`
	ComputedAt   time.Time `json:"computed_at"`
}

func (s *KafkaSink) WriteScores(ctx context.Context, destination string, records []models.ScoreRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(records))
	for _, r := range records {
		payload, err := json.Marshal(scoreMessage{
			InstrumentID: r.InstrumentID,
			Date:         r.Date,
			Trend:        r.TrendScore,
			Capital:      r.CapitalScore,
			Technical:    r.TechnicalScore,
			Risk:         r.RiskScore,
			Composite:    r.CompositeScore,
			Level:        string(r.Level),
			Environment:  string(r.Environment),
			ComputedAt:   r.ComputedAt,
		})
		if err != nil {
			return fmt.Errorf("marshal score: %w", err)
		}
		msgs = append(msgs, s.message(destination, r.InstrumentID, payload))
	}
	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish scores: %w", err)
	}
	return nil
}

type indicatorMessage struct {
	InstrumentID string             `json:"instrument_id"`
	Date         time.Time          `json:"date"`
	Close        float64            `json:"close"`
	Fields       map[string]float64 `json:"fields"`
}

func (s *KafkaSink) WriteIndicators(ctx context.Context, destination string, records []models.IndicatorRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(records))
	for _, r := range records {
		payload, err := json.Marshal(indicatorMessage{
			InstrumentID: r.InstrumentID,
			Date:         r.Date,
			Close:        r.Close,
			Fields:       r.Fields,
		})
		if err != nil {
			return fmt.Errorf("marshal indicator: %w", err)
		}
		msgs = append(msgs, s.message(destination, r.InstrumentID, payload))
	}
	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish indicators: %w", err)
	}
	return nil
}

func (s *KafkaSink) message(destination, key string, payload []byte) kafka.Message {
	topic := s.topic
	if destination != "" {
		topic = destination
	}
	return kafka.Message{Topic: topic, Key: []byte(key), Value: payload}
}

// Close flushes and closes the writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

var _ domrepo.ScoreSink = (*KafkaSink)(nil)
