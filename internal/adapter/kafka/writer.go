package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-site-risk/internal/config"
	"github.com/couchcryptid/storm-site-risk/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes site reports to a Kafka topic.
// It implements monitor.ReportPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic. Reports
// are keyed by site ID so each site's history stays on one partition.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchFlushInterval,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes the reports in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, reports []domain.SiteReport) error {
	if len(reports) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(reports))
	for i := range reports {
		msg, err := serializeToMessage(reports[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write %d reports: %w", len(msgs), err)
	}
	w.logger.Debug("published site reports", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a SiteReport into a Kafka message.
func serializeToMessage(report domain.SiteReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize site report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.SiteID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "risk_category", Value: []byte(report.Risk.RiskCategory)},
			{Key: "assessed_at", Value: []byte(report.AssessedAt.Format(time.RFC3339))},
		},
	}, nil
}
