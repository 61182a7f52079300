// Package kafka publishes generated weekly records to a Kafka topic so
// downstream consumers can replay a run as a stream.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/uhs-mrv-generator/internal/domain"
)

// Messages per WriteMessages call.
const publishBatchSize = 500

// Writer produces weekly records to a Kafka topic, keyed by facility so a
// facility's weeks stay in order within a partition.
// It implements pipeline.DatasetWriter.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the given brokers and topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Name identifies the sink in logs.
func (w *Writer) Name() string { return "kafka" }

// WriteDataset publishes every weekly record of the dataset in batches.
func (w *Writer) WriteDataset(ctx context.Context, ds *domain.Dataset) error {
	typeByID := make(map[string]domain.FacilityType, len(ds.Facilities))
	for _, f := range ds.Facilities {
		typeByID[f.ID] = f.Type
	}

	for start := 0; start < len(ds.Weekly); start += publishBatchSize {
		end := min(start+publishBatchSize, len(ds.Weekly))

		msgs := make([]kafkago.Message, 0, end-start)
		for _, r := range ds.Weekly[start:end] {
			msg, err := serializeToMessage(r, typeByID[r.FacilityID], ds.GeneratedAt)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("publish weekly records: %w", err)
		}
		w.logger.Debug("published batch", "from", start, "to", end)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a weekly record into a Kafka message.
func serializeToMessage(r domain.WeeklyRecord, ftype domain.FacilityType, generatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize weekly record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(r.FacilityID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "facility_type", Value: []byte(ftype)},
			{Key: "generated_at", Value: []byte(generatedAt.Format(time.RFC3339))},
		},
	}, nil
}
