// Command publish regenerates a dataset from its configuration and streams
// the weekly records to a Kafka topic. Because generation is deterministic,
// publishing never needs the CSV files, only the config that produced them.
//
// Usage:
//
//	go run ./cmd/publish \
//	  -config config/uhs_config.yaml \
//	  -brokers localhost:9092 \
//	  -topic uhs-weekly-records
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	kafkaadapter "github.com/couchcryptid/uhs-mrv-generator/internal/adapter/kafka"
	"github.com/couchcryptid/uhs-mrv-generator/internal/config"
	"github.com/couchcryptid/uhs-mrv-generator/internal/observability"
	"github.com/couchcryptid/uhs-mrv-generator/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "config/uhs_config.yaml", "path to the generator configuration")
	brokers := flag.String("brokers", "localhost:9092", "comma-separated Kafka broker addresses")
	topic := flag.String("topic", "uhs-weekly-records", "destination Kafka topic")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	flag.Parse()

	logger := observability.NewLogger(*logLevel, *logFormat)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	writer := kafkaadapter.NewWriter(strings.Split(*brokers, ","), *topic, logger)
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}()

	p := pipeline.New(cfg, []pipeline.DatasetWriter{writer}, logger, observability.NewMetrics())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := p.Run(ctx); err != nil {
		logger.Error("publish failed", "error", err)
		os.Exit(1)
	}
}
