package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jogardn/order-bridge/internal/config"
	"github.com/jogardn/order-bridge/internal/events"
	"github.com/sirupsen/logrus"
)

// failure-monitor prints every order Upward did not accept, with the payload
// needed to resubmit it by hand.
type printer struct {
	logger *logrus.Logger
}

func (p *printer) HandleDeliveryFailed(event events.DeliveryFailedEvent) error {
	p.logger.WithFields(logrus.Fields{
		"event_id":     event.EventID,
		"request_id":   event.RequestID,
		"order_number": event.OrderNumber,
		"status":       event.StatusCode,
		"error":        event.Error,
	}).Warn("Undelivered order")

	payload, err := json.MarshalIndent([]interface{}{event.Order}, "", "  ")
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Undelivered order %d ===\n", event.OrderNumber)
	fmt.Printf("Time: %s\n", event.EventTime.Format("2006-01-02T15:04:05Z07:00"))
	if event.StatusCode != 0 {
		fmt.Printf("Upward status: %d\n", event.StatusCode)
		fmt.Printf("Upward body: %s\n", event.ResponseBody)
	}
	if event.Error != "" {
		fmt.Printf("Error: %s\n", event.Error)
	}
	fmt.Printf("Payload for POST Orders:\n%s\n", payload)
	fmt.Printf("============================\n\n")
	return nil
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.FromEnv()
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	logger.SetLevel(cfg.LogLevel)

	if len(cfg.KafkaBrokers) == 0 {
		logger.Fatal("KAFKA_BROKERS must be set")
	}

	consumer, err := events.NewKafkaConsumer(cfg.KafkaBrokers, "failure-monitor-group", cfg.FailureTopic, &printer{logger: logger}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create Kafka consumer")
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.WithError(err).Error("Kafka consumer stopped")
			cancel()
		}
	}()

	logger.WithField("topic", cfg.FailureTopic).Info("Failure monitor started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	logger.Info("Shutting down failure monitor...")
}
