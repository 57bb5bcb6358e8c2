package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/jogardn/order-bridge/pkg/models"
	"github.com/sirupsen/logrus"
)

// DeliveryFailedEvent records an order Upward did not accept so an operator
// can resubmit it by hand. Nothing re-sends these automatically.
type DeliveryFailedEvent struct {
	EventID      string                `json:"event_id"`
	RequestID    string                `json:"request_id,omitempty"`
	OrderNumber  int                   `json:"order_number"`
	StatusCode   int                   `json:"status_code,omitempty"`
	ResponseBody string                `json:"response_body,omitempty"`
	Error        string                `json:"error,omitempty"`
	Order        *models.OutboundOrder `json:"order"`
	EventTime    time.Time             `json:"event_time"`
}

type FailurePublisher interface {
	PublishDeliveryFailed(event DeliveryFailedEvent) error
}

// NopPublisher is used when no Kafka brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishDeliveryFailed(DeliveryFailedEvent) error { return nil }

type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *logrus.Logger
}

func NewKafkaProducer(brokers []string, topic string, logger *logrus.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return NewKafkaProducerFrom(producer, topic, logger), nil
}

func NewKafkaProducerFrom(producer sarama.SyncProducer, topic string, logger *logrus.Logger) *KafkaProducer {
	return &KafkaProducer{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

func (p *KafkaProducer) PublishDeliveryFailed(event DeliveryFailedEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	event.EventTime = time.Now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery failed event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(fmt.Sprintf("%d", event.OrderNumber)),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithField("order_number", event.OrderNumber).Error("Failed to send delivery failure to Kafka")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"topic":        p.topic,
		"partition":    partition,
		"offset":       offset,
		"order_number": event.OrderNumber,
		"event_id":     event.EventID,
	}).Info("Delivery failure published to Kafka")

	return nil
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}
