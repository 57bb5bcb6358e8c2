package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jogardn/order-bridge/internal/config"
	"github.com/jogardn/order-bridge/internal/events"
	"github.com/jogardn/order-bridge/internal/orders"
	"github.com/jogardn/order-bridge/internal/server"
	"github.com/jogardn/order-bridge/internal/upward"
	"github.com/jogardn/order-bridge/internal/websocket"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.FromEnv()
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	logger.SetLevel(cfg.LogLevel)

	if !cfg.SigningSecretSet() || !cfg.APIKeySet() {
		logger.Warn("Running with default secrets; see GET / for details")
	}
	if cfg.ShipMethodDefaulted {
		logger.WithField("ship_method", cfg.UpwardShipMethod).Warn("UPWARD_SHIP_METHOD not set, using placeholder")
	}

	client := upward.NewClient(cfg.UpwardAPIURL, cfg.UpwardAPIKey, nil, logger)

	var publisher events.FailurePublisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewKafkaProducer(cfg.KafkaBrokers, cfg.FailureTopic, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create Kafka producer")
		}
		defer producer.Close()
		publisher = producer
		logger.WithFields(logrus.Fields{
			"brokers": cfg.KafkaBrokers,
			"topic":   cfg.FailureTopic,
		}).Info("Delivery failures will be published to Kafka")
	} else {
		logger.Info("KAFKA_BROKERS not set - delivery failures are only logged")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wsHub := websocket.NewHub(logger)
	go wsHub.Run(ctx)

	handler := orders.NewHandler(cfg, client, publisher, logger)
	handler.SetWebSocketHub(wsHub)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.NewRouter(handler, wsHub.HandleWebSocket, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":       cfg.Port,
			"upward_url": cfg.UpwardAPIURL,
		}).Info("Starting order bridge")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	cancel()

	logger.Info("Server gracefully stopped")
}
