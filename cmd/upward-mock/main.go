package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jogardn/order-bridge/internal/mockprovider"
	"github.com/sirupsen/logrus"
)

// upward-mock stands in for the Upward API during local development. Point
// the bridge at it with UPWARD_API_URL=http://localhost:8082/v1/.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	port := getEnv("UPWARD_MOCK_PORT", "8082")
	apiKey := getEnv("UPWARD_API_KEY", "123changeme")

	provider := mockprovider.New(mockprovider.NewStore(), apiKey, logger)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: provider.Router("/v1"),
	}

	go func() {
		logger.WithField("port", port).Info("Starting Upward mock server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down Upward mock server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server forced to shutdown")
	}

	logger.Info("Upward mock server gracefully stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
