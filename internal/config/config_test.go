package config

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(lookupFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultSecret, cfg.ShopifySigningSecret)
	assert.Equal(t, DefaultSecret, cfg.UpwardAPIKey)
	assert.Equal(t, DefaultAPIURL, cfg.UpwardAPIURL)
	assert.Equal(t, DefaultShipMethod, cfg.UpwardShipMethod)
	assert.True(t, cfg.ShipMethodDefaulted)
	assert.Nil(t, cfg.DeletionSecret)
	assert.False(t, cfg.DeletionEnabled())
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, DefaultFailureTopic, cfg.FailureTopic)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	cfg, err := Load(lookupFrom(map[string]string{
		"PORT":                   "9000",
		"SHOPIFY_SIGNING_SECRET": "sign",
		"UPWARD_API_KEY":         "key",
		"UPWARD_API_URL":         "http://upward.local/v1",
		"UPWARD_SHIP_METHOD":     "UPSG",
		"DELETION_SECRET":        "correct",
		"KAFKA_BROKERS":          "kafka-1:9092, kafka-2:9092,",
		"LOG_LEVEL":              "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "http://upward.local/v1/", cfg.UpwardAPIURL)
	assert.Equal(t, "UPSG", cfg.UpwardShipMethod)
	assert.False(t, cfg.ShipMethodDefaulted)
	require.NotNil(t, cfg.DeletionSecret)
	assert.Equal(t, "correct", *cfg.DeletionSecret)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.True(t, cfg.SigningSecretSet())
	assert.True(t, cfg.APIKeySet())
}

func TestEmptyDeletionSecretDisablesDeletion(t *testing.T) {
	cfg, err := Load(lookupFrom(map[string]string{"DELETION_SECRET": ""}))
	require.NoError(t, err)
	assert.False(t, cfg.DeletionEnabled())
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	_, err := Load(lookupFrom(map[string]string{"LOG_LEVEL": "loud"}))
	assert.Error(t, err)
}

func TestStatusFlagsDefaults(t *testing.T) {
	cfg, err := Load(lookupFrom(nil))
	require.NoError(t, err)

	status := cfg.Status()
	assert.True(t, strings.HasPrefix(status, "Alive, "))
	assert.Contains(t, status, "**SIGNING SECRET NOT SET**")
	assert.Contains(t, status, "**API KEY NOT SET**")
	assert.Contains(t, status, "deletion disabled")
	assert.Contains(t, status, "**SHIP METHOD DEFAULTED (PSFC)**")
	assert.Contains(t, status, "using "+DefaultAPIURL)
}

func TestStatusNeverRevealsSecrets(t *testing.T) {
	cfg, err := Load(lookupFrom(map[string]string{
		"SHOPIFY_SIGNING_SECRET": "sign-value",
		"UPWARD_API_KEY":         "key-value",
		"DELETION_SECRET":        "delete-value",
	}))
	require.NoError(t, err)

	status := cfg.Status()
	assert.Contains(t, status, "signing secret set")
	assert.Contains(t, status, "api key set")
	assert.Contains(t, status, "deletion enabled")
	for _, secret := range []string{"sign-value", "key-value", "delete-value"} {
		assert.NotContains(t, status, secret)
	}
}
