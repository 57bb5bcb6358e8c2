package config

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultSecret is the placeholder used when a secret is not provided.
	// The status endpoint reports any secret still equal to it.
	DefaultSecret       = "123changeme"
	DefaultAPIURL       = "https://sandbox.upwardlogistics.net/v1/"
	DefaultShipMethod   = "PSFC"
	DefaultFailureTopic = "upward.delivery.failed"
	DefaultPort         = "5000"
)

// Config is built once at startup and passed by value to every component.
type Config struct {
	Port                 string
	ShopifySigningSecret string
	UpwardAPIKey         string
	UpwardAPIURL         string
	UpwardShipMethod     string
	ShipMethodDefaulted  bool

	// DeletionSecret is nil when deletion is disabled.
	DeletionSecret *string

	KafkaBrokers []string
	FailureTopic string
	LogLevel     logrus.Level
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// FromEnv loads the configuration from the process environment.
func FromEnv() (Config, error) {
	return Load(os.LookupEnv)
}

func Load(lookup LookupFunc) (Config, error) {
	getEnv := func(key, defaultValue string) string {
		if value, ok := lookup(key); ok && value != "" {
			return value
		}
		return defaultValue
	}

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	apiURL := getEnv("UPWARD_API_URL", DefaultAPIURL)
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}

	cfg := Config{
		Port:                 getEnv("PORT", DefaultPort),
		ShopifySigningSecret: getEnv("SHOPIFY_SIGNING_SECRET", DefaultSecret),
		UpwardAPIKey:         getEnv("UPWARD_API_KEY", DefaultSecret),
		UpwardAPIURL:         apiURL,
		UpwardShipMethod:     getEnv("UPWARD_SHIP_METHOD", DefaultShipMethod),
		FailureTopic:         getEnv("FAILURE_TOPIC", DefaultFailureTopic),
		LogLevel:             level,
	}
	cfg.ShipMethodDefaulted = cfg.UpwardShipMethod == DefaultShipMethod

	// An empty deletion secret would let an empty password through, so it
	// counts as unset.
	if secret, ok := lookup("DELETION_SECRET"); ok && secret != "" {
		cfg.DeletionSecret = &secret
	}

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}

	return cfg, nil
}

func (c Config) SigningSecretSet() bool {
	return c.ShopifySigningSecret != DefaultSecret
}

func (c Config) APIKeySet() bool {
	return c.UpwardAPIKey != DefaultSecret
}

func (c Config) DeletionEnabled() bool {
	return c.DeletionSecret != nil
}

// Status describes which values are still at their defaults without
// revealing any secret.
func (c Config) Status() string {
	var b strings.Builder
	b.WriteString("Alive, ")
	if c.SigningSecretSet() {
		b.WriteString("signing secret set, ")
	} else {
		b.WriteString("**SIGNING SECRET NOT SET**, ")
	}
	if c.APIKeySet() {
		b.WriteString("api key set, ")
	} else {
		b.WriteString("**API KEY NOT SET**, ")
	}
	if c.DeletionEnabled() {
		b.WriteString("deletion enabled, ")
	} else {
		b.WriteString("deletion disabled, ")
	}
	if c.ShipMethodDefaulted {
		b.WriteString("**SHIP METHOD DEFAULTED (" + c.UpwardShipMethod + ")**, ")
	} else {
		b.WriteString("ship method " + c.UpwardShipMethod + ", ")
	}
	b.WriteString("using " + c.UpwardAPIURL)
	return b.String()
}
