package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config carries every tunable of the client. Values come from the
// environment, optionally seeded from a .env file next to the binary.
type Config struct {
	BackendURL string // remote endpoint, e.g. the deployed Apps Script URL
	Username   string

	StoreDriver string // "sqlite" or "mongo"
	StorePath   string // sqlite database file
	MongoURI    string
	MongoDB     string

	SplitRatio    float64 // owner/driver split applied to shared trips
	DrainInterval time.Duration
	HTTPTimeout   time.Duration

	JWTSecret     string
	SessionExpiry time.Duration

	MQTTBroker    string // optional presence broker; empty disables it
	ProbeInterval time.Duration
}

var ErrMissingBackendURL = errors.New("BACKEND_URL is not configured")

// Load reads the configuration from the environment. A missing .env file is
// not an error; explicit environment variables always win over file values.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Could not read .env file")
	}

	cfg := &Config{
		BackendURL:    os.Getenv("BACKEND_URL"),
		Username:      os.Getenv("TAXILOG_USER"),
		StoreDriver:   envOr("STORE_DRIVER", "sqlite"),
		StorePath:     envOr("STORE_PATH", "taxilog.db"),
		MongoURI:      envOr("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       envOr("MONGO_DB", "taxilog"),
		SplitRatio:    envFloat("SPLIT_RATIO", 0.5),
		DrainInterval: envDuration("DRAIN_INTERVAL", 30*time.Second),
		HTTPTimeout:   envDuration("HTTP_TIMEOUT", 15*time.Second),
		JWTSecret:     envOr("JWT_SECRET", "default-secret-key-change-in-production"),
		SessionExpiry: envDuration("SESSION_EXPIRY", 24*time.Hour),
		MQTTBroker:    os.Getenv("MQTT_BROKER"),
		ProbeInterval: envDuration("PROBE_INTERVAL", 20*time.Second),
	}

	if cfg.BackendURL == "" {
		return nil, ErrMissingBackendURL
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.WithField("key", key).Warn("Ignoring unparsable float value")
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.WithField("key", key).Warn("Ignoring unparsable duration value")
	}
	return def
}
