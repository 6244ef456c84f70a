package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	API struct {
		Port     string
		BasePath string
	}
	Monitor struct {
		FetchTimeoutSeconds  int
		CycleIntervalMinutes int
	}
	DB struct {
		DSN string // optional alert archive; empty disables it
	}
	Kafka struct {
		Broker  string // optional custom-source ingest; empty disables it
		Topic   string
		GroupID string
	}
	Telegram struct {
		BotToken string
	}
	Email struct {
		SMTPServer string
		SMTPPort   int
		Username   string
		Password   string
		FromName   string
	}
	Sources struct {
		RansomwatchURL string
		ForumsURL      string
		ThreatFoxURL   string
		URLHausURL     string
	}
	Delivery struct {
		RatePerSecond  int
		TimeoutSeconds int
	}
	Logging struct {
		Dir   string
		Level string
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	cfg.API.Port = os.Getenv("API_PORT")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")

	cfg.Monitor.FetchTimeoutSeconds = intEnv("FETCH_TIMEOUT_SECONDS")
	cfg.Monitor.CycleIntervalMinutes = intEnv("CYCLE_INTERVAL_MINUTES")

	cfg.DB.DSN = os.Getenv("DB_DSN")

	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")
	cfg.Kafka.GroupID = os.Getenv("KAFKA_GROUP_ID")

	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")

	cfg.Email.SMTPServer = os.Getenv("EMAIL_SMTP_SERVER")
	cfg.Email.SMTPPort = intEnv("EMAIL_SMTP_PORT")
	cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	cfg.Email.FromName = os.Getenv("EMAIL_FROM_NAME")

	cfg.Sources.RansomwatchURL = os.Getenv("RANSOMWATCH_URL")
	cfg.Sources.ForumsURL = os.Getenv("FORUMS_URL")
	cfg.Sources.ThreatFoxURL = os.Getenv("THREATFOX_URL")
	cfg.Sources.URLHausURL = os.Getenv("URLHAUS_URL")

	cfg.Delivery.RatePerSecond = intEnv("DELIVERY_RATE_PER_SECOND")
	cfg.Delivery.TimeoutSeconds = intEnv("DELIVERY_TIMEOUT_SECONDS")

	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	// Kafka ingest needs topic and group once a broker is configured
	if cfg.Kafka.Broker != "" {
		missing := []string{}
		if cfg.Kafka.Topic == "" {
			missing = append(missing, "KAFKA_TOPIC")
		}
		if cfg.Kafka.GroupID == "" {
			missing = append(missing, "KAFKA_GROUP_ID")
		}
		if len(missing) > 0 {
			return Config{}, fmt.Errorf("missing required configurations: %v", missing)
		}
	}

	// Apply defaults
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api/v1"
	}
	if cfg.Monitor.FetchTimeoutSeconds == 0 {
		cfg.Monitor.FetchTimeoutSeconds = 15
	}
	if cfg.Monitor.CycleIntervalMinutes == 0 {
		cfg.Monitor.CycleIntervalMinutes = 5
	}
	if cfg.Sources.RansomwatchURL == "" {
		cfg.Sources.RansomwatchURL = "https://ransomwatch.telemetry.ltd"
	}
	if cfg.Sources.ThreatFoxURL == "" {
		cfg.Sources.ThreatFoxURL = "https://threatfox-api.abuse.ch/api/v1/"
	}
	if cfg.Sources.URLHausURL == "" {
		cfg.Sources.URLHausURL = "https://urlhaus-api.abuse.ch/v1"
	}
	if cfg.Delivery.RatePerSecond == 0 {
		cfg.Delivery.RatePerSecond = 5
	}
	if cfg.Delivery.TimeoutSeconds == 0 {
		cfg.Delivery.TimeoutSeconds = 10
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}

func intEnv(key string) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}
