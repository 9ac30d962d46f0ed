package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	SMTP        SMTPConfig
	Reservation ReservationConfig
	Tracing     TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	NotificationLog    string
	WebSocketLog       string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
	FrontendURL        string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type TracingConfig struct {
	Enabled      bool
	Endpoint     string
	SamplingRate float64
}

type ReservationConfig struct {
	TimeZone                 string
	DefaultCancellationLimit int
	QuotaCacheTTL            time.Duration
	OutboxTopic              string
	OutboxRelayBatch         int
	OutboxRelayInterval      time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			NotificationLog:    getEnv("NOTIFICATION_LOG_FILE_PATH", "logs/notification.log"),
			WebSocketLog:       getEnv("WEBSOCKET_LOG_FILE_PATH", "logs/websocket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Cleaning Reservations"),
		},
		Reservation: ReservationConfig{
			TimeZone:                 getEnv("RESERVATION_TIMEZONE", "Asia/Seoul"),
			DefaultCancellationLimit: getEnvAsInt("RESERVATION_CANCELLATION_LIMIT", 3),
			QuotaCacheTTL:            time.Duration(getEnvAsInt("RESERVATION_QUOTA_CACHE_TTL_SECONDS", 60)) * time.Second,
			OutboxTopic:              getEnv("RESERVATION_OUTBOX_TOPIC", "RESERVATION_NOTIFICATIONS"),
			OutboxRelayBatch:         getEnvAsInt("RESERVATION_OUTBOX_RELAY_BATCH", 100),
			OutboxRelayInterval:      time.Duration(getEnvAsInt("RESERVATION_OUTBOX_RELAY_INTERVAL_SECONDS", 30)) * time.Second,
		},
		Tracing: TracingConfig{
			Enabled:      getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SamplingRate: getEnvAsFloat("OTEL_SAMPLING_RATE", 1),
		},
	}
}

// Location resolves the engine time zone, falling back to a fixed +09:00
// zone when the tz database is unavailable.
func (c ReservationConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		log.Printf("Warn: unknown time zone %q, using +09:00: %v", c.TimeZone, err)
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
