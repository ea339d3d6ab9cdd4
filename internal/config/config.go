package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Capture  CaptureConfig
	Location LocationConfig
	Export   ExportConfig
	Events   EventsConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	FeedChannel        string
}

type CaptureConfig struct {
	// SessionTTL is how long an idle capture session is kept before it is
	// cancelled and its devices released.
	SessionTTL      time.Duration
	CleanupInterval time.Duration
	FinalizeTimeout time.Duration
	FlushTimeout    time.Duration
	FrameInterval   time.Duration
	DefaultFacing   string
}

type LocationConfig struct {
	GPSSubject string
}

type ExportConfig struct {
	// DefaultScope is "all" or "active".
	DefaultScope string
}

type EventsConfig struct {
	Topic  string
	Stream string
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/feed.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			FeedChannel:        getEnv("FEED_CHANNEL", "field_feed"),
		},
		Capture: CaptureConfig{
			SessionTTL:      getEnvAsDuration("CAPTURE_SESSION_TTL", 15*time.Minute),
			CleanupInterval: getEnvAsDuration("CAPTURE_CLEANUP_INTERVAL", time.Minute),
			FinalizeTimeout: getEnvAsDuration("CAPTURE_FINALIZE_TIMEOUT", 10*time.Second),
			FlushTimeout:    getEnvAsDuration("CAPTURE_FLUSH_TIMEOUT", 5*time.Second),
			FrameInterval:   time.Second / time.Duration(getEnvAsInt("CAPTURE_VISUALIZATION_FPS", 30)),
			DefaultFacing:   getEnv("CAPTURE_DEFAULT_FACING", "environment"),
		},
		Location: LocationConfig{
			GPSSubject: getEnv("FIELD_GPS_SUBJECT", "gps.positions"),
		},
		Export: ExportConfig{
			DefaultScope: getEnv("EXPORT_DEFAULT_SCOPE", "all"),
		},
		Events: EventsConfig{
			Topic:  getEnv("FIELD_EVENTS_TOPIC", "FIELD_EVENTS"),
			Stream: getEnv("FIELD_EVENTS_STREAM", "FIELD_EVENTS"),
		},
		Tracing: TracingConfig{
			Enabled:  getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil && value > 0 {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
