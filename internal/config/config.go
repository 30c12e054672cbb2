package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Session    SessionConfig
	Annotation AnnotationConfig
	Events     EventsConfig
	Tracing    TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
	BodyLimitMB        int
	StartPath          string
}

type SessionConfig struct {
	Store      string // "memory" or "redis"
	TTL        time.Duration
	RedisURL   string
	CookieName string
}

type AnnotationConfig struct {
	UploadDir    string
	IconDir      string // empty means built-in icons
	WatchIcons   bool
	RenderScale  float64
	IconSize     float64
	Tolerance    float64
	StampSummary bool
	CleanupCron  string
}

type EventsConfig struct {
	Topic   string
	NatsURL    string // empty disables forwarding to NATS
	NatsStream string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	SampleRatio float64
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
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "logs/audit.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			BodyLimitMB:        getEnvAsInt("BODY_LIMIT_MB", 25),
			StartPath:          getEnv("START_PATH", "/"),
		},
		Session: SessionConfig{
			Store:      getEnv("SESSION_STORE", "memory"),
			TTL:        time.Duration(getEnvAsInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
			RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379"),
			CookieName: getEnv("SESSION_COOKIE_NAME", "annotator_session"),
		},
		Annotation: AnnotationConfig{
			UploadDir:    getEnv("UPLOAD_DIR", os.TempDir()),
			IconDir:      getEnv("ICON_DIR", ""),
			WatchIcons:   getEnvAsBool("WATCH_ICONS", false),
			RenderScale:  getEnvAsFloat("RENDER_SCALE", 2.0),
			IconSize:     getEnvAsFloat("ICON_SIZE", 15),
			Tolerance:    getEnvAsFloat("ANNOTATION_TOLERANCE", 5),
			StampSummary: getEnvAsBool("STAMP_SUMMARY", true),
			CleanupCron:  getEnv("CLEANUP_CRON", "@every 10m"),
		},
		Events: EventsConfig{
			Topic:      getEnv("EVENT_TOPIC", "annotation.events"),
			NatsURL:    getEnv("NATS_URL", ""),
			NatsStream: getEnv("NATS_STREAM", "ANNOTATOR"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "pdf-annotator-backend"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1.0),
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
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil && value > 0 {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
