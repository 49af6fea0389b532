package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppHost  string
	HTTPPort string
	AppEnv   string
	LogLevel string

	// CORSAllowedOrigins: origins фронтенда (React dev server), через запятую в CORS_ALLOWED_ORIGINS.
	CORSAllowedOrigins []string

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}

	// Dyte: учётные данные организации и пресеты участников.
	Dyte struct {
		BaseURL        string
		OrgID          string
		APIKey         string
		Timeout        time.Duration
		Region         string
		CustomerPreset string
		SupportPreset  string
	}

	// Support seat: single support participant per live request.
	SupportDisplayName   string
	SupportParticipantID string

	// Kafka: без брокеров или топика события не отправляются.
	KafkaBrokers          []string
	KafkaTopicLiveRequest string
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	timeoutSec, err := strconv.Atoi(getEnv("DYTE_TIMEOUT", "30"))
	if err != nil {
		return nil, fmt.Errorf("config: DYTE_TIMEOUT: %w", err)
	}

	cfg := &Config{
		AppHost:               getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:              firstEnv("APP_PORT", "HTTP_PORT", "8098"),
		AppEnv:                getEnv("APP_ENV", "development"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173,http://127.0.0.1:3000,http://127.0.0.1:5173")),
		SupportDisplayName:    getEnv("SUPPORT_DISPLAY_NAME", "Customer Support"),
		SupportParticipantID:  getEnv("SUPPORT_PARTICIPANT_ID", "customer-support"),
		KafkaBrokers:          splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopicLiveRequest: getEnv("KAFKA_TOPIC_LIVE_REQUEST", "live-requests"),
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "live_request_service")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Dyte.BaseURL = strings.TrimRight(getEnv("DYTE_BASE_URL", "https://api.dyte.io/v2"), "/")
	cfg.Dyte.OrgID = getEnv("DYTE_ORG_ID", "")
	cfg.Dyte.APIKey = getEnv("DYTE_API_KEY", "")
	cfg.Dyte.Timeout = time.Duration(timeoutSec) * time.Second
	cfg.Dyte.Region = getEnv("DYTE_REGION", "ap-south-1")
	cfg.Dyte.CustomerPreset = getEnv("DYTE_CUSTOMER_PRESET", "group_call_participant")
	cfg.Dyte.SupportPreset = getEnv("DYTE_SUPPORT_PRESET", "group_call_host")
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.Host == "" || c.DB.Database == "" {
		return errors.New("config: DB_HOST and DB_DATABASE are required")
	}
	if c.Dyte.BaseURL == "" {
		return errors.New("config: DYTE_BASE_URL is required")
	}
	if c.Dyte.Timeout <= 0 {
		return errors.New("config: DYTE_TIMEOUT must be positive")
	}
	if c.AppEnv == "production" {
		if c.DB.Password == "" {
			return errors.New("config: in production DB_PASSWORD is required")
		}
		if c.Dyte.OrgID == "" || c.Dyte.APIKey == "" {
			return errors.New("config: in production DYTE_ORG_ID and DYTE_API_KEY are required")
		}
	}
	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

// KafkaEnabled сообщает, настроена ли публикация событий.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaTopicLiveRequest != ""
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// splitList разбивает "a, b,c" на слайс без пустых элементов.
func splitList(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
