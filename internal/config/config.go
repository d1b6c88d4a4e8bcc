package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// NATS configuration
	NatsURL               string
	NatsTurnSubject       string
	NatsHistorySubject    string
	NatsClearSubject      string
	NatsSummarySubject    string
	NatsYearlySubject     string
	NatsCategoriesSubject string
	NatsTrendsSubject     string
	NatsStatsSubject      string
	NatsTimeout           time.Duration

	// HTTP dashboard configuration
	HTTPAddr string

	// Redis configuration
	RedisURL   string
	SessionTTL time.Duration

	// LLM configuration
	LLMAPIKey          string
	LLMModel           string
	LLMBaseURL         string
	LLMTimeout         time.Duration
	IntentThreshold    float64
	HistoryWindowTurns int

	// Service configuration
	ServiceName string
}

func Load() *Config {
	return &Config{
		// NATS settings
		NatsURL:               getEnv("NATS_URL", "nats://localhost:4222"),
		NatsTurnSubject:       getEnv("NATS_TURN_SUBJECT", "agent.turn"),
		NatsHistorySubject:    getEnv("NATS_HISTORY_SUBJECT", "agent.history"),
		NatsClearSubject:      getEnv("NATS_CLEAR_SUBJECT", "agent.clear"),
		NatsSummarySubject:    getEnv("NATS_SUMMARY_SUBJECT", "analytics.summary"),
		NatsYearlySubject:     getEnv("NATS_YEARLY_SUBJECT", "analytics.yearly"),
		NatsCategoriesSubject: getEnv("NATS_CATEGORIES_SUBJECT", "analytics.categories"),
		NatsTrendsSubject:     getEnv("NATS_TRENDS_SUBJECT", "analytics.trends"),
		NatsStatsSubject:      getEnv("NATS_STATS_SUBJECT", "analytics.stats"),
		NatsTimeout:           getDurationEnv("NATS_TIMEOUT", 30*time.Second),

		// HTTP settings
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		// Redis settings
		RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SessionTTL: getDurationEnv("SESSION_TTL", 30*time.Minute),

		// LLM settings
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		LLMModel:           getEnv("LLM_MODEL", "deepseek/deepseek-r1:free"),
		LLMBaseURL:         getEnv("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMTimeout:         getDurationEnv("LLM_TIMEOUT", 30*time.Second),
		IntentThreshold:    getFloatEnv("INTENT_THRESHOLD", 0.6),
		HistoryWindowTurns: getIntEnv("HISTORY_WINDOW_TURNS", 10),

		// Service settings
		ServiceName: getEnv("SERVICE_NAME", "homebuddy-agent"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
