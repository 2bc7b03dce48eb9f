package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort  string
	LogLevel string

	PostgresDSN string

	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMTimeout     time.Duration

	AnomalyWindowDays      int
	AnomalyMinTransactions int
	AnomalyRecentLimit     int
	DigestWindowDays       int
	TopCategories          int

	NATSURL     string
	NATSSubject string

	APIRateLimitRPS     float64
	APIRateLimitBurst   int
	APIMaxInFlight      int
	APIBackpressureWait time.Duration
}

// Load resolves configuration in three layers: built-in defaults, an
// optional YAML file named by CONFIG_FILE, then environment variables.
// Later layers win.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func (c Config) Validate() error {
	if c.PostgresDSN == "" {
		return fmt.Errorf("config: POSTGRES_DSN is required")
	}
	if c.LLMBaseURL == "" {
		return fmt.Errorf("config: LLM_BASE_URL is required")
	}
	if c.LLMAPIKey == "" {
		return fmt.Errorf("config: LLM_API_KEY is required")
	}
	return nil
}

func defaults() Config {
	return Config{
		APIPort:  "8080",
		LogLevel: "info",

		LLMModel:       "gpt-4o-mini",
		LLMMaxTokens:   1024,
		LLMTemperature: 0.2,
		LLMTimeout:     60 * time.Second,

		AnomalyWindowDays:      90,
		AnomalyMinTransactions: 5,
		AnomalyRecentLimit:     100,
		DigestWindowDays:       7,
		TopCategories:          5,

		NATSSubject: "insights.created",

		APIRateLimitRPS:     25,
		APIRateLimitBurst:   50,
		APIMaxInFlight:      64,
		APIBackpressureWait: 200 * time.Millisecond,
	}
}

// fileConfig mirrors Config with pointer fields so absent YAML keys leave
// the default untouched.
type fileConfig struct {
	APIPort  *string `yaml:"api_port"`
	LogLevel *string `yaml:"log_level"`

	PostgresDSN *string `yaml:"postgres_dsn"`

	LLMBaseURL        *string  `yaml:"llm_base_url"`
	LLMAPIKey         *string  `yaml:"llm_api_key"`
	LLMModel          *string  `yaml:"llm_model"`
	LLMMaxTokens      *int     `yaml:"llm_max_tokens"`
	LLMTemperature    *float64 `yaml:"llm_temperature"`
	LLMTimeoutSeconds *int     `yaml:"llm_timeout_seconds"`

	AnomalyWindowDays      *int `yaml:"anomaly_window_days"`
	AnomalyMinTransactions *int `yaml:"anomaly_min_transactions"`
	AnomalyRecentLimit     *int `yaml:"anomaly_recent_limit"`
	DigestWindowDays       *int `yaml:"digest_window_days"`
	TopCategories          *int `yaml:"top_categories"`

	NATSURL     *string `yaml:"nats_url"`
	NATSSubject *string `yaml:"nats_subject"`

	APIRateLimitRPS       *float64 `yaml:"api_rate_limit_rps"`
	APIRateLimitBurst     *int     `yaml:"api_rate_limit_burst"`
	APIMaxInFlight        *int     `yaml:"api_max_in_flight"`
	APIBackpressureWaitMS *int     `yaml:"api_backpressure_wait_ms"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	setString(&cfg.APIPort, file.APIPort)
	setString(&cfg.LogLevel, file.LogLevel)
	setString(&cfg.PostgresDSN, file.PostgresDSN)
	setString(&cfg.LLMBaseURL, file.LLMBaseURL)
	setString(&cfg.LLMAPIKey, file.LLMAPIKey)
	setString(&cfg.LLMModel, file.LLMModel)
	setInt(&cfg.LLMMaxTokens, file.LLMMaxTokens)
	setFloat(&cfg.LLMTemperature, file.LLMTemperature)
	if file.LLMTimeoutSeconds != nil {
		cfg.LLMTimeout = time.Duration(*file.LLMTimeoutSeconds) * time.Second
	}
	setInt(&cfg.AnomalyWindowDays, file.AnomalyWindowDays)
	setInt(&cfg.AnomalyMinTransactions, file.AnomalyMinTransactions)
	setInt(&cfg.AnomalyRecentLimit, file.AnomalyRecentLimit)
	setInt(&cfg.DigestWindowDays, file.DigestWindowDays)
	setInt(&cfg.TopCategories, file.TopCategories)
	setString(&cfg.NATSURL, file.NATSURL)
	setString(&cfg.NATSSubject, file.NATSSubject)
	setFloat(&cfg.APIRateLimitRPS, file.APIRateLimitRPS)
	setInt(&cfg.APIRateLimitBurst, file.APIRateLimitBurst)
	setInt(&cfg.APIMaxInFlight, file.APIMaxInFlight)
	if file.APIBackpressureWaitMS != nil {
		cfg.APIBackpressureWait = time.Duration(*file.APIBackpressureWaitMS) * time.Millisecond
	}
	return nil
}

func applyEnv(cfg *Config) {
	envString(&cfg.APIPort, "API_PORT")
	envString(&cfg.LogLevel, "LOG_LEVEL")
	envString(&cfg.PostgresDSN, "POSTGRES_DSN")
	envString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	envString(&cfg.LLMAPIKey, "LLM_API_KEY")
	envString(&cfg.LLMModel, "LLM_MODEL")
	envInt(&cfg.LLMMaxTokens, "LLM_MAX_TOKENS")
	envFloat(&cfg.LLMTemperature, "LLM_TEMPERATURE")
	envDurationSeconds(&cfg.LLMTimeout, "LLM_TIMEOUT_SECONDS")
	envInt(&cfg.AnomalyWindowDays, "ANOMALY_WINDOW_DAYS")
	envInt(&cfg.AnomalyMinTransactions, "ANOMALY_MIN_TRANSACTIONS")
	envInt(&cfg.AnomalyRecentLimit, "ANOMALY_RECENT_LIMIT")
	envInt(&cfg.DigestWindowDays, "DIGEST_WINDOW_DAYS")
	envInt(&cfg.TopCategories, "TOP_CATEGORIES")
	envString(&cfg.NATSURL, "NATS_URL")
	envString(&cfg.NATSSubject, "NATS_SUBJECT")
	envFloat(&cfg.APIRateLimitRPS, "API_RATE_LIMIT_RPS")
	envInt(&cfg.APIRateLimitBurst, "API_RATE_LIMIT_BURST")
	envInt(&cfg.APIMaxInFlight, "API_MAX_IN_FLIGHT")
	envDurationMillis(&cfg.APIBackpressureWait, "API_BACKPRESSURE_WAIT_MS")
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*dst = n
}

func envFloat(dst *float64, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return
	}
	*dst = f
}

func envDurationSeconds(dst *time.Duration, key string) {
	var n int
	envInt(&n, key)
	if n > 0 {
		*dst = time.Duration(n) * time.Second
	}
}

func envDurationMillis(dst *time.Duration, key string) {
	var n int
	envInt(&n, key)
	if n > 0 {
		*dst = time.Duration(n) * time.Millisecond
	}
}
