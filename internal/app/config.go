package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"quizbank/internal/db"
	"quizbank/internal/exam"
	"quizbank/internal/question"
)

// Config stores runtime configuration. Values come from defaults, then the
// optional YAML file named by QUIZBANK_CONFIG_FILE, then QUIZBANK_* env vars.
type Config struct {
	AppEnv            string `yaml:"app_env"`
	DBDriver          string `yaml:"db_driver"`
	DBDSN             string `yaml:"db_dsn"`
	DBMaxOpenConns    int    `yaml:"db_max_open_conns"`
	DBMaxIdleConns    int    `yaml:"db_max_idle_conns"`
	DBConnMaxLifeMins int    `yaml:"db_conn_max_lifetime_minutes"`
	RedisURL          string `yaml:"redis_url"`
	CacheTTLSeconds   int    `yaml:"cache_ttl_seconds"`

	SampleCount       int    `yaml:"sample_count"`
	Strategy          string `yaml:"strategy"`
	FeedbackMode      string `yaml:"feedback_mode"`
	ExplanationPolicy string `yaml:"explanation_policy"`
	Retries           bool   `yaml:"retries"`
	DuplicatePolicy   string `yaml:"duplicate_policy"`
	TimeLimitMinutes  int    `yaml:"time_limit_minutes"`

	LogEvents bool `yaml:"log_events"`
}

func defaultConfig() Config {
	return Config{
		AppEnv:            "development",
		DBDriver:          string(db.DriverSQLite),
		DBDSN:             "file:questions.db?_pragma=busy_timeout(5000)",
		DBMaxOpenConns:    25,
		DBMaxIdleConns:    25,
		DBConnMaxLifeMins: 30,
		CacheTTLSeconds:   300,
		SampleCount:       10,
		Strategy:          string(exam.StrategyUniform),
		FeedbackMode:      string(exam.FeedbackImmediate),
		ExplanationPolicy: string(exam.ExplainAlways),
		Retries:           true,
		DuplicatePolicy:   string(question.DuplicatesExclude),
		LogEvents:         true,
	}
}

func LoadConfig() (Config, error) {
	cfg := defaultConfig()
	if path := strings.TrimSpace(os.Getenv("QUIZBANK_CONFIG_FILE")); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config file: %w", err)
		}
		defer func() { _ = f.Close() }()
		if err := decodeConfigFile(f, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.AppEnv = envOrDefault("QUIZBANK_APP_ENV", cfg.AppEnv)
	cfg.DBDriver = envOrDefault("QUIZBANK_DB_DRIVER", cfg.DBDriver)
	cfg.DBDSN = envOrDefault("QUIZBANK_DB_DSN", cfg.DBDSN)
	cfg.DBMaxOpenConns = intOrDefault("QUIZBANK_DB_MAX_OPEN_CONNS", cfg.DBMaxOpenConns)
	cfg.DBMaxIdleConns = intOrDefault("QUIZBANK_DB_MAX_IDLE_CONNS", cfg.DBMaxIdleConns)
	cfg.DBConnMaxLifeMins = intOrDefault("QUIZBANK_DB_CONN_MAX_LIFETIME_MINUTES", cfg.DBConnMaxLifeMins)
	cfg.RedisURL = envOrDefault("QUIZBANK_REDIS_URL", cfg.RedisURL)
	cfg.CacheTTLSeconds = intOrDefault("QUIZBANK_CACHE_TTL_SECONDS", cfg.CacheTTLSeconds)
	cfg.SampleCount = intOrDefault("QUIZBANK_SAMPLE_COUNT", cfg.SampleCount)
	cfg.Strategy = envOrDefault("QUIZBANK_STRATEGY", cfg.Strategy)
	cfg.FeedbackMode = envOrDefault("QUIZBANK_FEEDBACK_MODE", cfg.FeedbackMode)
	cfg.ExplanationPolicy = envOrDefault("QUIZBANK_EXPLANATION_POLICY", cfg.ExplanationPolicy)
	cfg.Retries = boolOrDefault("QUIZBANK_RETRIES", cfg.Retries)
	cfg.DuplicatePolicy = envOrDefault("QUIZBANK_DUPLICATE_POLICY", cfg.DuplicatePolicy)
	cfg.TimeLimitMinutes = intOrDefault("QUIZBANK_TIME_LIMIT_MINUTES", cfg.TimeLimitMinutes)
	cfg.LogEvents = boolOrDefault("QUIZBANK_LOG_EVENTS", cfg.LogEvents)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeConfigFile(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config file: %w", err)
	}
	return nil
}

// Validate checks every enum-valued field and numeric bound.
func (c Config) Validate() error {
	var errs []error
	if _, err := db.ParseDriver(c.DBDriver); err != nil {
		errs = append(errs, err)
	}
	if _, err := exam.ParseStrategy(c.Strategy); err != nil {
		errs = append(errs, err)
	}
	if _, err := exam.ParseFeedbackMode(c.FeedbackMode); err != nil {
		errs = append(errs, err)
	}
	if _, err := exam.ParseExplanationPolicy(c.ExplanationPolicy); err != nil {
		errs = append(errs, err)
	}
	if _, err := question.ParseDuplicatePolicy(c.DuplicatePolicy); err != nil {
		errs = append(errs, err)
	}
	if c.SampleCount < 1 {
		errs = append(errs, fmt.Errorf("sample_count must be positive, got %d", c.SampleCount))
	}
	if c.TimeLimitMinutes < 0 {
		errs = append(errs, fmt.Errorf("time_limit_minutes must not be negative, got %d", c.TimeLimitMinutes))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) PoolConfig() db.PoolConfig {
	pool := db.DefaultPoolConfig()
	pool.MaxOpenConns = c.DBMaxOpenConns
	pool.MaxIdleConns = c.DBMaxIdleConns
	pool.ConnMaxLifetime = time.Duration(c.DBConnMaxLifeMins) * time.Minute
	return pool
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// SessionConfig builds the session rules. Call Validate first.
func (c Config) SessionConfig() exam.Config {
	feedback, _ := exam.ParseFeedbackMode(c.FeedbackMode)
	explain, _ := exam.ParseExplanationPolicy(c.ExplanationPolicy)
	return exam.Config{
		Feedback:    feedback,
		Explanation: explain,
		Retries:     c.Retries,
		TimeLimit:   time.Duration(c.TimeLimitMinutes) * time.Minute,
	}
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsToInt(v string) int {
	n, _ := strconv.Atoi(v)
	return n
}

func intOrDefault(key string, fallback int) int {
	v := stringsToInt(os.Getenv(key))
	if v <= 0 {
		return fallback
	}
	return v
}

func boolOrDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
