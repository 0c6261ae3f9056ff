package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig captures all tunable parameters for the HTTP API process.
// Values are primarily loaded from environment variables with sane defaults
// so the binary can run locally without excessive setup.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	RedisAddr        string
	RedisPassword    string
	RedisFeedCap     int
	RedisPositionKey string

	KafkaBrokers []string
	KafkaTopic   string

	PGDSN string

	StripeAPIKey string

	MatchLatency   time.Duration
	MatchTimeout   time.Duration
	LateMatchDelay time.Duration
	ToastDuration  time.Duration
	ReplyDelay     time.Duration
	TrackDuration  time.Duration
	TrackTick      time.Duration

	ScoreSeed       int64
	DefaultMaxPrice float64

	LogLevel      string
	RunMigrations bool
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:         ":8080",
		ReadTimeout:      5 * time.Second,
		WriteTimeout:     15 * time.Second,
		IdleTimeout:      120 * time.Second,
		ShutdownTimeout:  15 * time.Second,
		RedisFeedCap:     500,
		RedisPositionKey: "tracking:positions",
		KafkaTopic:       "carpool-events",
		MatchLatency:     2 * time.Second,
		MatchTimeout:     10 * time.Second,
		LateMatchDelay:   5 * time.Second,
		ToastDuration:    4 * time.Second,
		ReplyDelay:       2 * time.Second,
		TrackDuration:    30 * time.Second,
		TrackTick:        100 * time.Millisecond,
		ScoreSeed:        time.Now().UnixNano(),
		DefaultMaxPrice:  20,
		LogLevel:         "info",
	}
}

// LoadServerConfig reads an optional .env file and then the environment.
func LoadServerConfig() (ServerConfig, error) {
	_ = godotenv.Load()

	cfg := defaultServerConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setIntFromEnv(&cfg.RedisFeedCap, "REDIS_FEED_CAP", &errs)
	setStringFromEnv(&cfg.RedisPositionKey, "REDIS_POSITION_KEY")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")

	cfg.PGDSN = os.Getenv("PG_DSN")
	cfg.StripeAPIKey = strings.TrimSpace(os.Getenv("STRIPE_API_KEY"))

	setDurationFromEnv(&cfg.MatchLatency, "MATCH_LATENCY", &errs)
	setDurationFromEnv(&cfg.MatchTimeout, "MATCH_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.LateMatchDelay, "LATE_MATCH_DELAY", &errs)
	setDurationFromEnv(&cfg.ToastDuration, "TOAST_DURATION", &errs)
	setDurationFromEnv(&cfg.ReplyDelay, "CHAT_REPLY_DELAY", &errs)
	setDurationFromEnv(&cfg.TrackDuration, "TRACK_DURATION", &errs)
	setDurationFromEnv(&cfg.TrackTick, "TRACK_TICK", &errs)

	if v := os.Getenv("SCORE_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid SCORE_SEED: %w", err))
		} else {
			cfg.ScoreSeed = seed
		}
	}
	setFloatFromEnv(&cfg.DefaultMaxPrice, "DEFAULT_MAX_PRICE", &errs)

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	cfg.RunMigrations = strings.EqualFold(os.Getenv("MIGRATE"), "true")

	errs = append(errs, cfg.validate()...)
	return cfg, errors.Join(errs...)
}

func (c ServerConfig) validate() []error {
	var errs []error
	positive := []struct {
		key string
		v   time.Duration
	}{
		{"MATCH_LATENCY", c.MatchLatency},
		{"MATCH_TIMEOUT", c.MatchTimeout},
		{"LATE_MATCH_DELAY", c.LateMatchDelay},
		{"TOAST_DURATION", c.ToastDuration},
		{"CHAT_REPLY_DELAY", c.ReplyDelay},
		{"TRACK_DURATION", c.TrackDuration},
		{"TRACK_TICK", c.TrackTick},
	}
	for _, p := range positive {
		if p.v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0", p.key))
		}
	}
	if c.TrackTick > c.TrackDuration {
		errs = append(errs, fmt.Errorf("TRACK_TICK must be <= TRACK_DURATION"))
	}
	if c.RedisFeedCap <= 0 {
		errs = append(errs, fmt.Errorf("REDIS_FEED_CAP must be > 0"))
	}
	if c.DefaultMaxPrice < 0 {
		errs = append(errs, fmt.Errorf("DEFAULT_MAX_PRICE must be >= 0"))
	}
	return errs
}

// ConsumerConfig is the subset the event consumer needs.
type ConsumerConfig struct {
	MetricsAddr   string
	KafkaBrokers  []string
	KafkaTopic    string
	KafkaGroupID  string
	RedisAddr     string
	RedisPassword string
	RedisFeedCap  int
	MaxRetries    int
	RetryBackoff  time.Duration
	LogLevel      string
}

func LoadConsumerConfig() (ConsumerConfig, error) {
	_ = godotenv.Load()

	cfg := ConsumerConfig{
		MetricsAddr:  ":9102",
		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "carpool-events",
		KafkaGroupID: "carpool-feed-mirror",
		RedisAddr:    "localhost:6379",
		RedisFeedCap: 500,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		LogLevel:     "info",
	}
	var errs []error

	setStringFromEnv(&cfg.MetricsAddr, "CONSUMER_METRICS_ADDR")
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")
	setStringFromEnv(&cfg.KafkaGroupID, "KAFKA_GROUP_ID")
	setStringFromEnv(&cfg.RedisAddr, "REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setIntFromEnv(&cfg.RedisFeedCap, "REDIS_FEED_CAP", &errs)
	setIntFromEnv(&cfg.MaxRetries, "CONSUMER_MAX_RETRIES", &errs)
	setDurationFromEnv(&cfg.RetryBackoff, "CONSUMER_RETRY_BACKOFF", &errs)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if len(cfg.KafkaBrokers) == 0 {
		errs = append(errs, fmt.Errorf("KAFKA_BROKERS must not be empty"))
	}
	if cfg.MaxRetries <= 0 {
		errs = append(errs, fmt.Errorf("CONSUMER_MAX_RETRIES must be > 0"))
	}
	if cfg.RedisFeedCap <= 0 {
		errs = append(errs, fmt.Errorf("REDIS_FEED_CAP must be > 0"))
	}
	return cfg, errors.Join(errs...)
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setFloatFromEnv(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setIntFromEnv(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
