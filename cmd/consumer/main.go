package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/example/carpool-matching/internal/config"
	"github.com/example/carpool-matching/internal/events"
	"github.com/example/carpool-matching/internal/logging"
	"github.com/example/carpool-matching/internal/models"
	"github.com/example/carpool-matching/internal/pool"
)

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_consumed_total",
		Help: "Total session event messages consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_invalid_total",
		Help: "Total invalid messages received",
	})
	postsMirrored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_posts_mirrored_total",
		Help: "Total posts mirrored into the redis feed",
	})
	redisErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_redis_errors_total",
		Help: "Total redis errors",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, postsMirrored, redisErrors)
}

func main() {
	cfg, err := config.LoadConsumerConfig()
	logger := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		logger.Error("invalid consumer config", "error", err)
		os.Exit(1)
	}
	// allow some flags for local runs
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "address to serve prometheus metrics on")
	flag.Parse()

	rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	radapter := &redisAdapter{c: rc}

	// start metrics and health server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			// readiness: check redis connectivity
			if err := rc.Ping(r.Context()).Err(); err != nil {
				http.Error(w, "redis not ready", 503)
				return
			}
			w.WriteHeader(200)
			w.Write([]byte("ready"))
		})
		logger.Info("metrics/health listening", "addr", cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic, GroupID: cfg.KafkaGroupID, MinBytes: 10e3, MaxBytes: 10e6})
	defer func() {
		_ = r.Close()
		_ = rc.Close()
	}()

	logger.Info("consumer listening", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers, "group", cfg.KafkaGroupID)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("shutting down consumer")
				return
			}
			logger.Warn("kafka read error", "error", err, "backoff", backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		// reset backoff on success
		backoff = time.Second

		msgsConsumed.Inc()
		handleMessage(ctx, logger, radapter, m.Value, int64(cfg.RedisFeedCap), cfg.MaxRetries, cfg.RetryBackoff)
	}
}

var errNoCandidate = errors.New("post_published event without candidate")

// handleMessage mirrors post_published events into the redis feed; other
// event types are only counted.
func handleMessage(ctx context.Context, logger *slog.Logger, rc RedisUpdater, value []byte, feedCap int64, attempts int, delay time.Duration) {
	ev, err := events.Decode(value)
	if err == nil && ev.Type == events.PostPublished && ev.Candidate == nil {
		err = errNoCandidate
	}
	if err != nil {
		msgsInvalid.Inc()
		logger.Warn("invalid message", "error", err)
		return
	}
	if ev.Type != events.PostPublished {
		return
	}
	if err := mirrorPostWithRetry(ctx, rc, *ev.Candidate, feedCap, attempts, delay); err != nil {
		redisErrors.Inc()
		logger.Error("redis mirror failed", "post_id", ev.Candidate.ID, "error", err)
		return
	}
	postsMirrored.Inc()
}

// RedisUpdater defines the small subset of redis operations we need for tests and production.
type RedisUpdater interface {
	LPush(ctx context.Context, key string, value []byte) error
	LTrim(ctx context.Context, key string, start, stop int64) error
}

type redisAdapter struct{ c *redis.Client }

func (r *redisAdapter) LPush(ctx context.Context, key string, value []byte) error {
	return r.c.LPush(ctx, key, value).Err()
}

func (r *redisAdapter) LTrim(ctx context.Context, key string, start, stop int64) error {
	return r.c.LTrim(ctx, key, start, stop).Err()
}

// mirrorPostWithRetry pushes c onto its role's feed list and trims the list
// to feedCap, retrying each step with doubling delay.
func mirrorPostWithRetry(ctx context.Context, rc RedisUpdater, c models.MatchCandidate, feedCap int64, attempts int, delay time.Duration) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	key := pool.FeedKey(c.Role)
	pushed := false
	for i := 0; i < attempts; i++ {
		if !pushed {
			if err := rc.LPush(ctx, key, b); err != nil {
				if i == attempts-1 {
					return err
				}
				if err := sleepCtx(ctx, delay); err != nil {
					return err
				}
				delay *= 2
				continue
			}
			pushed = true
		}
		if err := rc.LTrim(ctx, key, 0, feedCap-1); err != nil {
			if i == attempts-1 {
				return err
			}
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}
			delay *= 2
			continue
		}
		return nil
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
