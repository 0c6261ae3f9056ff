package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	t.Setenv("SCORE_SEED", "7")
	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.MatchLatency != 2*time.Second || cfg.MatchTimeout != 10*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.LateMatchDelay != 5*time.Second || cfg.ToastDuration != 4*time.Second || cfg.ReplyDelay != 2*time.Second {
		t.Fatalf("unexpected timer defaults: %+v", cfg)
	}
	if cfg.TrackDuration != 30*time.Second || cfg.TrackTick != 100*time.Millisecond {
		t.Fatalf("unexpected tracking defaults: %+v", cfg)
	}
	if cfg.DefaultMaxPrice != 20 || cfg.ScoreSeed != 7 {
		t.Fatalf("unexpected view defaults: %+v", cfg)
	}
}

func TestLoadServerConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")
	t.Setenv("LATE_MATCH_DELAY", "250ms")
	t.Setenv("DEFAULT_MAX_PRICE", "12.5")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("MIGRATE", "TRUE")
	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.LateMatchDelay != 250*time.Millisecond || cfg.DefaultMaxPrice != 12.5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b:9092" {
		t.Fatalf("brokers = %v", cfg.KafkaBrokers)
	}
	if cfg.LogLevel != "debug" || !cfg.RunMigrations {
		t.Fatalf("log level %q migrate %v", cfg.LogLevel, cfg.RunMigrations)
	}
}

func TestLoadServerConfigCollectsAllErrors(t *testing.T) {
	t.Setenv("MATCH_TIMEOUT", "soon")
	t.Setenv("SCORE_SEED", "x")
	t.Setenv("TRACK_TICK", "1m")
	t.Setenv("REDIS_FEED_CAP", "0")
	_, err := LoadServerConfig()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"MATCH_TIMEOUT", "SCORE_SEED", "TRACK_TICK must be <= TRACK_DURATION", "REDIS_FEED_CAP"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}

func TestLoadConsumerConfig(t *testing.T) {
	t.Setenv("KAFKA_GROUP_ID", "g1")
	t.Setenv("CONSUMER_MAX_RETRIES", "5")
	cfg, err := LoadConsumerConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.KafkaGroupID != "g1" || cfg.MaxRetries != 5 || cfg.KafkaTopic != "carpool-events" {
		t.Fatalf("cfg = %+v", cfg)
	}
	t.Setenv("CONSUMER_MAX_RETRIES", "0")
	if _, err := LoadConsumerConfig(); err == nil {
		t.Fatal("expected error for zero retries")
	}
}
