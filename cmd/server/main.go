package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/example/carpool-matching/internal/clock"
	"github.com/example/carpool-matching/internal/config"
	"github.com/example/carpool-matching/internal/dispatch"
	"github.com/example/carpool-matching/internal/events"
	"github.com/example/carpool-matching/internal/geo"
	httpapi "github.com/example/carpool-matching/internal/http"
	"github.com/example/carpool-matching/internal/logging"
	"github.com/example/carpool-matching/internal/models"
	"github.com/example/carpool-matching/internal/payments"
	"github.com/example/carpool-matching/internal/pool"
	"github.com/example/carpool-matching/internal/scoring"
	"github.com/example/carpool-matching/internal/seed"
	"github.com/example/carpool-matching/internal/session"
	"github.com/example/carpool-matching/internal/storage"
	"github.com/example/carpool-matching/internal/transport"
	"github.com/example/carpool-matching/internal/wallet"
)

func main() {
	cfg, err := config.LoadServerConfig()
	logger := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		logger.Error("invalid server config", "error", err)
		os.Exit(1)
	}
	migrate := flag.Bool("migrate", cfg.RunMigrations, "apply migrations/001_create_ride_history.sql on startup")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers []func() error

	feedPool := pool.New(seed.Drivers(), seed.Riders()).WithCap(cfg.RedisFeedCap)
	var (
		positions      session.PositionRecorder
		positionReader httpapi.PositionReader
	)
	if cfg.RedisAddr != "" {
		rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		closers = append(closers, rc.Close)
		feed := pool.NewRedisFeed(rc, cfg.RedisFeedCap)
		if n, err := feedPool.Hydrate(ctx, feed); err != nil {
			logger.Warn("pool hydrate failed", "error", err)
		} else {
			logger.Info("pool hydrated", "posts", n)
		}
		// with kafka configured the consumer mirrors posts into redis
		if len(cfg.KafkaBrokers) == 0 {
			feedPool.WithFeed(feed)
		}
		rp := geo.NewRedisPositions(rc, cfg.RedisPositionKey)
		positions, positionReader = rp, rp
	}

	var publisher session.EventPublisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		closers = append(closers, kp.Close)
		publisher = kp
		logger.Info("publishing session events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	var history storage.HistoryStore
	if cfg.PGDSN != "" {
		pg, err := storage.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			logger.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		closers = append(closers, pg.Close)
		if *migrate {
			if err := runMigration(pg.DB(), filepath.Join("migrations", "001_create_ride_history.sql")); err != nil {
				logger.Error("migration failed", "error", err)
				os.Exit(1)
			}
			logger.Info("migration applied", "file", "001_create_ride_history.sql")
		}
		history = pg
	} else {
		mem := storage.NewMemoryStore()
		mem.Seed(seed.Me.ID, seed.History())
		history = mem
	}

	var holds session.PaymentHolder
	if cfg.StripeAPIKey != "" {
		holds = payments.NewStripeClient(cfg.StripeAPIKey)
	}

	wsreg := dispatch.NewWSRegistry(logger)
	provider := &transport.SimulatedClient{Latency: cfg.MatchLatency, Source: feedPool}
	scorer := scoring.NewEngine(cfg.ScoreSeed)
	timings := session.Timings{
		MatchTimeout:   cfg.MatchTimeout,
		LateMatchDelay: cfg.LateMatchDelay,
		ToastDuration:  cfg.ToastDuration,
		ReplyDelay:     cfg.ReplyDelay,
		TrackDuration:  cfg.TrackDuration,
		TrackTick:      cfg.TrackTick,
	}
	newSession := func(id string, user models.UserProfile, role models.Role) (*session.Session, error) {
		deps := session.Deps{
			Provider:  provider,
			LateMatch: provider,
			Scorer:    scorer,
			Posts:     feedPool,
			History:   history,
			Payments:  holds,
			Notifier:  wsreg,
			Events:    publisher,
			Positions: positions,
			Clock:     clock.NewReal(),
			Logger:    logger,
		}
		return session.New(id, user, role, deps, timings)
	}

	api := httpapi.NewServer(httpapi.Options{
		Pool:            feedPool,
		Wallet:          wallet.New(seed.PaymentMethods()),
		History:         history,
		WSReg:           wsreg,
		Positions:       positionReader,
		NewSession:      newSession,
		User:            seed.Me,
		DefaultMaxPrice: cfg.DefaultMaxPrice,
		Logger:          logger,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("carpool-matching listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	api.Shutdown()
	closeAll(logger, closers)
}

func runMigration(db *sql.DB, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}

func closeAll(logger *slog.Logger, closers []func() error) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}
