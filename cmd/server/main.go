// Command server runs the crew readiness tracker: the Telegram webhook,
// the operator API, and the daily reminder sweep in one process.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"aircrew/internal/audit"
	"aircrew/internal/intake"
	"aircrew/internal/jwtauth"
	"aircrew/internal/platform/config"
	"aircrew/internal/platform/httpserver"
	"aircrew/internal/platform/logger"
	"aircrew/internal/platform/metrics"
	platformredis "aircrew/internal/platform/redis"
	rosterservice "aircrew/internal/roster/service"
	"aircrew/internal/roster/store"
	"aircrew/internal/sweep"
	"aircrew/internal/telegram"
	httptransport "aircrew/internal/transport/http"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if cfg.BotToken == "" {
		return errors.New("BOT_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	auditPub, err := buildAuditPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer auditPub.Close()

	st, dbHealth, closeStore, err := buildStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions, redisClient, err := buildSessions(cfg, log)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	bot := telegram.New(cfg.BotToken)

	roster, err := rosterservice.New(st,
		rosterservice.WithLogger(log),
		rosterservice.WithMetrics(m),
		rosterservice.WithAuditPublisher(auditPub),
	)
	if err != nil {
		return err
	}

	intakeHandler, err := intake.New(roster, sessions, bot,
		intake.WithLogger(log),
		intake.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	sweeper, err := sweep.New(st, bot, cfg.AdminChatID,
		sweep.WithLogger(log),
		sweep.WithMetrics(m),
		sweep.WithAuditPublisher(auditPub),
		sweep.WithInterval(cfg.SweepInterval),
		sweep.WithErrorBackoff(cfg.SweepErrorBackoff),
	)
	if err != nil {
		return err
	}

	var checks []httptransport.HealthChecker
	if dbHealth != nil {
		checks = append(checks, dbHealth)
	}
	if redisClient != nil {
		checks = append(checks, redisClient)
	}

	tokens := jwtauth.New(cfg.JWTSigningKey)
	router := httptransport.NewRouter(
		httptransport.NewWebhook(intakeHandler, cfg.WebhookSecret, log),
		httptransport.NewAdmin(roster, sweeper, tokens, log),
		log,
		checks...,
	)
	srv := httpserver.New(cfg.Addr, router)

	if cfg.WebhookURL != "" {
		if err := bot.SetWebhook(ctx, cfg.WebhookURL, cfg.WebhookSecret); err != nil {
			return err
		}
		log.Info("webhook registered", "url", cfg.WebhookURL)
		defer func() {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := bot.DeleteWebhook(cleanupCtx); err != nil {
				log.Warn("webhook removal failed", "error", err)
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}

func buildAuditPublisher(cfg config.Config, log *slog.Logger) (audit.Publisher, error) {
	if cfg.KafkaBrokers == "" {
		log.Info("audit stream disabled, keeping events in memory")
		return audit.NewMemory(), nil
	}
	pub, err := audit.NewKafka(strings.Split(cfg.KafkaBrokers, ","), cfg.AuditTopic, log)
	if err != nil {
		return nil, err
	}
	log.Info("audit stream enabled", "topic", cfg.AuditTopic)
	return pub, nil
}

func buildStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store.Store, httptransport.HealthChecker, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, roster lives in memory only")
		return store.NewMemory(), nil, func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, nil, err
	}

	pg, err := store.NewPostgres(ctx, db)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	log.Info("roster store ready", "backend", "postgres")
	return pg, dbChecker{db}, func() { db.Close() }, nil
}

func buildSessions(cfg config.Config, log *slog.Logger) (intake.SessionStore, *platformredis.Client, error) {
	client, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Warn("REDIS_URL not set, dialogue sessions live in memory only")
		return intake.NewMemorySessions(), nil, nil
	}
	log.Info("dialogue sessions ready", "backend", "redis")
	return intake.NewRedisSessions(client.Client), client, nil
}

// dbChecker adapts *sql.DB to the router's health probe.
type dbChecker struct {
	db *sql.DB
}

func (c dbChecker) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
