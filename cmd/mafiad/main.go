package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/AtharvKotekar/MafiaChain/engine"
	"github.com/AtharvKotekar/MafiaChain/internal/archive"
	"github.com/AtharvKotekar/MafiaChain/internal/config"
	"github.com/AtharvKotekar/MafiaChain/internal/scheduler"
	"github.com/AtharvKotekar/MafiaChain/internal/session"
	"github.com/AtharvKotekar/MafiaChain/internal/store"
)

func main() {
	cfg := config.FromEnv()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("unknown log level %q, using info", cfg.LogLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	st := store.New(rdb, cfg.GameTTL, cfg.VoteTTL)
	if err := st.Ping(ctx); err != nil {
		log.WithError(err).Fatal("redis unreachable")
	}
	log.WithField("addr", cfg.RedisAddr).Info("connected to redis")

	rules := engine.DefaultRules()
	rules.StartingDuration = cfg.StartingDuration
	rules.DayDuration = cfg.DayDuration
	rules.NightDuration = cfg.NightDuration
	rules.MaxRounds = cfg.MaxRounds

	opts := []session.Option{
		session.WithRules(rules),
	}
	if cfg.PostgresDSN != "" {
		arch, err := archive.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.WithError(err).Fatal("archive setup failed")
		}
		defer arch.Close()
		opts = append(opts, session.WithArchiver(arch))
		log.Info("finished-game archive enabled")
	}
	svc := session.New(st, log, opts...)

	scheduler.New(svc, log, cfg.PollInterval).Run(ctx)
}
