// Package config loads process configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// PostgresDSN enables the finished-game archive when set.
	PostgresDSN string

	GameTTL      time.Duration
	VoteTTL      time.Duration
	LockTTL      time.Duration
	PollInterval time.Duration

	StartingDuration time.Duration
	DayDuration      time.Duration
	NightDuration    time.Duration
	MaxRounds        int

	LogLevel string
}

// FromEnv reads the configuration. A .env file in the working directory
// is loaded first when present; real environment variables win.
func FromEnv() Config {
	_ = godotenv.Load()

	c := Config{}
	c.RedisAddr = getenv("REDIS_ADDR", "localhost:6379")
	c.RedisPassword = os.Getenv("REDIS_PASSWORD")
	c.RedisDB = getint("REDIS_DB", 0)
	c.PostgresDSN = os.Getenv("POSTGRES_DSN")
	c.GameTTL = getdur("GAME_TTL", 2*time.Hour)
	c.VoteTTL = getdur("VOTE_TTL", 5*time.Minute)
	c.LockTTL = getdur("LOCK_TTL", 10*time.Second)
	c.PollInterval = getdur("POLL_INTERVAL", time.Second)
	c.StartingDuration = getdur("STARTING_DURATION", 30*time.Second)
	c.DayDuration = getdur("DAY_DURATION", 5*time.Minute)
	c.NightDuration = getdur("NIGHT_DURATION", 150*time.Second)
	c.MaxRounds = getint("MAX_ROUNDS", 3)
	c.LogLevel = getenv("LOG_LEVEL", "info")
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
