package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type APIConfig struct {
	Addr          string
	StoreDriver   string
	StoreDSN      string
	RulesPath     string
	TickEvery     time.Duration
	AutosaveEvery time.Duration

	DiscordToken   string
	DiscordChannel string
}

type WorkerConfig struct {
	StoreDriver    string
	StoreDSN       string
	RulesPath      string
	ReconcileSpec  string // cron spec for the offline reconciliation sweep
	RunOnce        bool
	DiscordToken   string
	DiscordChannel string
}

type CLIConfig struct {
	APIBaseURL string
	PlayerID   string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("KVARTAL_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:           addr,
		StoreDriver:    envDefault("KVARTAL_STORE_DRIVER", "sqlite"),
		StoreDSN:       envDefault("KVARTAL_STORE_DSN", "kvartal.db"),
		RulesPath:      strings.TrimSpace(os.Getenv("KVARTAL_RULES_PATH")),
		TickEvery:      envDurationDefault("KVARTAL_TICK_EVERY", time.Second),
		AutosaveEvery:  envDurationDefault("KVARTAL_AUTOSAVE_EVERY", 30*time.Second),
		DiscordToken:   strings.TrimSpace(os.Getenv("KVARTAL_DISCORD_TOKEN")),
		DiscordChannel: strings.TrimSpace(os.Getenv("KVARTAL_DISCORD_CHANNEL")),
	}
	if cfg.StoreDriver == "postgres" && cfg.StoreDSN == "kvartal.db" {
		return cfg, fmt.Errorf("KVARTAL_STORE_DSN is required for the postgres driver")
	}
	if cfg.TickEvery <= 0 {
		return cfg, fmt.Errorf("KVARTAL_TICK_EVERY must be positive")
	}
	return cfg, nil
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	cfg := WorkerConfig{
		StoreDriver:    envDefault("KVARTAL_STORE_DRIVER", "sqlite"),
		StoreDSN:       envDefault("KVARTAL_STORE_DSN", "kvartal.db"),
		RulesPath:      strings.TrimSpace(os.Getenv("KVARTAL_RULES_PATH")),
		ReconcileSpec:  envDefault("KVARTAL_RECONCILE_SPEC", "@every 5m"),
		RunOnce:        envBoolDefault("RUN_ONCE", false),
		DiscordToken:   strings.TrimSpace(os.Getenv("KVARTAL_DISCORD_TOKEN")),
		DiscordChannel: strings.TrimSpace(os.Getenv("KVARTAL_DISCORD_CHANNEL")),
	}
	if cfg.StoreDriver == "postgres" && cfg.StoreDSN == "kvartal.db" {
		return cfg, fmt.Errorf("KVARTAL_STORE_DSN is required for the postgres driver")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("KVL_API_BASE_URL", "http://localhost:8080"), "/"),
		PlayerID:   strings.TrimSpace(os.Getenv("KVL_PLAYER_ID")),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "t", "true", "yes", "y":
		return true
	case "0", "f", "false", "no", "n":
		return false
	default:
		return fallback
	}
}
