package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Addr        string `env:"ADDR" envDefault:"0.0.0.0:8080"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"postgres://localhost/case_miniapp?sslmode=disable"`

	// BotToken signs the Telegram initData HMAC check. An empty token
	// disables host-session auth and every request falls back to guest
	// or demo identities.
	BotToken    string  `env:"BOT_TOKEN"`
	BotUsername string  `env:"BOT_USERNAME" envDefault:"rancasebot"`
	AdminIDs    []int64 `env:"ADMIN_IDS" envSeparator:","`

	// GuestSecret signs browser-local pseudo-identity tokens.
	GuestSecret string `env:"GUEST_TOKEN_SECRET" envDefault:"dev-guest-secret"`

	APIBaseURL        string `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	AssetCacheVersion string `env:"ASSET_CACHE_VERSION" envDefault:"case-miniapp-v3"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) isAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
