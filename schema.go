package main

import (
	"database/sql"
	"log"
	"time"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		telegram_id BIGINT PRIMARY KEY,
		username TEXT,
		first_name TEXT,
		last_name TEXT,
		language_code TEXT,
		points INTEGER NOT NULL DEFAULT 100,
		referral_code TEXT UNIQUE,
		referred_by BIGINT REFERENCES users(telegram_id),
		trade_link TEXT,
		last_daily_bonus TIMESTAMPTZ,
		is_guest BOOLEAN NOT NULL DEFAULT FALSE,
		total_earned INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_active_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS inventory (
		id TEXT PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(telegram_id),
		item_name TEXT NOT NULL,
		item_type TEXT NOT NULL,
		item_rarity TEXT NOT NULL,
		item_price INTEGER NOT NULL,
		case_price INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'available',
		withdraw_request_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS promo_codes (
		id SERIAL PRIMARY KEY,
		code TEXT UNIQUE NOT NULL,
		points INTEGER NOT NULL,
		max_uses INTEGER NOT NULL DEFAULT -1,
		used_count INTEGER NOT NULL DEFAULT 0,
		description TEXT,
		created_by BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`CREATE TABLE IF NOT EXISTS used_promo_codes (
		user_id BIGINT NOT NULL REFERENCES users(telegram_id),
		promo_code_id INTEGER NOT NULL REFERENCES promo_codes(id),
		used_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, promo_code_id)
	)`,

	`CREATE TABLE IF NOT EXISTS referrals (
		referrer_id BIGINT NOT NULL REFERENCES users(telegram_id),
		referred_id BIGINT PRIMARY KEY REFERENCES users(telegram_id),
		bonus_points INTEGER NOT NULL DEFAULT 0,
		referral_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS referral_milestones (
		user_id BIGINT NOT NULL REFERENCES users(telegram_id),
		threshold INTEGER NOT NULL,
		bonus INTEGER NOT NULL,
		badge TEXT NOT NULL,
		awarded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, threshold)
	)`,

	`CREATE TABLE IF NOT EXISTS withdrawal_requests (
		id TEXT PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(telegram_id),
		item_id TEXT NOT NULL,
		item_name TEXT NOT NULL,
		trade_link TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		admin_notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS action_logs (
		id SERIAL PRIMARY KEY,
		user_id BIGINT,
		action_type TEXT NOT NULL,
		action_data TEXT,
		points_change INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS user_stats (
		user_id BIGINT PRIMARY KEY REFERENCES users(telegram_id),
		total_cases_opened INTEGER NOT NULL DEFAULT 0,
		total_spent INTEGER NOT NULL DEFAULT 0,
		total_withdrawn INTEGER NOT NULL DEFAULT 0,
		referral_earnings INTEGER NOT NULL DEFAULT 0,
		telegram_earnings INTEGER NOT NULL DEFAULT 0,
		steam_earnings INTEGER NOT NULL DEFAULT 0,
		daily_bonus_earnings INTEGER NOT NULL DEFAULT 0,
		promo_earnings INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS telegram_profiles (
		user_id BIGINT PRIMARY KEY REFERENCES users(telegram_id),
		last_name TEXT,
		bio TEXT,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		verification_date TIMESTAMPTZ,
		last_check TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS steam_profiles (
		user_id BIGINT PRIMARY KEY REFERENCES users(telegram_id),
		steam_id TEXT,
		steam_url TEXT,
		profile_level INTEGER NOT NULL DEFAULT 0,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		verification_date TIMESTAMPTZ,
		last_check TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id SERIAL PRIMARY KEY,
		recipient_role TEXT NOT NULL DEFAULT 'admin',
		category TEXT NOT NULL DEFAULT 'system',
		type TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL,
		payload TEXT,
		dedupe_key TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS global_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

func ensureSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

type seedPromo struct {
	code        string
	points      int
	maxUses     int
	description string
}

var seedPromos = []seedPromo{
	{"WELCOME1", 100, -1, "Welcome aboard"},
	{"CS2FUN", 250, 100, "For the real fans"},
	{"RANWORK", 500, 50, "From the bot team"},
	{"START100", 100, -1, "Starter boost"},
	{"MINIAPP", 200, 200, "For launching the mini app"},
	{"REFER500", 500, -1, "For inviting a friend"},
	{"TELEGRAM500", 500, -1, "For the Telegram profile setup"},
	{"STEAM1000", 1000, -1, "For the Steam profile setup"},
}

func seedPromoCodes(db *sql.DB) {
	expires := time.Now().UTC().Add(365 * 24 * time.Hour)
	for _, promo := range seedPromos {
		_, err := db.Exec(`
			INSERT INTO promo_codes (code, points, max_uses, description, expires_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (code) DO NOTHING
		`, promo.code, promo.points, promo.maxUses, promo.description, expires)
		if err != nil {
			log.Println("promo seed failed:", promo.code, err)
		}
	}
}
