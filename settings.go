package main

import (
	"database/sql"
	"strconv"
	"strings"
	"sync"
)

type RuntimeSettings struct {
	StartingPoints        int
	DailyBonusMin         int
	DailyBonusMax         int
	ReferralReward        int
	ReferralWindowSeconds int
}

var (
	settingsMu     sync.RWMutex
	cachedSettings = defaultSettings()
)

func defaultSettings() RuntimeSettings {
	return RuntimeSettings{
		StartingPoints:        100,
		DailyBonusMin:         50,
		DailyBonusMax:         150,
		ReferralReward:        500,
		ReferralWindowSeconds: 300,
	}
}

func LoadRuntimeSettings(db *sql.DB) error {
	rows, err := db.Query(`
		SELECT key, value
		FROM global_settings
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	settingsMu.Lock()
	defer settingsMu.Unlock()

	for rows.Next() {
		var key string
		var value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		applySetting(&cachedSettings, key, value)
	}
	return rows.Err()
}

func GetRuntimeSettings() RuntimeSettings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return cachedSettings
}

func UpdateRuntimeSettings(db *sql.DB, updates map[string]string) (RuntimeSettings, error) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	for key, value := range updates {
		applySetting(&cachedSettings, key, value)
		_, err := db.Exec(`
			INSERT INTO global_settings (key, value, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		`, key, value)
		if err != nil {
			return cachedSettings, err
		}
	}
	return cachedSettings, nil
}

func applySetting(target *RuntimeSettings, key string, value string) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "starting_points":
		if v, err := strconv.Atoi(value); err == nil && v >= 0 {
			target.StartingPoints = v
		}
	case "daily_bonus_min":
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			target.DailyBonusMin = v
		}
	case "daily_bonus_max":
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			target.DailyBonusMax = v
		}
	case "referral_reward":
		if v, err := strconv.Atoi(value); err == nil && v >= 0 {
			target.ReferralReward = v
		}
	case "referral_window_seconds":
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			target.ReferralWindowSeconds = v
		}
	}
}
