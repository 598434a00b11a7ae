package main

import (
	"database/sql"
	"log"
)

const (
	ActionCaseOpened      = "case_opened"
	ActionDailyBonus      = "daily_bonus"
	ActionPromoCode       = "promo_code"
	ActionReferralBonus   = "referral_bonus"
	ActionMilestoneBonus  = "referral_milestone"
	ActionTelegramProfile = "telegram_profile"
	ActionSteamProfile    = "steam_profile"
	ActionWithdrawal      = "item_withdrawal"
	ActionTradeLink       = "trade_link_set"
)

// statColumns whitelists the per-source rollup column for each action type.
// Only values from this map are ever interpolated into SQL.
var statColumns = map[string]string{
	ActionDailyBonus:      "daily_bonus_earnings",
	ActionPromoCode:       "promo_earnings",
	ActionReferralBonus:   "referral_earnings",
	ActionMilestoneBonus:  "referral_earnings",
	ActionTelegramProfile: "telegram_earnings",
	ActionSteamProfile:    "steam_earnings",
}

func logAction(db *sql.DB, userID int64, actionType string, data string, pointsChange int) {
	_, err := db.Exec(`
		INSERT INTO action_logs (user_id, action_type, action_data, points_change)
		VALUES ($1, $2, $3, $4)
	`, userID, actionType, data, pointsChange)
	if err != nil {
		log.Println("action log insert failed:", err)
	}

	column, ok := statColumns[actionType]
	if !ok {
		return
	}
	_, err = db.Exec(`
		INSERT INTO user_stats (user_id, `+column+`, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET `+column+` = user_stats.`+column+` + EXCLUDED.`+column+`, updated_at = NOW()
	`, userID, pointsChange)
	if err != nil {
		log.Println("user stats update failed:", err)
	}
}

func recordCaseOpened(db *sql.DB, userID int64, price int) {
	_, err := db.Exec(`
		INSERT INTO user_stats (user_id, total_cases_opened, total_spent, updated_at)
		VALUES ($1, 1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET total_cases_opened = user_stats.total_cases_opened + 1,
			total_spent = user_stats.total_spent + EXCLUDED.total_spent,
			updated_at = NOW()
	`, userID, price)
	if err != nil {
		log.Println("case stats update failed:", err)
	}
}

func recordWithdrawal(db *sql.DB, userID int64, itemPrice int) {
	_, err := db.Exec(`
		INSERT INTO user_stats (user_id, total_withdrawn, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET total_withdrawn = user_stats.total_withdrawn + EXCLUDED.total_withdrawn,
			updated_at = NOW()
	`, userID, itemPrice)
	if err != nil {
		log.Println("withdrawal stats update failed:", err)
	}
}
