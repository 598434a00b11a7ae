package main

import (
	"database/sql"
	"strconv"
	"time"
)

const unlimitedUses = -1

type Promo struct {
	ID          int
	Code        string
	Points      int
	MaxUses     int
	UsedCount   int
	Description string
	ExpiresAt   sql.NullTime
	IsActive    bool
}

func (p Promo) exhausted() bool {
	return p.MaxUses != unlimitedUses && p.UsedCount >= p.MaxUses
}

func (p Promo) expired(now time.Time) bool {
	return p.ExpiresAt.Valid && now.After(p.ExpiresAt.Time)
}

// RedeemPromo applies a code for a user. The used_promo_codes primary key
// makes the once-per-user rule hold even under concurrent redeems.
func RedeemPromo(db *sql.DB, userID int64, rawCode string, now time.Time) (int, int, error) {
	code := normalizePromoCode(rawCode)
	if !isValidPromoCode(code) {
		return 0, 0, ErrInvalidCode
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	var promo Promo
	err = tx.QueryRow(`
		SELECT id, code, points, max_uses, used_count, expires_at, is_active
		FROM promo_codes
		WHERE code = $1
		FOR UPDATE
	`, code).Scan(&promo.ID, &promo.Code, &promo.Points, &promo.MaxUses,
		&promo.UsedCount, &promo.ExpiresAt, &promo.IsActive)
	if err == sql.ErrNoRows {
		return 0, 0, ErrInvalidCode
	}
	if err != nil {
		return 0, 0, err
	}
	if !promo.IsActive || promo.expired(now) || promo.exhausted() {
		return 0, 0, ErrInvalidCode
	}

	result, err := tx.Exec(`
		INSERT INTO used_promo_codes (user_id, promo_code_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, promo_code_id) DO NOTHING
	`, userID, promo.ID)
	if err != nil {
		return 0, 0, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return 0, 0, ErrAlreadyRedeemed
	}

	if _, err := tx.Exec(`
		UPDATE promo_codes
		SET used_count = used_count + 1
		WHERE id = $1
	`, promo.ID); err != nil {
		return 0, 0, err
	}

	var balance int
	err = tx.QueryRow(`
		UPDATE users
		SET points = points + $2,
			total_earned = total_earned + $2,
			last_active_at = NOW()
		WHERE telegram_id = $1
		RETURNING points
	`, userID, promo.Points).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, 0, ErrNotFound
	}
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}

	logAction(db, userID, ActionPromoCode, code, promo.Points)
	return promo.Points, balance, nil
}

type PromoView struct {
	Code          string `json:"code"`
	Points        int    `json:"points"`
	RemainingUses string `json:"remaining_uses"`
	Description   string `json:"description,omitempty"`
}

func AvailablePromos(db *sql.DB, now time.Time) ([]PromoView, error) {
	rows, err := db.Query(`
		SELECT code, points, max_uses, used_count, COALESCE(description, '')
		FROM promo_codes
		WHERE is_active = TRUE
			AND (expires_at IS NULL OR expires_at > $1)
		ORDER BY points ASC, code ASC
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	promos := []PromoView{}
	for rows.Next() {
		var view PromoView
		var maxUses, usedCount int
		if err := rows.Scan(&view.Code, &view.Points, &maxUses, &usedCount, &view.Description); err != nil {
			return nil, err
		}
		if maxUses != unlimitedUses && usedCount >= maxUses {
			continue
		}
		view.RemainingUses = remainingUsesLabel(maxUses, usedCount)
		promos = append(promos, view)
	}
	return promos, rows.Err()
}

func remainingUsesLabel(maxUses int, usedCount int) string {
	if maxUses == unlimitedUses {
		return "∞"
	}
	return strconv.Itoa(maxUses - usedCount)
}

func CreatePromo(db *sql.DB, createdBy int64, code string, points int, maxUses int, description string, expiresAt *time.Time) error {
	code = normalizePromoCode(code)
	if !isValidPromoCode(code) || points <= 0 {
		return ErrInvalidCode
	}
	var expires sql.NullTime
	if expiresAt != nil {
		expires = sql.NullTime{Time: *expiresAt, Valid: true}
	}
	result, err := db.Exec(`
		INSERT INTO promo_codes (code, points, max_uses, description, created_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO NOTHING
	`, code, points, maxUses, description, createdBy, expires)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrAlreadyRedeemed
	}
	return nil
}
