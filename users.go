package main

import (
	"database/sql"
	"fmt"
	"time"
)

const dailyBonusWindow = 24 * time.Hour

type User struct {
	TelegramID     int64
	Username       string
	FirstName      string
	LastName       string
	LanguageCode   string
	Points         int
	ReferralCode   string
	ReferredBy     sql.NullInt64
	TradeLink      sql.NullString
	LastDailyBonus sql.NullTime
	IsGuest        bool
	TotalEarned    int
	CreatedAt      time.Time
}

const userColumns = `
	telegram_id, username, first_name, last_name, language_code,
	points, referral_code, referred_by, trade_link, last_daily_bonus,
	is_guest, total_earned, created_at
`

func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	var u User
	var username, firstName, lastName, langCode sql.NullString
	err := row.Scan(
		&u.TelegramID, &username, &firstName, &lastName, &langCode,
		&u.Points, &u.ReferralCode, &u.ReferredBy, &u.TradeLink, &u.LastDailyBonus,
		&u.IsGuest, &u.TotalEarned, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Username = username.String
	u.FirstName = firstName.String
	u.LastName = lastName.String
	u.LanguageCode = langCode.String
	return &u, nil
}

func LoadUser(db *sql.DB, telegramID int64) (*User, error) {
	u, err := scanUser(db.QueryRow(`
		SELECT `+userColumns+`
		FROM users
		WHERE telegram_id = $1
	`, telegramID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func LoadUserByReferralCode(db *sql.DB, code string) (*User, error) {
	u, err := scanUser(db.QueryRow(`
		SELECT `+userColumns+`
		FROM users
		WHERE referral_code = $1
	`, code))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// LoadOrCreateUser resolves the identity to a user row, creating one with the
// starting balance on first contact. The created flag feeds the referral
// eligibility window.
func LoadOrCreateUser(db *sql.DB, identity TelegramUser, guest bool) (*User, bool, error) {
	existing, err := LoadUser(db, identity.ID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		_, _ = db.Exec(`
			UPDATE users
			SET last_active_at = NOW()
			WHERE telegram_id = $1
		`, identity.ID)
		return existing, false, nil
	}

	referralCode := fmt.Sprintf("ref_%d_%d", identity.ID, time.Now().Unix())
	starting := GetRuntimeSettings().StartingPoints

	created, err := scanUser(db.QueryRow(`
		INSERT INTO users (
			telegram_id, username, first_name, last_name, language_code,
			points, referral_code, is_guest
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (telegram_id) DO UPDATE SET last_active_at = NOW()
		RETURNING `+userColumns+`
	`, identity.ID, identity.Username, identity.FirstName, identity.LastName,
		identity.LanguageCode, starting, referralCode, guest))
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// SpendPoints deducts atomically and refuses to let a balance go negative.
func SpendPoints(db *sql.DB, userID int64, amount int) (int, error) {
	var balance int
	err := db.QueryRow(`
		UPDATE users
		SET points = points - $2, last_active_at = NOW()
		WHERE telegram_id = $1 AND points >= $2
		RETURNING points
	`, userID, amount).Scan(&balance)
	if err == sql.ErrNoRows {
		u, loadErr := LoadUser(db, userID)
		if loadErr != nil {
			return 0, loadErr
		}
		if u == nil {
			return 0, ErrNotFound
		}
		return u.Points, ErrInsufficientFunds
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func CreditPoints(db *sql.DB, userID int64, amount int, action string, note string) (int, error) {
	var balance int
	err := db.QueryRow(`
		UPDATE users
		SET points = points + $2,
			total_earned = total_earned + $2,
			last_active_at = NOW()
		WHERE telegram_id = $1
		RETURNING points
	`, userID, amount).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	logAction(db, userID, action, note, amount)
	return balance, nil
}

func SetUserTradeLink(db *sql.DB, userID int64, link string) error {
	result, err := db.Exec(`
		UPDATE users
		SET trade_link = $2, last_active_at = NOW()
		WHERE telegram_id = $1
	`, userID, link)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func dailyBonusAvailable(u *User, now time.Time) bool {
	if !u.LastDailyBonus.Valid {
		return true
	}
	return now.Sub(u.LastDailyBonus.Time) >= dailyBonusWindow
}

func nextBonusTime(u *User) int64 {
	if !u.LastDailyBonus.Valid {
		return 0
	}
	return u.LastDailyBonus.Time.Add(dailyBonusWindow).Unix()
}

func StampDailyBonus(db *sql.DB, userID int64, at time.Time) error {
	_, err := db.Exec(`
		UPDATE users
		SET last_daily_bonus = $2
		WHERE telegram_id = $1
	`, userID, at)
	return err
}

func GetInventory(db *sql.DB, userID int64) ([]Item, error) {
	rows, err := db.Query(`
		SELECT id, item_name, item_type, item_rarity, item_price, case_price, created_at
		FROM inventory
		WHERE user_id = $1 AND status = 'available'
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Type, &item.Rarity,
			&item.Price, &item.CasePrice, &item.ReceivedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func AddItemToInventory(db *sql.DB, userID int64, item Item) error {
	_, err := db.Exec(`
		INSERT INTO inventory (id, user_id, item_name, item_type, item_rarity, item_price, case_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, item.ID, userID, item.Name, item.Type, item.Rarity, item.Price, item.CasePrice, item.ReceivedAt)
	return err
}

// MarkItemWithdrawn removes the item from the visible inventory. The row is
// kept for the withdrawal audit trail; a withdrawn item never reappears.
func MarkItemWithdrawn(db *sql.DB, userID int64, itemID string) (*Item, error) {
	var item Item
	err := db.QueryRow(`
		UPDATE inventory
		SET status = 'withdrawn', withdraw_request_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status = 'available'
		RETURNING id, item_name, item_type, item_rarity, item_price, case_price, created_at
	`, itemID, userID).Scan(&item.ID, &item.Name, &item.Type, &item.Rarity,
		&item.Price, &item.CasePrice, &item.ReceivedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func CountInventory(db *sql.DB, userID int64) (int, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*)
		FROM inventory
		WHERE user_id = $1 AND status = 'available'
	`, userID).Scan(&count)
	return count, err
}
