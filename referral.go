package main

import (
	"database/sql"
	"fmt"
	"time"
)

// ReferralMilestone is a one-time bonus paid when the cumulative invite count
// first reaches the threshold.
type ReferralMilestone struct {
	Threshold int    `json:"threshold"`
	Bonus     int    `json:"bonus"`
	Badge     string `json:"badge"`
}

var referralMilestones = []ReferralMilestone{
	{5, 250, "Bronze Recruiter"},
	{10, 600, "Silver Recruiter"},
	{25, 1500, "Gold Recruiter"},
	{50, 3500, "Platinum Recruiter"},
	{100, 8000, "Diamond Recruiter"},
}

// milestoneReached returns the milestone crossed when the invite count moved
// from before to after, or nil. Counts only ever grow by one per accepted
// invite, so at most one milestone can be crossed per transition.
func milestoneReached(before int, after int) *ReferralMilestone {
	for i := range referralMilestones {
		m := referralMilestones[i]
		if before < m.Threshold && after >= m.Threshold {
			return &m
		}
	}
	return nil
}

func nextMilestone(count int) *ReferralMilestone {
	for i := range referralMilestones {
		if count < referralMilestones[i].Threshold {
			return &referralMilestones[i]
		}
	}
	return nil
}

type ReferralEligibility struct {
	CanUse      bool
	Reason      string
	SecondsLeft int64
}

// CanUseReferralCode checks the invite window: a user may enter a referral
// code only once, and only within the configured window after signup.
func CanUseReferralCode(db *sql.DB, userID int64, now time.Time) (ReferralEligibility, error) {
	u, err := LoadUser(db, userID)
	if err != nil {
		return ReferralEligibility{}, err
	}
	if u == nil {
		return ReferralEligibility{Reason: "USER_NOT_FOUND"}, nil
	}
	if u.ReferredBy.Valid {
		return ReferralEligibility{Reason: "REFERRER_ALREADY_SET"}, nil
	}
	window := time.Duration(GetRuntimeSettings().ReferralWindowSeconds) * time.Second
	elapsed := now.Sub(u.CreatedAt)
	if elapsed > window {
		return ReferralEligibility{Reason: "WINDOW_EXPIRED"}, nil
	}
	return ReferralEligibility{
		CanUse:      true,
		SecondsLeft: int64((window - elapsed).Seconds()),
	}, nil
}

// AddReferral credits the inviter for an accepted invite and pays any
// milestone crossed, at most once. The referrals primary key rejects a second
// referrer for the same user.
func AddReferral(db *sql.DB, referrerID int64, referredID int64, now time.Time) error {
	if referrerID == referredID {
		return ErrInvalidCode
	}
	eligibility, err := CanUseReferralCode(db, referredID, now)
	if err != nil {
		return err
	}
	if !eligibility.CanUse {
		return ErrInvalidCode
	}

	reward := GetRuntimeSettings().ReferralReward

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO referrals (referrer_id, referred_id, bonus_points)
		VALUES ($1, $2, $3)
		ON CONFLICT (referred_id) DO NOTHING
	`, referrerID, referredID, reward)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrInvalidCode
	}

	if _, err := tx.Exec(`
		UPDATE users
		SET referred_by = $2
		WHERE telegram_id = $1
	`, referredID, referrerID); err != nil {
		return err
	}

	var count int
	if err := tx.QueryRow(`
		SELECT COUNT(*)
		FROM referrals
		WHERE referrer_id = $1
	`, referrerID).Scan(&count); err != nil {
		return err
	}

	credit := reward
	milestone := milestoneReached(count-1, count)
	if milestone != nil {
		awarded, err := tx.Exec(`
			INSERT INTO referral_milestones (user_id, threshold, bonus, badge)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, threshold) DO NOTHING
		`, referrerID, milestone.Threshold, milestone.Bonus, milestone.Badge)
		if err != nil {
			return err
		}
		if rows, _ := awarded.RowsAffected(); rows > 0 {
			credit += milestone.Bonus
		}
	}

	if _, err := tx.Exec(`
		UPDATE users
		SET points = points + $2,
			total_earned = total_earned + $2,
			last_active_at = NOW()
		WHERE telegram_id = $1
	`, referrerID, credit); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	logAction(db, referrerID, ActionReferralBonus, fmt.Sprintf("invited %d", referredID), reward)
	if milestone != nil && credit > reward {
		logAction(db, referrerID, ActionMilestoneBonus, milestone.Badge, milestone.Bonus)
	}
	return nil
}

type ReferralInfo struct {
	TotalReferrals int                `json:"total_referrals"`
	ReferralCode   string             `json:"referral_code"`
	ReferralLink   string             `json:"referral_link"`
	Earned         int                `json:"referral_earnings"`
	Badges         []string           `json:"badges,omitempty"`
	Next           *ReferralMilestone `json:"next_milestone,omitempty"`
}

func GetReferralInfo(db *sql.DB, botUsername string, userID int64) (*ReferralInfo, error) {
	u, err := LoadUser(db, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}

	info := &ReferralInfo{
		ReferralCode: u.ReferralCode,
		ReferralLink: fmt.Sprintf("https://t.me/%s?start=%s", botUsername, u.ReferralCode),
	}
	if err := db.QueryRow(`
		SELECT COUNT(*)
		FROM referrals
		WHERE referrer_id = $1
	`, userID).Scan(&info.TotalReferrals); err != nil {
		return nil, err
	}
	if err := db.QueryRow(`
		SELECT COALESCE(referral_earnings, 0)
		FROM user_stats
		WHERE user_id = $1
	`, userID).Scan(&info.Earned); err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT badge
		FROM referral_milestones
		WHERE user_id = $1
		ORDER BY threshold ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var badge string
		if err := rows.Scan(&badge); err != nil {
			return nil, err
		}
		info.Badges = append(info.Badges, badge)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	info.Next = nextMilestone(info.TotalReferrals)
	return info, nil
}

type ReferrerEntry struct {
	Rank      int    `json:"rank"`
	UserID    int64  `json:"user_id"`
	FirstName string `json:"first_name"`
	Referrals int    `json:"referrals"`
}

func TopReferrers(db *sql.DB, limit int) ([]ReferrerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := db.Query(`
		SELECT r.referrer_id, COALESCE(u.first_name, ''), COUNT(*) AS invited
		FROM referrals r
		JOIN users u ON u.telegram_id = r.referrer_id
		GROUP BY r.referrer_id, u.first_name
		ORDER BY invited DESC, r.referrer_id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []ReferrerEntry{}
	for rows.Next() {
		var entry ReferrerEntry
		if err := rows.Scan(&entry.UserID, &entry.FirstName, &entry.Referrals); err != nil {
			return nil, err
		}
		entry.Rank = len(entries) + 1
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
