package main

import (
	"database/sql"
	"net/http"
	"strings"
	"time"
)

const (
	telegramProfileBonus = 500
	steamProfileBonus    = 1000
	steamMinLevel        = 3

	// profileMarker is what a user adds to their Telegram name or bio to
	// prove the profile task was done.
	profileMarker = "ranwork"
)

// steamLevelBonus stacks on top of the base Steam payout as the profile level
// climbs.
func steamLevelBonus(level int) int {
	bonus := 0
	if level >= 10 {
		bonus += 500
	}
	if level >= 25 {
		bonus += 1000
	}
	if level >= 50 {
		bonus += 1500
	}
	return bonus
}

// telegramProfileVerified checks the identity fields the host platform
// forwards. The marker lives in the visible name, so no extra API call is
// needed.
func telegramProfileVerified(identity TelegramUser) bool {
	haystack := strings.ToLower(identity.FirstName + " " + identity.LastName + " " + identity.Username)
	return strings.Contains(haystack, profileMarker)
}

func verifyTelegramHandler(cfg Config, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _, err := requestIdentity(cfg, r, time.Now())
		if err != nil {
			writeError(w, err)
			return
		}
		u, _, err := LoadOrCreateUser(db, *identity, false)
		if err != nil {
			writeError(w, err)
			return
		}

		if !telegramProfileVerified(*identity) {
			writeJSON(w, http.StatusOK, ProfileCheckResponse{Success: true, Verified: false})
			return
		}

		// The primary key makes the bonus a one-time payout.
		result, err := db.Exec(`
			INSERT INTO telegram_profiles (user_id, last_name, is_verified, verification_date)
			VALUES ($1, $2, TRUE, NOW())
			ON CONFLICT (user_id) DO NOTHING
		`, u.TelegramID, identity.LastName)
		if err != nil {
			writeError(w, err)
			return
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			writeError(w, ErrAlreadyRedeemed)
			return
		}

		balance, err := CreditPoints(db, u.TelegramID, telegramProfileBonus, ActionTelegramProfile, identity.Username)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ProfileCheckResponse{
			Success:    true,
			Verified:   true,
			Bonus:      telegramProfileBonus,
			NewBalance: balance,
		})
	}
}

func verifySteamHandler(cfg Config, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := identify(cfg, db, r)
		if err != nil {
			writeError(w, err)
			return
		}
		var req SteamVerifyRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, ErrInvalidFormat)
			return
		}
		steamID := extractSteamID(req.ProfileURL)
		if steamID == "" {
			writeError(w, ErrInvalidFormat)
			return
		}
		if req.Level < steamMinLevel {
			writeJSON(w, http.StatusOK, ProfileCheckResponse{Success: true, Verified: false})
			return
		}

		result, err := db.Exec(`
			INSERT INTO steam_profiles (user_id, steam_id, steam_url, profile_level, is_verified, verification_date)
			VALUES ($1, $2, $3, $4, TRUE, NOW())
			ON CONFLICT (user_id) DO NOTHING
		`, u.TelegramID, steamID, req.ProfileURL, req.Level)
		if err != nil {
			writeError(w, err)
			return
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			writeError(w, ErrAlreadyRedeemed)
			return
		}

		bonus := steamProfileBonus + steamLevelBonus(req.Level)
		balance, err := CreditPoints(db, u.TelegramID, bonus, ActionSteamProfile, steamID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ProfileCheckResponse{
			Success:    true,
			Verified:   true,
			Bonus:      bonus,
			NewBalance: balance,
		})
	}
}

func referralInfoHandler(cfg Config, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := identify(cfg, db, r)
		if err != nil {
			writeError(w, err)
			return
		}
		info, err := GetReferralInfo(db, cfg.BotUsername, u.TelegramID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ReferralInfoResponse{Success: true, Info: *info})
	}
}

func referralEligibilityHandler(cfg Config, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := identify(cfg, db, r)
		if err != nil {
			writeError(w, err)
			return
		}
		eligibility, err := CanUseReferralCode(db, u.TelegramID, time.Now())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, EligibilityResponse{
			Success:     true,
			CanUse:      eligibility.CanUse,
			Reason:      eligibility.Reason,
			SecondsLeft: eligibility.SecondsLeft,
		})
	}
}

// inviteFriendHandler lets a fresh user enter the code they arrived with.
// The inviter is the one who gets paid.
func inviteFriendHandler(cfg Config, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := identify(cfg, db, r)
		if err != nil {
			writeError(w, err)
			return
		}
		var req InviteRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, ErrInvalidCode)
			return
		}
		referrer, err := LoadUserByReferralCode(db, strings.TrimSpace(req.ReferralCode))
		if err != nil {
			writeError(w, err)
			return
		}
		if referrer == nil {
			writeError(w, ErrInvalidCode)
			return
		}
		if err := AddReferral(db, referrer.TelegramID, u.TelegramID, time.Now()); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}
