package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"time"
)

type UserView struct {
	TelegramID   int64  `json:"telegram_id"`
	FirstName    string `json:"first_name"`
	Username     string `json:"username,omitempty"`
	Points       int    `json:"points"`
	TotalEarned  int    `json:"total_earned"`
	ReferralCode string `json:"referral_code"`
	TradeLink    string `json:"trade_link,omitempty"`
	IsGuest      bool   `json:"is_guest,omitempty"`
}

type UserResponse struct {
	Success             bool       `json:"success"`
	User                UserView   `json:"user"`
	Inventory           []Item     `json:"inventory"`
	DailyBonusAvailable bool       `json:"daily_bonus_available"`
	NextBonusTime       *time.Time `json:"next_bonus_time,omitempty"`
	Demo                bool       `json:"demo,omitempty"`
}

type OpenCaseRequest struct {
	CasePrice int `json:"case_price"`
}

type OpenCaseResponse struct {
	Success    bool   `json:"success"`
	Item       string `json:"item"`
	ItemPrice  int    `json:"item_price"`
	ItemType   string `json:"item_type"`
	ItemRarity string `json:"item_rarity"`
	NewBalance int    `json:"new_balance"`
	Inventory  []Item `json:"inventory"`
	Demo       bool   `json:"demo,omitempty"`
}

type DailyBonusResponse struct {
	Success       bool      `json:"success"`
	Bonus         int       `json:"bonus"`
	NewBalance    int       `json:"new_balance"`
	NextBonusTime time.Time `json:"next_bonus_time"`
	Demo          bool      `json:"demo,omitempty"`
}

type PromoRequest struct {
	Code string `json:"code"`
}

type PromoResponse struct {
	Success    bool `json:"success"`
	Points     int  `json:"points"`
	NewBalance int  `json:"new_balance"`
	Demo       bool `json:"demo,omitempty"`
}

type TradeLinkRequest struct {
	TradeLink string `json:"trade_link"`
}

type TradeLinkResponse struct {
	Success   bool   `json:"success"`
	TradeLink string `json:"trade_link"`
	Demo      bool   `json:"demo,omitempty"`
}

type WithdrawRequest struct {
	ItemID string `json:"item_id"`
}

type WithdrawResponse struct {
	Success           bool   `json:"success"`
	Inventory         []Item `json:"inventory"`
	RequiresTradeLink bool   `json:"requires_trade_link,omitempty"`
	Demo              bool   `json:"demo,omitempty"`
}

type PromoListResponse struct {
	Success bool        `json:"success"`
	Promos  []PromoView `json:"promos"`
}

type ReferralInfoResponse struct {
	Success bool         `json:"success"`
	Info    ReferralInfo `json:"info"`
}

type EligibilityResponse struct {
	Success     bool   `json:"success"`
	CanUse      bool   `json:"can_use"`
	Reason      string `json:"reason,omitempty"`
	SecondsLeft int64  `json:"seconds_left,omitempty"`
}

type InviteRequest struct {
	ReferralCode string `json:"referral_code"`
}

type SteamVerifyRequest struct {
	ProfileURL string `json:"profile_url"`
	Level      int    `json:"level"`
}

type ProfileCheckResponse struct {
	Success    bool `json:"success"`
	Verified   bool `json:"verified"`
	Bonus      int  `json:"bonus"`
	NewBalance int  `json:"new_balance"`
}

type GuestSessionResponse struct {
	Success bool   `json:"success"`
	GuestID int64  `json:"guest_id"`
	Token   string `json:"token"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Println("response encode failed:", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, ErrAuthRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrAlreadyClaimed),
		errors.Is(err, ErrAlreadyRedeemed),
		errors.Is(err, ErrInvalidCode),
		errors.Is(err, ErrInvalidFormat),
		errors.Is(err, ErrTradeLinkRequired),
		errors.Is(err, ErrBusy):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
		log.Println("request failed:", err)
	}
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   errorCode(err),
	})
}

func decodeBody(r *http.Request, out interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

// identify resolves and loads (creating on first contact) the calling user.
func identify(cfg Config, db *sql.DB, r *http.Request) (*User, error) {
	identity, guest, err := requestIdentity(cfg, r, time.Now())
	if err != nil {
		return nil, err
	}
	u, _, err := LoadOrCreateUser(db, *identity, guest)
	return u, err
}

func userSnapshot(db *sql.DB, u *User, now time.Time) (*UserResponse, error) {
	inventory, err := GetInventory(db, u.TelegramID)
	if err != nil {
		return nil, err
	}
	resp := &UserResponse{
		Success: true,
		User: UserView{
			TelegramID:   u.TelegramID,
			FirstName:    u.FirstName,
			Username:     u.Username,
			Points:       u.Points,
			TotalEarned:  u.TotalEarned,
			ReferralCode: u.ReferralCode,
			TradeLink:    u.TradeLink.String,
			IsGuest:      u.IsGuest,
		},
		Inventory:           inventory,
		DailyBonusAvailable: dailyBonusAvailable(u, now),
	}
	if u.LastDailyBonus.Valid {
		next := u.LastDailyBonus.Time.Add(dailyBonusWindow)
		resp.NextBonusTime = &next
	}
	return resp, nil
}

func userHandler(cfg Config, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := identify(cfg, db, r)
		if err != nil {
			writeError(w, err)
			return
		}
		resp, err := userSnapshot(db, u, time.Now())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func openCaseHandler(cfg Config, db *sql.DB, rng *rand.Rand) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := identify(cfg, db, r)
		if err != nil {
			writeError(w, err)
			return
		}
		var req OpenCaseRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, ErrInvalidFormat)
			return
		}
		// Unknown prices fall through to the default candidate table, but a
		// non-positive price is never a case.
		if req.CasePrice <= 0 {
			writeError(w, ErrNotFound)
			return
		}

		newBalance, err := SpendPoints(db, u.TelegramID, req.CasePrice)
		if err != nil {
			writeError(w, err)
			return
		}

		item := rollCase(rng, req.CasePrice, time.Now())
		if err := AddItemToInventory(db, u.TelegramID, item); err != nil {
			writeError(w, err)
			return
		}
		recordCaseOpened(db, u.TelegramID, req.CasePrice)
		logAction(db, u.TelegramID, ActionCaseOpened, item.Name, -req.CasePrice)

		inventory, err := GetInventory(db, u.TelegramID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, OpenCaseResponse{
			Success:    true,
			Item:       item.Name,
			ItemPrice:  item.Price,
			ItemType:   item.Type,
			ItemRarity: item.Rarity,
			NewBalance: newBalance,
			Inventory:  inventory,
		})
	}
}

func dailyBonusHandler(cfg Config, db *sql.DB, rng *rand.Rand) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := identify(cfg, db, r)
		if err != nil {
			writeError(w, err)
			return
		}
		now := time.Now()
		if !dailyBonusAvailable(u, now) {
			writeError(w, ErrAlreadyClaimed)
			return
		}

		settings := GetRuntimeSettings()
		bonus := settings.DailyBonusMin + rng.Intn(settings.DailyBonusMax-settings.DailyBonusMin+1)

		if err := StampDailyBonus(db, u.TelegramID, now); err != nil {
			writeError(w, err)
			return
		}
		balance, err := CreditPoints(db, u.TelegramID, bonus, ActionDailyBonus, "")
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, DailyBonusResponse{
			Success:       true,
			Bonus:         bonus,
			NewBalance:    balance,
			NextBonusTime: now.Add(dailyBonusWindow),
		})
	}
}

func activatePromoHandler(cfg Config, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := identify(cfg, db, r)
		if err != nil {
			writeError(w, err)
			return
		}
		var req PromoRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, ErrInvalidCode)
			return
		}
		points, balance, err := RedeemPromo(db, u.TelegramID, req.Code, time.Now())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, PromoResponse{
			Success:    true,
			Points:     points,
			NewBalance: balance,
		})
	}
}

func setTradeLinkHandler(cfg Config, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := identify(cfg, db, r)
		if err != nil {
			writeError(w, err)
			return
		}
		var req TradeLinkRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, ErrInvalidFormat)
			return
		}
		if !validateTradeLink(req.TradeLink) {
			writeError(w, ErrInvalidFormat)
			return
		}
		if err := SetUserTradeLink(db, u.TelegramID, req.TradeLink); err != nil {
			writeError(w, err)
			return
		}
		logAction(db, u.TelegramID, ActionTradeLink, req.TradeLink, 0)
		writeJSON(w, http.StatusOK, TradeLinkResponse{Success: true, TradeLink: req.TradeLink})
	}
}

func withdrawItemHandler(cfg Config, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := identify(cfg, db, r)
		if err != nil {
			writeError(w, err)
			return
		}
		if !u.TradeLink.Valid || u.TradeLink.String == "" {
			writeJSON(w, http.StatusBadRequest, WithdrawResponse{
				RequiresTradeLink: true,
			})
			return
		}
		var req WithdrawRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, ErrInvalidFormat)
			return
		}
		item, err := MarkItemWithdrawn(db, u.TelegramID, req.ItemID)
		if err != nil {
			writeError(w, err)
			return
		}
		recordWithdrawal(db, u.TelegramID, item.Price)
		logAction(db, u.TelegramID, ActionWithdrawal, item.Name, 0)
		createWithdrawalRequest(db, u, *item)

		inventory, err := GetInventory(db, u.TelegramID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, WithdrawResponse{Success: true, Inventory: inventory})
	}
}

func availablePromosHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		promos, err := AvailablePromos(db, time.Now())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, PromoListResponse{Success: true, Promos: promos})
	}
}

func guestSessionHandler(cfg Config, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		guestID, err := newGuestID()
		if err != nil {
			writeError(w, err)
			return
		}
		token, err := mintGuestToken(cfg.GuestSecret, guestID, now)
		if err != nil {
			writeError(w, err)
			return
		}
		if _, _, err := LoadOrCreateUser(db, TelegramUser{ID: guestID, FirstName: "Guest"}, true); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, GuestSessionResponse{
			Success: true,
			GuestID: guestID,
			Token:   token,
		})
	}
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		if err := db.Ping(); err != nil {
			status = "degraded"
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"status":    status,
			"timestamp": time.Now().UTC(),
		})
	}
}
