package main

import (
	"database/sql"
	"net/http"
	"time"
)

type AdminStatsResponse struct {
	Success          bool            `json:"success"`
	TotalUsers       int             `json:"total_users"`
	ActiveToday      int             `json:"active_today"`
	TotalPoints      int             `json:"total_points"`
	CasesOpened      int             `json:"cases_opened"`
	PendingWithdraws int             `json:"pending_withdrawals"`
	PromosRedeemed   int             `json:"promos_redeemed"`
	TopReferrers     []ReferrerEntry `json:"top_referrers"`
}

// adminOnly wraps a handler with the host-identity admin check. Guest tokens
// never reach admin surfaces.
func adminOnly(cfg Config, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, guest, err := requestIdentity(cfg, r, time.Now())
		if err != nil {
			writeError(w, err)
			return
		}
		if guest || !cfg.isAdmin(identity.ID) {
			writeError(w, ErrAuthRequired)
			return
		}
		next(w, r)
	}
}

func adminStatsHandler(cfg Config, db *sql.DB) http.HandlerFunc {
	return adminOnly(cfg, func(w http.ResponseWriter, r *http.Request) {
		var resp AdminStatsResponse
		resp.Success = true

		queries := []struct {
			sql  string
			dest *int
		}{
			{`SELECT COUNT(*) FROM users`, &resp.TotalUsers},
			{`SELECT COUNT(*) FROM users WHERE last_active_at > NOW() - INTERVAL '1 day'`, &resp.ActiveToday},
			{`SELECT COALESCE(SUM(points), 0) FROM users`, &resp.TotalPoints},
			{`SELECT COALESCE(SUM(total_cases_opened), 0) FROM user_stats`, &resp.CasesOpened},
			{`SELECT COUNT(*) FROM withdrawal_requests WHERE status = 'pending'`, &resp.PendingWithdraws},
			{`SELECT COUNT(*) FROM used_promo_codes`, &resp.PromosRedeemed},
		}
		for _, q := range queries {
			if err := db.QueryRow(q.sql).Scan(q.dest); err != nil {
				writeError(w, err)
				return
			}
		}

		top, err := TopReferrers(db, 10)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.TopReferrers = top
		writeJSON(w, http.StatusOK, resp)
	})
}

type CreatePromoRequest struct {
	Code        string     `json:"code"`
	Points      int        `json:"points"`
	MaxUses     int        `json:"max_uses"`
	Description string     `json:"description"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func adminCreatePromoHandler(cfg Config, db *sql.DB) http.HandlerFunc {
	return adminOnly(cfg, func(w http.ResponseWriter, r *http.Request) {
		identity, _, err := requestIdentity(cfg, r, time.Now())
		if err != nil {
			writeError(w, err)
			return
		}
		var req CreatePromoRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, ErrInvalidCode)
			return
		}
		if req.MaxUses == 0 {
			req.MaxUses = unlimitedUses
		}
		if err := CreatePromo(db, identity.ID, req.Code, req.Points, req.MaxUses, req.Description, req.ExpiresAt); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	})
}

type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings"`
}

func adminUpdateSettingsHandler(cfg Config, db *sql.DB) http.HandlerFunc {
	return adminOnly(cfg, func(w http.ResponseWriter, r *http.Request) {
		var req UpdateSettingsRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, ErrInvalidFormat)
			return
		}
		settings, err := UpdateRuntimeSettings(db, req.Settings)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"settings": settings,
		})
	})
}
