package main

import (
	"database/sql"
	"embed"
	"log"
	"math/rand"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

//go:embed public/*
var publicFiles embed.FS

// post restricts a handler to POST requests.
func post(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func registerRoutes(mux *http.ServeMux, cfg Config, db *sql.DB, rng *rand.Rand, assets *AssetCache) {
	mux.HandleFunc("/api/user", userHandler(cfg, db))
	mux.HandleFunc("/api/open-case", post(openCaseHandler(cfg, db, rng)))
	mux.HandleFunc("/api/daily-bonus", post(dailyBonusHandler(cfg, db, rng)))
	mux.HandleFunc("/api/activate-promo", post(activatePromoHandler(cfg, db)))
	mux.HandleFunc("/api/set-trade-link", post(setTradeLinkHandler(cfg, db)))
	mux.HandleFunc("/api/withdraw-item", post(withdrawItemHandler(cfg, db)))
	mux.HandleFunc("/api/available-promos", availablePromosHandler(db))
	mux.HandleFunc("/api/guest-session", post(guestSessionHandler(cfg, db)))
	mux.HandleFunc("/api/health", healthHandler(db))

	mux.HandleFunc("/api/verify-telegram", post(verifyTelegramHandler(cfg, db)))
	mux.HandleFunc("/api/verify-steam", post(verifySteamHandler(cfg, db)))
	mux.HandleFunc("/api/referral-info", referralInfoHandler(cfg, db))
	mux.HandleFunc("/api/referral-eligibility", referralEligibilityHandler(cfg, db))
	mux.HandleFunc("/api/invite-friend", post(inviteFriendHandler(cfg, db)))

	mux.HandleFunc("/api/admin/stats", adminStatsHandler(cfg, db))
	mux.HandleFunc("/api/admin/create-promo", post(adminCreatePromoHandler(cfg, db)))
	mux.HandleFunc("/api/admin/settings", post(adminUpdateSettingsHandler(cfg, db)))

	mux.HandleFunc("/", serveAsset(assets))
}

// serveAsset serves the embedded app shell through the versioned cache, so
// the same read-through policy applies on both ends.
func serveAsset(cache *AssetCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		if name == "" {
			name = "index.html"
		}
		data, err := cache.Get(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if contentType := mime.TypeByExtension(path.Ext(name)); contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Write(data)
	}
}

func embeddedAssets(version string) *AssetCache {
	return NewAssetCache(version, []string{"index.html"}, func(name string) ([]byte, error) {
		return publicFiles.ReadFile("public/" + name)
	})
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.Ping(); err != nil {
		log.Fatal("database unreachable:", err)
	}

	if err := ensureSchema(db); err != nil {
		log.Fatal("schema setup failed:", err)
	}
	seedPromoCodes(db)
	if err := LoadRuntimeSettings(db); err != nil {
		log.Println("settings load failed, using defaults:", err)
	}

	startMaintenanceLoop(db)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	assets := embeddedAssets(cfg.AssetCacheVersion)

	mux := http.NewServeMux()
	registerRoutes(mux, cfg, db, rng, assets)

	log.Println("listening on", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, mux))
}
