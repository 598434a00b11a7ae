package main

import (
	"database/sql"
	"log"
	"time"
)

// startMaintenanceLoop runs the periodic housekeeping: stale notification
// pruning and a heartbeat row so operators can see the server is alive.
// Every step is idempotent, so overlapping restarts are harmless.
func startMaintenanceLoop(db *sql.DB) {
	ticker := time.NewTicker(60 * time.Second)

	go func() {
		for t := range ticker.C {
			pruneNotifications(db)

			_, err := db.Exec(`
				INSERT INTO global_settings (key, value, updated_at)
				VALUES ('heartbeat', $1, NOW())
				ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
			`, t.UTC().Format(time.RFC3339))
			if err != nil {
				log.Println("heartbeat update failed:", err)
			}
		}
	}()
}
