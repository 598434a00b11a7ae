package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

const notificationRetention = 30 * 24 * time.Hour

// NotificationInput describes an operator-facing event. DedupeKey plus
// DedupeWindow suppress repeats of the same event within the window.
type NotificationInput struct {
	Category     string
	Type         string
	Message      string
	Payload      string
	DedupeKey    string
	DedupeWindow time.Duration
}

func emitNotification(db *sql.DB, input NotificationInput) {
	if input.DedupeKey != "" && input.DedupeWindow > 0 {
		var count int
		err := db.QueryRow(`
			SELECT COUNT(*)
			FROM notifications
			WHERE dedupe_key = $1 AND created_at > NOW() - $2::interval
		`, input.DedupeKey, fmt.Sprintf("%d seconds", int(input.DedupeWindow.Seconds()))).Scan(&count)
		if err == nil && count > 0 {
			return
		}
	}

	_, err := db.Exec(`
		INSERT INTO notifications (category, type, message, payload, dedupe_key, expires_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NOW() + $6::interval)
	`, input.Category, input.Type, input.Message, input.Payload, input.DedupeKey,
		fmt.Sprintf("%d seconds", int(notificationRetention.Seconds())))
	if err != nil {
		log.Println("notification insert failed:", err)
	}
}

// createWithdrawalRequest queues the item for manual fulfilment and leaves an
// operator notice. One notice per item, however often the user retries.
func createWithdrawalRequest(db *sql.DB, u *User, item Item) {
	_, err := db.Exec(`
		INSERT INTO withdrawal_requests (id, user_id, item_id, item_name, trade_link)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), u.TelegramID, item.ID, item.Name, u.TradeLink.String)
	if err != nil {
		log.Println("withdrawal request insert failed:", err)
	}

	emitNotification(db, NotificationInput{
		Category:     "withdrawals",
		Type:         "withdrawal_request",
		Message:      fmt.Sprintf("%s (%d pts) requested by user %d", item.Name, item.Price, u.TelegramID),
		Payload:      u.TradeLink.String,
		DedupeKey:    "withdrawal:" + item.ID,
		DedupeWindow: notificationRetention,
	})
}

func pruneNotifications(db *sql.DB) {
	result, err := db.Exec(`
		DELETE FROM notifications
		WHERE expires_at IS NOT NULL AND expires_at < NOW()
	`)
	if err != nil {
		log.Println("notification prune failed:", err)
		return
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		log.Printf("pruned %d stale notifications", rows)
	}
}
