package entities

import "time"

// BalanceAdjustment records a manual balance change made from the admin panel.
type BalanceAdjustment struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	CoinsDelta int64     `json:"coins_delta"`
	XPDelta    int64     `json:"xp_delta"`
	Reason     string    `json:"reason"`
	Actor      string    `json:"actor"`
	CreatedAt  time.Time `json:"created_at"`
}

// BalanceUpdate carries the absolute values an admin wants to set.
type BalanceUpdate struct {
	Coins  *int64
	XP     *int64
	Reason string
	Actor  string
}
