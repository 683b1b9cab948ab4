package entities

import "time"

type Referral struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	FriendName  string    `json:"friend_name"`
	FriendPhone string    `json:"friend_phone"`
	CreatedAt   time.Time `json:"created_at"`
}

type ReferralView struct {
	Referral
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	TelegramID *int64 `json:"telegram_id"`
	VKID       *int64 `json:"vk_id"`
}
