package entities

import (
	"encoding/json"
	"strings"
	"time"

	"gorod-sporta/internal/core/domain/exceptions"
)

type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformVK       Platform = "vk"
)

// PlatformRef identifies a user on one chat platform.
type PlatformRef struct {
	Platform Platform
	ID       int64
}

func (r PlatformRef) Validate() error {
	if r.ID <= 0 {
		return exceptions.ErrInvalidPlatformRef
	}
	switch r.Platform {
	case PlatformTelegram, PlatformVK:
		return nil
	default:
		return exceptions.ErrInvalidPlatformRef
	}
}

func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case "", PlatformTelegram, "tg":
		return PlatformTelegram, nil
	case PlatformVK:
		return PlatformVK, nil
	default:
		return "", exceptions.ErrInvalidPlatformRef
	}
}

type User struct {
	ID             int64           `json:"id"`
	TelegramID     *int64          `json:"telegram_id"`
	VKID           *int64          `json:"vk_id"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Username       string          `json:"username"`
	Phone          *string         `json:"phone"`
	MembershipType string          `json:"membership_type"`
	Coins          int64           `json:"coins"`
	XP             int64           `json:"xp"`
	SurveyData     json.RawMessage `json:"survey_data,omitempty"`
	LastActivityAt *time.Time      `json:"last_activity_at"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (u *User) PlatformID(p Platform) *int64 {
	switch p {
	case PlatformTelegram:
		return u.TelegramID
	case PlatformVK:
		return u.VKID
	default:
		return nil
	}
}

// CanLink reports whether ref may be attached to this account: either the
// account has no id on that platform yet or it already carries the same id.
func (u *User) CanLink(ref PlatformRef) bool {
	current := u.PlatformID(ref.Platform)
	return current == nil || *current == ref.ID
}

// Profile is the user-supplied part of a registration or bot contact.
type Profile struct {
	FirstName      string
	LastName       string
	Username       string
	Phone          string
	MembershipType string
}

func (p Profile) Normalize() Profile {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Username = strings.TrimSpace(p.Username)
	p.Phone = NormalizePhone(p.Phone)
	p.MembershipType = strings.TrimSpace(p.MembershipType)
	return p
}

// NormalizePhone keeps digits only so "+7 (900) 000-00-00" and "79000000000"
// resolve to the same account.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type UserSummary struct {
	User
	CompletedTasks int64 `json:"completed_tasks"`
}

type LeaderboardEntry struct {
	UserID     int64  `json:"id"`
	TelegramID *int64 `json:"telegram_id"`
	VKID       *int64 `json:"vk_id"`
	FirstName  string `json:"first_name"`
	Coins      int64  `json:"coins"`
	XP         int64  `json:"xp"`
}

// UserDetails is the admin view of one account.
type UserDetails struct {
	User        User                `json:"user"`
	Tasks       []CompletedTask     `json:"tasks"`
	Purchases   []PurchaseView      `json:"purchases"`
	Adjustments []BalanceAdjustment `json:"adjustments"`
}
