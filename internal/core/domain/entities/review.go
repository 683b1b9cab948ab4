package entities

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"gorod-sporta/internal/core/domain/exceptions"
)

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	default:
		return false
	}
}

type Review struct {
	ID           int64        `json:"id"`
	UserID       int64        `json:"user_id"`
	TaskID       int64        `json:"task_id"`
	PhotoURL     string       `json:"photo_url"`
	Status       ReviewStatus `json:"status"`
	AdminComment *string      `json:"admin_comment"`
	ReviewedBy   *string      `json:"reviewed_by"`
	SubmittedAt  time.Time    `json:"submitted_at"`
	ReviewedAt   *time.Time   `json:"reviewed_at"`
}

// ReviewView is a submission joined with its author and task for moderation.
type ReviewView struct {
	Review
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	TelegramID  *int64 `json:"telegram_id"`
	VKID        *int64 `json:"vk_id"`
	DayNumber   int    `json:"day_number"`
	TaskTitle   string `json:"task_title"`
	CoinsReward int64  `json:"coins_reward"`
}

// ReviewDecision is the outcome of a moderation action.
type ReviewDecision struct {
	Review   Review `json:"review"`
	Credited bool   `json:"credited"`
	Reward   int64  `json:"reward"`
	Coins    int64  `json:"coins"`
}

// Photo is an uploaded review image before it reaches storage.
type Photo struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

const MaxPhotoSize = 10 << 20

func (p Photo) Validate() error {
	if p.Body == nil || p.Size <= 0 || p.Size > MaxPhotoSize {
		return exceptions.ErrInvalidPhoto
	}
	if !strings.HasPrefix(strings.ToLower(p.ContentType), "image/") {
		return exceptions.ErrInvalidPhoto
	}
	return nil
}

// Ext returns the lowercase file extension including the dot, if any.
func (p Photo) Ext() string {
	return strings.ToLower(filepath.Ext(p.Filename))
}
