package mapper

import (
	"strings"
	"time"

	"gorod-sporta/internal/core/domain/entities"
)

// TaskView is a catalog entry as the Mini App sees it. Of the expected codes
// only the poster QR code of an open QR task is sent; the app matches a qr_
// start parameter against it.
type TaskView struct {
	ID               int64           `json:"id"`
	DayNumber        int             `json:"day_number"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	CoinsReward      int64           `json:"coins_reward"`
	VerificationType string          `json:"verification_type"`
	VerificationData *PosterCodeView `json:"verification_data,omitempty"`
	Status           *string         `json:"status"`
	CompletedAt      *time.Time      `json:"completed_at"`
	ReviewStatus     *string         `json:"review_status"`
	ReviewPending    bool            `json:"review_pending"`
}

type PosterCodeView struct {
	QRCode string `json:"qr_code"`
}

func posterCode(p entities.TaskProgress) *PosterCodeView {
	if p.Completed() {
		return nil
	}
	switch p.VerificationType {
	case entities.VerificationQR, entities.VerificationQROrManual, entities.VerificationAppCode:
	default:
		return nil
	}
	codes, err := entities.DecodeVerificationCodes(p.VerificationData)
	if err != nil || strings.TrimSpace(codes.QRCode) == "" {
		return nil
	}
	return &PosterCodeView{QRCode: strings.TrimSpace(codes.QRCode)}
}

func Task(p entities.TaskProgress) TaskView {
	view := TaskView{
		ID:               p.ID,
		DayNumber:        p.DayNumber,
		Title:            p.Title,
		Description:      p.Description,
		CoinsReward:      p.CoinsReward,
		VerificationType: string(p.VerificationType),
		VerificationData: posterCode(p),
		Status:           p.Status,
		CompletedAt:      p.CompletedAt,
		ReviewPending:    p.ReviewPending(),
	}
	if p.ReviewStatus != nil {
		status := string(*p.ReviewStatus)
		view.ReviewStatus = &status
	}
	return view
}

func Tasks(progress []entities.TaskProgress) []TaskView {
	views := make([]TaskView, 0, len(progress))
	for _, p := range progress {
		views = append(views, Task(p))
	}
	return views
}

type UserView struct {
	entities.User
	PlatformID int64 `json:"platform_id"`
}

// User adds the id the caller addressed the account by.
func User(user *entities.User, ref entities.PlatformRef) UserView {
	return UserView{User: *user, PlatformID: ref.ID}
}
