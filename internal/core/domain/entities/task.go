package entities

import (
	"strings"
	"time"

	"gorod-sporta/internal/core/domain/exceptions"

	"github.com/mitchellh/mapstructure"
)

type VerificationType string

const (
	VerificationQR           VerificationType = "qr"
	VerificationStaffCode    VerificationType = "code"
	VerificationQROrManual   VerificationType = "qr_or_manual"
	VerificationAppCode      VerificationType = "app_code"
	VerificationSelf         VerificationType = "self"
	VerificationSurvey       VerificationType = "survey"
	VerificationReferralForm VerificationType = "referral_form"
	VerificationQuiz         VerificationType = "quiz"
	VerificationReview       VerificationType = "review"
)

var verificationTypes = map[VerificationType]struct{}{
	VerificationQR:           {},
	VerificationStaffCode:    {},
	VerificationQROrManual:   {},
	VerificationAppCode:      {},
	VerificationSelf:         {},
	VerificationSurvey:       {},
	VerificationReferralForm: {},
	VerificationQuiz:         {},
	VerificationReview:       {},
}

func (t VerificationType) Valid() bool {
	_, ok := verificationTypes[t]
	return ok
}

// VerificationCodes is the typed view of a task's verification_data blob.
type VerificationCodes struct {
	TestCode   string `mapstructure:"test_code" json:"test_code,omitempty"`
	QRCode     string `mapstructure:"qr_code" json:"qr_code,omitempty"`
	ManualCode string `mapstructure:"manual_code" json:"manual_code,omitempty"`
	MainCode   string `mapstructure:"main_code" json:"main_code,omitempty"`
}

// DecodeVerificationCodes reads the expected codes from a stored descriptor.
// Numeric codes are accepted and compared as their decimal text.
func DecodeVerificationCodes(data map[string]any) (VerificationCodes, error) {
	var codes VerificationCodes
	if len(data) == 0 {
		return codes, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &codes,
	})
	if err != nil {
		return codes, err
	}
	if err := decoder.Decode(data); err != nil {
		return codes, err
	}
	return codes, nil
}

// QRCandidates are the codes accepted by a plain QR task.
func (c VerificationCodes) QRCandidates() []string {
	return nonEmpty(c.TestCode, c.ManualCode, c.QRCode)
}

// AllCandidates are the codes accepted by app_code and qr_or_manual tasks.
func (c VerificationCodes) AllCandidates() []string {
	return nonEmpty(c.TestCode, c.ManualCode, c.QRCode, c.MainCode)
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// MatchCode compares a submitted code against candidates, ignoring case and
// surrounding whitespace. The first matching candidate wins.
func MatchCode(input string, candidates []string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}
	for _, candidate := range candidates {
		if strings.EqualFold(input, strings.TrimSpace(candidate)) {
			return true
		}
	}
	return false
}

type Task struct {
	ID               int64            `json:"id"`
	DayNumber        int              `json:"day_number"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	CoinsReward      int64            `json:"coins_reward"`
	VerificationType VerificationType `json:"verification_type"`
	VerificationData map[string]any   `json:"verification_data"`
}

// TaskProgress is a catalog entry annotated for one user.
type TaskProgress struct {
	Task
	Status       *string       `json:"status"`
	CompletedAt  *time.Time    `json:"completed_at"`
	ReviewStatus *ReviewStatus `json:"review_status"`
}

func (p TaskProgress) Completed() bool {
	return p.Status != nil && *p.Status == CompletionStatusCompleted
}

func (p TaskProgress) ReviewPending() bool {
	return p.ReviewStatus != nil && *p.ReviewStatus == ReviewStatusPending
}

// TaskStats is a catalog entry with its completion count for the admin panel.
type TaskStats struct {
	Task
	CompletionCount int64 `json:"completed_count"`
}

type TaskUpdate struct {
	Title            string
	Description      string
	CoinsReward      int64
	VerificationType VerificationType
	VerificationData map[string]any
}

func (u *TaskUpdate) Validate() error {
	u.Title = strings.TrimSpace(u.Title)
	if u.Title == "" || u.CoinsReward < 0 || !u.VerificationType.Valid() {
		return exceptions.ErrInvalidInput
	}
	if _, err := DecodeVerificationCodes(u.VerificationData); err != nil {
		return exceptions.ErrInvalidInput
	}
	return nil
}
