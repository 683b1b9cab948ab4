package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/domain/exceptions"

	"github.com/gofiber/fiber/v2"
)

// flexID accepts identifiers sent either as JSON numbers or as strings.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(bytes.Trim(b, `"`)))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return exceptions.ErrInvalidPlatformRef
	}
	*f = flexID(v)
	return nil
}

// platformFields are the user identifiers every Mini App request carries.
// Older Telegram clients send telegramId only.
type platformFields struct {
	PlatformID flexID `json:"platformId"`
	TelegramID flexID `json:"telegramId"`
	VKID       flexID `json:"vkId"`
	Platform   string `json:"platform"`
}

func (p platformFields) ref() (entities.PlatformRef, error) {
	id := p.PlatformID
	if id == 0 {
		id = p.TelegramID
	}
	if id != 0 {
		platform, err := entities.ParsePlatform(p.Platform)
		if err != nil {
			return entities.PlatformRef{}, err
		}
		return entities.PlatformRef{Platform: platform, ID: int64(id)}, nil
	}
	if p.VKID != 0 {
		return entities.PlatformRef{Platform: entities.PlatformVK, ID: int64(p.VKID)}, nil
	}
	return entities.PlatformRef{}, exceptions.ErrInvalidPlatformRef
}

type completeTaskRequest struct {
	platformFields
	TaskDay          int             `json:"taskDay"`
	VerificationType string          `json:"verificationType"`
	VerificationData json.RawMessage `json:"verificationData"`
}

func (r completeTaskRequest) submission() (entities.Submission, error) {
	ref, err := r.ref()
	if err != nil {
		return entities.Submission{}, err
	}
	kind := entities.VerificationType(strings.TrimSpace(r.VerificationType))
	if !kind.Valid() {
		kind = ""
	}
	return entities.Submission{
		User:    ref,
		TaskDay: r.TaskDay,
		Kind:    kind,
		Payload: entities.Payload(r.VerificationData),
	}, nil
}

type surveyRequest struct {
	platformFields
	TaskDay int             `json:"taskDay"`
	Answers json.RawMessage `json:"answers"`
}

type registerRequest struct {
	platformFields
	FullName   string `json:"fullName"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Username   string `json:"username"`
	Phone      string `json:"phone"`
	Membership string `json:"membership"`
}

func (r registerRequest) profile() entities.Profile {
	first := r.FullName
	if strings.TrimSpace(first) == "" {
		first = r.FirstName
	}
	return entities.Profile{
		FirstName:      first,
		LastName:       r.LastName,
		Username:       r.Username,
		Phone:          r.Phone,
		MembershipType: r.Membership,
	}
}

type purchaseRequest struct {
	platformFields
	ItemID flexID `json:"itemId"`
}

type loginRequest struct {
	Password string `json:"password"`
}

type balanceRequest struct {
	Coins  *int64 `json:"coins"`
	XP     *int64 `json:"xp"`
	Reason string `json:"reason"`
}

type taskRequest struct {
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	CoinsReward      int64          `json:"coins_reward"`
	VerificationType string         `json:"verification_type"`
	VerificationData map[string]any `json:"verification_data"`
}

type prizeRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Icon        string `json:"icon"`
	IsActive    bool   `json:"is_active"`
}

type rejectRequest struct {
	Comment string `json:"comment"`
}

type staffCodeRequest struct {
	Code       string `json:"code"`
	TaskDay    *int   `json:"task_day"`
	UsageLimit int    `json:"usage_limit"`
}

func parseBody(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return exceptions.ErrInvalidInput
	}
	if err := json.Unmarshal(c.Body(), v); err != nil {
		if errors.Is(err, exceptions.ErrInvalidPlatformRef) {
			return exceptions.ErrInvalidPlatformRef
		}
		return exceptions.ErrInvalidInput
	}
	return nil
}

func idParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, exceptions.ErrInvalidInput
	}
	return id, nil
}
