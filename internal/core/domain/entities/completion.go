package entities

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"gorod-sporta/internal/core/domain/exceptions"
)

const CompletionStatusCompleted = "completed"

type Completion struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	TaskID      int64           `json:"task_id"`
	Status      string          `json:"status"`
	CompletedAt *time.Time      `json:"completed_at"`
	VerifiedBy  string          `json:"verified_by"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// CompletedTask is a ledger row joined with its catalog entry.
type CompletedTask struct {
	Task
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
	VerifiedBy  string     `json:"verified_by"`
}

// Submission is one completion claim as received from a client.
type Submission struct {
	User    PlatformRef
	TaskDay int
	Kind    VerificationType
	Payload Payload
}

// VerifiedBy is the ledger tag: the declared kind, or the task's own type
// when the client did not declare one.
func (s Submission) VerifiedBy(task *Task) string {
	if s.Kind != "" {
		return string(s.Kind)
	}
	return string(task.VerificationType)
}

type CompletionResult struct {
	Reward int64 `json:"reward"`
	Coins  int64 `json:"coins"`
}

// Payload is the raw verificationData sent by the client. Older clients send
// structured answers as a JSON-encoded string, newer ones as an object.
type Payload json.RawMessage

func (p Payload) IsEmpty() bool {
	trimmed := bytes.TrimSpace(p)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Code returns the payload as a plain code string.
func (p Payload) Code() string {
	if p.IsEmpty() {
		return ""
	}
	trimmed := bytes.TrimSpace(p)
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return ""
	}
	return strings.TrimSpace(string(trimmed))
}

// Object returns the payload as a JSON object, unwrapping a JSON-encoded
// string if needed.
func (p Payload) Object() (json.RawMessage, error) {
	if p.IsEmpty() {
		return nil, exceptions.ErrInvalidPayload
	}
	raw := json.RawMessage(bytes.TrimSpace(p))
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, exceptions.ErrInvalidPayload
		}
		raw = json.RawMessage(strings.TrimSpace(s))
	}
	if len(raw) == 0 || raw[0] != '{' || !json.Valid(raw) {
		return nil, exceptions.ErrInvalidPayload
	}
	return raw, nil
}

func (p Payload) Decode(v any) error {
	raw, err := p.Object()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return exceptions.ErrInvalidPayload
	}
	return nil
}

type ReferralForm struct {
	FriendName  string `json:"friendName"`
	FriendPhone string `json:"friendPhone"`
}

func (f *ReferralForm) Validate() error {
	f.FriendName = strings.TrimSpace(f.FriendName)
	f.FriendPhone = strings.TrimSpace(f.FriendPhone)
	if f.FriendName == "" || f.FriendPhone == "" {
		return exceptions.ErrInvalidPayload
	}
	return nil
}

// QuizResult is reported by the client; the score is stored as-is.
type QuizResult struct {
	Score *float64 `json:"score"`
	Total *float64 `json:"total,omitempty"`
}

func (q QuizResult) Validate() error {
	if q.Score == nil {
		return exceptions.ErrInvalidPayload
	}
	return nil
}
