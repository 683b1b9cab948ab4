package entities

import (
	"strings"
	"time"

	"gorod-sporta/internal/core/domain/exceptions"
)

// StaffCode is a code handed out by club staff. A nil TaskDay makes it valid
// for every staff-code task.
type StaffCode struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`
	TaskDay    *int      `json:"task_day"`
	UsageLimit int       `json:"usage_limit"`
	UsedCount  int       `json:"used_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c *StaffCode) Remaining() int {
	if c.UsedCount >= c.UsageLimit {
		return 0
	}
	return c.UsageLimit - c.UsedCount
}

func (c *StaffCode) Validate() error {
	c.Code = strings.TrimSpace(c.Code)
	if c.Code == "" || c.UsageLimit <= 0 {
		return exceptions.ErrInvalidInput
	}
	if c.TaskDay != nil && *c.TaskDay <= 0 {
		return exceptions.ErrInvalidInput
	}
	return nil
}
