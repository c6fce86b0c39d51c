package model

import (
	"time"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/enums"
)

// Session is one authenticated device/browser login. Rows are never
// physically deleted: terminated sessions are kept for audit.
type Session struct {
	ID                string                  `json:"id"`
	UserID            int64                   `json:"user_id"`
	Token             string                  `json:"-"`
	IsActive          bool                    `json:"is_active"`
	DeviceType        enums.DeviceType        `json:"device_type,omitempty"`
	DeviceID          string                  `json:"device_id,omitempty"`
	UserAgent         string                  `json:"user_agent,omitempty"`
	IP                string                  `json:"ip,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
	LastActiveAt      time.Time               `json:"last_active_at"`
	TerminatedAt      *time.Time              `json:"terminated_at,omitempty"`
	TerminationReason enums.TerminationReason `json:"termination_reason,omitempty"`
}
