package dto

import (
	"time"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/model"
)

type SessionResponse struct {
	ID                string     `json:"id"`
	IsActive          bool       `json:"is_active"`
	DeviceType        string     `json:"device_type,omitempty"`
	DeviceID          string     `json:"device_id,omitempty"`
	UserAgent         string     `json:"user_agent,omitempty"`
	IP                string     `json:"ip,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	LastActiveAt      time.Time  `json:"last_active_at"`
	TerminatedAt      *time.Time `json:"terminated_at,omitempty"`
	TerminationReason string     `json:"termination_reason,omitempty"`
	Current           bool       `json:"current"`
}

type SessionListData struct {
	Sessions []SessionResponse `json:"sessions"`
}

func NewSessionResponse(session model.Session, currentSessionID string) SessionResponse {
	return SessionResponse{
		ID:                session.ID,
		IsActive:          session.IsActive,
		DeviceType:        string(session.DeviceType),
		DeviceID:          session.DeviceID,
		UserAgent:         session.UserAgent,
		IP:                session.IP,
		CreatedAt:         session.CreatedAt,
		LastActiveAt:      session.LastActiveAt,
		TerminatedAt:      session.TerminatedAt,
		TerminationReason: string(session.TerminationReason),
		Current:           session.ID == currentSessionID,
	}
}
