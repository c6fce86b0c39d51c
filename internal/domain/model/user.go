package model

import (
	"time"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/enums"
)

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	FullName     string     `json:"full_name"`
	Role         enums.Role `json:"role"`
	PasswordHash string     `json:"-"`
	TOTPSecret   string     `json:"-"`
	Phone        string     `json:"phone,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TOTPEnrolled reports whether the user has completed two-factor setup.
func (u User) TOTPEnrolled() bool {
	return u.TOTPSecret != ""
}
