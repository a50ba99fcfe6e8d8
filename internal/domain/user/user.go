package user

import (
	"time"

	"taskpay/internal/common"
)

type Role string

const (
	RoleApplicant Role = "applicant"
	RoleClient    Role = "client"
	RoleAdmin     Role = "admin"
)

type User struct {
	ID           common.UUID `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Roles        []Role      `json:"roles"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (u *User) HasRole(role Role) bool {
	for _, existing := range u.Roles {
		if existing == role {
			return true
		}
	}
	return false
}
