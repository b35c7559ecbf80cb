// Package accounts manages marketplace accounts: profiles, roles,
// suspension, and deletion.
package accounts

import (
	"time"

	"github.com/pixelfolio/pixelfolio/internal/authz"
)

// Account represents a registered account. The password hash is never
// serialized.
type Account struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Bio          string     `json:"bio"`
	Role         authz.Role `json:"role"`
	Suspended    bool       `json:"suspended"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Caller returns the authorization view of the account.
func (a *Account) Caller() *authz.Caller {
	return &authz.Caller{ID: a.ID, Email: a.Email, Role: a.Role}
}
