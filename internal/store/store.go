// Package store provides database access for campaign-desk user records.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Roles a user record may carry. Any other value is kept verbatim and treated
// as an unrecognized role by the dashboard.
const (
	RoleAdmin      = "admin"
	RoleInfluencer = "influencer"
	RoleOther      = "other"
)

// ValidRole reports whether role may be assigned through the admin UI.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleInfluencer, RoleOther:
		return true
	}
	return false
}

// UserReader is the read side of the user store used by the auth middleware
// and the local data service.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*User, error)
	ListAll(ctx context.Context) ([]*User, error)
}
