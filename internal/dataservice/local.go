package dataservice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/joestump/campaign-desk/internal/store"
)

// User is the JSON shape served by Local.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Local serves users from the application database when no remote data
// service is configured.
type Local struct {
	users store.UserReader
}

// NewLocal returns a Local reading from users.
func NewLocal(users store.UserReader) *Local {
	return &Local{users: users}
}

func (l *Local) ListUsers(ctx context.Context) (json.RawMessage, error) {
	all, err := l.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]User, 0, len(all))
	for _, u := range all {
		out = append(out, User{
			ID:          u.ID,
			Email:       u.Email,
			DisplayName: u.DisplayName,
			Role:        u.Role,
			CreatedAt:   u.CreatedAt,
		})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return b, nil
}
