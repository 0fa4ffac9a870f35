package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type User struct {
	ID          string    `db:"id"`
	Provider    string    `db:"provider"`
	Subject     string    `db:"subject"`
	Email       string    `db:"email"`
	DisplayName string    `db:"display_name"`
	Role        string    `db:"role"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// RoleCount is the number of users holding a role.
type RoleCount struct {
	Role  string `db:"role"`
	Count int    `db:"n"`
}

type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// Upsert creates or updates a user record on OIDC login.
// New users get RoleAdmin when email matches adminEmail, otherwise defaultRole.
// Returning users keep their stored role; only email and display name change.
func (s *UserStore) Upsert(ctx context.Context, provider, subject, email, displayName, adminEmail, defaultRole string) (*User, error) {
	now := time.Now().UTC()

	var existing User
	err := s.db.GetContext(ctx, &existing,
		s.db.Rebind(`SELECT * FROM users WHERE provider = ? AND subject = ?`), provider, subject)
	switch {
	case err == nil:
		_, err = s.db.ExecContext(ctx,
			s.db.Rebind(`UPDATE users SET email = ?, display_name = ?, updated_at = ? WHERE id = ?`),
			email, displayName, now, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		return s.GetByID(ctx, existing.ID)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	role := defaultRole
	if role == "" {
		role = RoleInfluencer
	}
	if adminEmail != "" && email == adminEmail {
		role = RoleAdmin
	}
	id := uuid.New().String()

	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO users (id, provider, subject, email, display_name, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), id, provider, subject, email, displayName, role, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID returns the user with the given id, or ErrNotFound.
func (s *UserStore) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(`SELECT * FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListAll returns all users ordered by display name.
func (s *UserStore) ListAll(ctx context.Context) ([]*User, error) {
	users := []*User{}
	err := s.db.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY display_name ASC, email ASC`)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// CountByRole returns how many users hold each role, ordered by role.
func (s *UserStore) CountByRole(ctx context.Context) ([]RoleCount, error) {
	var counts []RoleCount
	err := s.db.SelectContext(ctx, &counts, `SELECT role, COUNT(*) AS n FROM users GROUP BY role ORDER BY role`)
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// UpdateRole sets the role for the given user and returns the updated record.
// Existence is checked with GetByID; MySQL reports changed rows, not matched
// ones, so an unchanged role would otherwise look like a missing user.
func (s *UserStore) UpdateRole(ctx context.Context, id, role string) (*User, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`),
		role, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	return s.GetByID(ctx, id)
}
