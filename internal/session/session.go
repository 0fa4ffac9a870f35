// Package session resolves the signed-in user from the persisted session record.
//
// The record lives under a single key in the scs session store and holds a
// JSON-encoded user. Resolution never fails: anything missing, unreadable or
// malformed resolves to no session.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"go.uber.org/zap"
)

// RecordKey is the session key holding the serialized user record.
const RecordKey = "user"

// Role classifies a session. Unrecognized values are kept verbatim.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInfluencer Role = "influencer"
)

// Record is the persisted shape of a signed-in user.
type Record struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Session is a resolved, authenticated user.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Role   Role   `json:"role"`
}

// Resolution is the outcome of reading the persisted record.
// Stored is true when any value is present under RecordKey, even one that
// does not parse. Session is nil when there is no usable record.
type Resolution struct {
	Stored  bool
	Session *Session
}

// Authenticated reports whether a usable session was resolved.
func (r Resolution) Authenticated() bool {
	return r.Session != nil
}

// Resolver reads and writes the session record.
type Resolver struct {
	sessions *scs.SessionManager
	log      *zap.Logger
}

// NewResolver returns a Resolver over sm.
func NewResolver(sm *scs.SessionManager, log *zap.Logger) *Resolver {
	return &Resolver{sessions: sm, log: log}
}

// Manager exposes the underlying session manager for LoadAndSave wiring.
func (r *Resolver) Manager() *scs.SessionManager {
	return r.sessions
}

// Resolve reads the record from the session loaded into ctx.
func (r *Resolver) Resolve(ctx context.Context) (res Resolution) {
	defer func() {
		// scs panics when ctx carries no loaded session.
		if p := recover(); p != nil {
			r.log.Debug("session unavailable", zap.Any("panic", p))
			res = Resolution{}
		}
	}()
	return r.decode(r.sessions.Get(ctx, RecordKey))
}

// ResolveToken loads the session identified by token and resolves its record.
// It is used by long-lived requests that need state newer than request start.
func (r *Resolver) ResolveToken(ctx context.Context, token string) Resolution {
	if token == "" {
		return Resolution{}
	}
	loaded, err := r.sessions.Load(ctx, token)
	if err != nil {
		r.log.Debug("session load failed", zap.Error(err))
		return Resolution{}
	}
	return r.Resolve(loaded)
}

// Token returns the session token carried by the request cookie, if any.
func (r *Resolver) Token(req *http.Request) string {
	c, err := req.Cookie(r.sessions.Cookie.Name)
	if err != nil {
		return ""
	}
	return c.Value
}

// Put stores rec as the session record.
func (r *Resolver) Put(ctx context.Context, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	r.sessions.Put(ctx, RecordKey, string(b))
	return nil
}

func (r *Resolver) decode(v any) Resolution {
	var raw []byte
	switch val := v.(type) {
	case nil:
		return Resolution{}
	case string:
		raw = []byte(val)
	case []byte:
		raw = val
	default:
		r.log.Debug("session record has unexpected type", zap.String("type", fmt.Sprintf("%T", v)))
		return Resolution{Stored: true}
	}
	if len(raw) == 0 {
		return Resolution{}
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		r.log.Debug("malformed session record", zap.Error(err))
		return Resolution{Stored: true}
	}
	if rec.UserID == "" {
		return Resolution{Stored: true}
	}
	return Resolution{
		Stored: true,
		Session: &Session{
			UserID: rec.UserID,
			Email:  rec.Email,
			Name:   rec.Name,
			Role:   Role(rec.Role),
		},
	}
}

// NewManager creates an SCS session manager with the cookie settings shared by
// every store backend.
func NewManager(store scs.Store, lifetime time.Duration, secure bool) *scs.SessionManager {
	sm := scs.New()
	if store != nil {
		sm.Store = store
	}
	sm.Lifetime = lifetime
	sm.Cookie.Name = "desk_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = secure
	return sm
}
