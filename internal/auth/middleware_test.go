package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joestump/campaign-desk/internal/auth"
	"github.com/joestump/campaign-desk/internal/session"
	"github.com/joestump/campaign-desk/internal/store"
)

type fakeUsers struct {
	users map[string]*store.User
	err   error
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*store.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) ListAll(context.Context) ([]*store.User, error) {
	out := make([]*store.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

// runWithRecord serves one request through LoadAndSave with rec stored in the
// session before mw runs, and returns the session the final handler sees.
func runWithRecord(t *testing.T, rec *session.Record, mw func(http.Handler) http.Handler, resolver *session.Resolver) (*httptest.ResponseRecorder, *session.Session) {
	t.Helper()
	var seen *session.Session
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = resolver.Resolve(r.Context()).Session
		_ = json.NewEncoder(w).Encode(seen)
	})
	h := resolver.Manager().LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rec != nil {
			require.NoError(t, resolver.Put(r.Context(), *rec))
		}
		mw(final).ServeHTTP(w, r)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/admin", nil))
	return w, seen
}

func newResolver() *session.Resolver {
	return session.NewResolver(session.NewManager(nil, time.Hour, false), zap.NewNop())
}

func TestRefresh_AppliesRoleChange(t *testing.T) {
	resolver := newResolver()
	users := &fakeUsers{users: map[string]*store.User{
		"u1": {ID: "u1", Email: "a@example.com", DisplayName: "Ada", Role: store.RoleAdmin},
	}}
	m := auth.NewMiddleware(resolver, users, zap.NewNop())

	_, seen := runWithRecord(t, &session.Record{UserID: "u1", Email: "a@example.com", Name: "Ada", Role: "influencer"}, m.Refresh, resolver)

	require.NotNil(t, seen)
	assert.Equal(t, session.RoleAdmin, seen.Role)
	assert.Equal(t, "Ada", seen.Name)
}

func TestRefresh_UnknownUserKeepsRecord(t *testing.T) {
	resolver := newResolver()
	m := auth.NewMiddleware(resolver, &fakeUsers{users: map[string]*store.User{}}, zap.NewNop())

	_, seen := runWithRecord(t, &session.Record{UserID: "gone", Role: "admin"}, m.Refresh, resolver)

	require.NotNil(t, seen)
	assert.Equal(t, "gone", seen.UserID)
	assert.Equal(t, session.RoleAdmin, seen.Role)
}

func TestRefresh_LookupErrorKeepsRecord(t *testing.T) {
	resolver := newResolver()
	m := auth.NewMiddleware(resolver, &fakeUsers{err: errors.New("db down")}, zap.NewNop())

	_, seen := runWithRecord(t, &session.Record{UserID: "u1", Role: "influencer"}, m.Refresh, resolver)

	require.NotNil(t, seen)
	assert.Equal(t, session.RoleInfluencer, seen.Role)
}

func TestRefresh_NoSession(t *testing.T) {
	resolver := newResolver()
	m := auth.NewMiddleware(resolver, &fakeUsers{}, zap.NewNop())

	w, seen := runWithRecord(t, nil, m.Refresh, resolver)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, seen)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		rec      *session.Record
		wantCode int
		wantLoc  string
	}{
		{"no session", nil, http.StatusFound, "/login"},
		{"wrong role", &session.Record{UserID: "u1", Role: "influencer"}, http.StatusForbidden, ""},
		{"unrecognized role", &session.Record{UserID: "u1", Role: "guest"}, http.StatusForbidden, ""},
		{"admin", &session.Record{UserID: "u1", Role: "admin"}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := newResolver()
			m := auth.NewMiddleware(resolver, &fakeUsers{}, zap.NewNop())

			w, _ := runWithRecord(t, tt.rec, m.RequireRole(session.RoleAdmin), resolver)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantLoc, w.Header().Get("Location"))
		})
	}
}
