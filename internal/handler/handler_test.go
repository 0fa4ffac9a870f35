package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joestump/campaign-desk/internal/auth"
	"github.com/joestump/campaign-desk/internal/authstate"
	"github.com/joestump/campaign-desk/internal/dataservice"
	"github.com/joestump/campaign-desk/internal/session"
	"github.com/joestump/campaign-desk/internal/store"
	"github.com/joestump/campaign-desk/internal/testutil"
)

type testEnv struct {
	router   http.Handler
	resolver *session.Resolver
	tracker  *authstate.Tracker
	hub      *authstate.MemoryHub
	users    *store.UserStore
}

// newTestEnv builds the full router over an in-memory database and session
// store. The identity provider is never initialized.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	users := store.NewUserStore(db)
	resolver := session.NewResolver(session.NewManager(nil, time.Hour, false), zap.NewNop())
	hub := authstate.NewMemoryHub()
	t.Cleanup(func() { _ = hub.Close() })
	tracker := authstate.NewTracker(hub)

	provider := auth.NewProvider(auth.ProviderConfig{Issuer: "http://127.0.0.1:0"})
	router := NewRouter(Deps{
		Resolver: resolver,
		Tracker:  tracker,
		Hub:      hub,
		AuthHandlers: auth.NewHandlers(provider, resolver, users, hub, zap.NewNop(), auth.HandlersConfig{
			DefaultRole: store.RoleInfluencer,
		}),
		AuthMiddleware: auth.NewMiddleware(resolver, users, zap.NewNop()),
		UserStore:      users,
		Users:          dataservice.NewLocal(users),
		DB:             db,
		Log:            zap.NewNop(),
	})
	return &testEnv{router: router, resolver: resolver, tracker: tracker, hub: hub, users: users}
}

func (e *testEnv) ready(t *testing.T) {
	t.Helper()
	require.NoError(t, e.tracker.MarkReady(t.Context()))
}

// seed stores value under the session record key and returns the session cookie.
func (e *testEnv) seed(t *testing.T, value any) *http.Cookie {
	t.Helper()
	sm := e.resolver.Manager()
	h := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), session.RecordKey, value)
		w.WriteHeader(http.StatusNoContent)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/seed", nil))
	for _, c := range w.Result().Cookies() {
		if c.Name == sm.Cookie.Name {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

// signIn creates a user with role and returns a session cookie for them.
func (e *testEnv) signIn(t *testing.T, subject, role string) (*store.User, *http.Cookie) {
	t.Helper()
	u, err := e.users.Upsert(t.Context(), "test", subject, subject+"@example.com", strings.ToUpper(subject), "", role)
	require.NoError(t, err)
	rec := auth.RecordFor(u)
	raw := `{"user_id":"` + rec.UserID + `","email":"` + rec.Email + `","name":"` + rec.Name + `","role":"` + rec.Role + `"}`
	return u, e.seed(t, raw)
}

func (e *testEnv) do(t *testing.T, method, target string, body url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestRedirects(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		record any // nil: no record
		want   string
	}{
		{"home without session", "/", nil, "/login"},
		{"dashboard without session", "/dashboard", nil, "/login"},
		{"home with malformed record", "/", "{not json", "/dashboard"},
		{"dashboard with malformed record", "/dashboard", "{not json", "/login"},
		{"home with empty object", "/", "{}", "/dashboard"},
		{"home with unknown user", "/", `{"user_id":"ghost","role":"admin"}`, "/dashboard"},
		{"dashboard with unknown user", "/dashboard", `{"user_id":"ghost","role":"admin"}`, "/dashboard/admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.ready(t)
			var c *http.Cookie
			if tt.record != nil {
				c = env.seed(t, tt.record)
			}

			w := env.do(t, http.MethodGet, tt.path, nil, c)

			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Location"))
		})
	}
}

func TestHome_SignedIn(t *testing.T) {
	env := newTestEnv(t)
	env.ready(t)
	_, c := env.signIn(t, "ada", store.RoleAdmin)

	w := env.do(t, http.MethodGet, "/", nil, c)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestDashboard_RoleRedirect(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{store.RoleAdmin, "/dashboard/admin"},
		{store.RoleInfluencer, "/dashboard/influencer"},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			env := newTestEnv(t)
			env.ready(t)
			_, c := env.signIn(t, "ada", tt.role)

			w := env.do(t, http.MethodGet, "/dashboard", nil, c)

			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Location"))
		})
	}
}

func TestDashboard_UnrecognizedRoleStays(t *testing.T) {
	env := newTestEnv(t)
	env.ready(t)
	_, c := env.signIn(t, "gus", "guest")

	w := env.do(t, http.MethodGet, "/dashboard", nil, c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "has no dedicated dashboard")
	assert.Contains(t, w.Body.String(), `data-watch="/dashboard"`)
}

func TestPendingRendersLoading(t *testing.T) {
	env := newTestEnv(t)
	_, c := env.signIn(t, "ada", store.RoleAdmin)

	for _, path := range []string{"/", "/dashboard"} {
		t.Run(path, func(t *testing.T) {
			w := env.do(t, http.MethodGet, path, nil, c)

			require.Equal(t, http.StatusOK, w.Code)
			body := w.Body.String()
			assert.Contains(t, body, `class="loading"`)
			assert.Contains(t, body, `data-watch="`+path+`"`)
		})
	}
}

func TestRoleDashboards(t *testing.T) {
	env := newTestEnv(t)
	env.ready(t)
	_, admin := env.signIn(t, "ada", store.RoleAdmin)
	_, infl := env.signIn(t, "ivy", store.RoleInfluencer)

	tests := []struct {
		name     string
		path     string
		cookie   *http.Cookie
		wantCode int
		wantBody string
	}{
		{"admin sees admin", "/dashboard/admin", admin, http.StatusOK, "ivy@example.com"},
		{"influencer sees influencer", "/dashboard/influencer", infl, http.StatusOK, "Welcome, IVY"},
		{"influencer forbidden on admin", "/dashboard/admin", infl, http.StatusForbidden, ""},
		{"admin forbidden on influencer", "/dashboard/influencer", admin, http.StatusForbidden, ""},
		{"anonymous to login", "/dashboard/admin", nil, http.StatusFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tt.path, nil, tt.cookie)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
			if tt.wantCode == http.StatusFound {
				assert.Equal(t, "/login", w.Header().Get("Location"))
			}
		})
	}
}

func TestUpdateRole(t *testing.T) {
	env := newTestEnv(t)
	env.ready(t)
	_, admin := env.signIn(t, "ada", store.RoleAdmin)
	ivy, _ := env.signIn(t, "ivy", store.RoleInfluencer)

	events, err := env.hub.Subscribe(t.Context(), authstate.UserTopic(ivy.ID))
	require.NoError(t, err)

	w := env.do(t, http.MethodPut, "/dashboard/admin/users/"+ivy.ID+"/role", url.Values{"role": {"admin"}}, admin)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="user-`+ivy.ID+`"`)

	select {
	case e := <-events:
		assert.Equal(t, authstate.KindSession, e.Kind)
		require.NotNil(t, e.Session)
		assert.Equal(t, session.RoleAdmin, e.Session.Role)
	case <-time.After(time.Second):
		t.Fatal("no role change event")
	}

	got, err := env.users.GetByID(t.Context(), ivy.ID)
	require.NoError(t, err)
	assert.Equal(t, store.RoleAdmin, got.Role)
}

func TestUpdateRole_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.ready(t)
	_, admin := env.signIn(t, "ada", store.RoleAdmin)
	ivy, _ := env.signIn(t, "ivy", store.RoleInfluencer)

	w := env.do(t, http.MethodPut, "/dashboard/admin/users/"+ivy.ID+"/role", url.Values{"role": {"owner"}}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/dashboard/admin/users/nope/role", url.Values{"role": {"admin"}}, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoleChangeAppliedOnNextRequest(t *testing.T) {
	env := newTestEnv(t)
	env.ready(t)
	ivy, c := env.signIn(t, "ivy", store.RoleInfluencer)

	_, err := env.users.UpdateRole(t.Context(), ivy.ID, store.RoleAdmin)
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/dashboard", nil, c)
	assert.Equal(t, "/dashboard/admin", w.Header().Get("Location"))
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/no/such/page", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page not found")

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	req.Header.Set("Accept-Language", "es-ES")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Página no encontrada")
	assert.Contains(t, rec.Body.String(), `lang="es"`)
}

func TestLoginPage(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/login", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `href="/auth/login"`)

	env.ready(t)
	w = env.do(t, http.MethodGet, "/login", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `href="/auth/login"`)
}

func TestAuthLogin_ProviderNotInitialized(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/auth/login", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAPIUsers_LocalDataService(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t, "ada", store.RoleAdmin)

	w := env.do(t, http.MethodGet, "/api/users", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"email":"ada@example.com"`)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok\n", w.Body.String())
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/static/js/app.js", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "EventSource")
}

func TestSetTheme(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/theme", url.Values{"theme": {"desk-dark"}})
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.JSONEq(t, `{"themeChanged":{"theme":"desk-dark"}}`, w.Header().Get("HX-Trigger"))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "theme", cookies[0].Name)
	assert.Equal(t, "desk-dark", cookies[0].Value)
	assert.Equal(t, 365*24*60*60, cookies[0].MaxAge)
	assert.False(t, cookies[0].HttpOnly)

	w = env.do(t, http.MethodPost, "/theme", url.Values{"theme": {"neon"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestThemeCookieRendered(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/login", nil, &http.Cookie{Name: "theme", Value: "desk-dark"})
	assert.Contains(t, w.Body.String(), `data-theme="desk-dark"`)

	w = env.do(t, http.MethodGet, "/login", nil, &http.Cookie{Name: "theme", Value: "bogus"})
	assert.NotContains(t, w.Body.String(), `data-theme=`)
}
