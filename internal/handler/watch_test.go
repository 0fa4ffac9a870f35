package handler

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joestump/campaign-desk/internal/authstate"
	"github.com/joestump/campaign-desk/internal/session"
	"github.com/joestump/campaign-desk/internal/store"
)

type stream struct {
	resp *http.Response
	sc   *bufio.Scanner
}

// openWatch opens the watch stream and waits until the server has subscribed.
func openWatch(t *testing.T, srv *httptest.Server, page string, c *http.Cookie) *stream {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+"/auth/watch?page="+page, nil)
	require.NoError(t, err)
	if c != nil {
		req.AddCookie(c)
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	s := &stream{resp: resp, sc: bufio.NewScanner(resp.Body)}
	for s.sc.Scan() {
		if s.sc.Text() == ": watching" {
			return s
		}
	}
	t.Fatalf("stream closed before subscribing: %v", s.sc.Err())
	return nil
}

// next returns the data of the next navigate event, or "" if the stream ends first.
func (s *stream) next(t *testing.T) string {
	t.Helper()
	sawEvent := false
	for s.sc.Scan() {
		line := s.sc.Text()
		switch {
		case line == "event: navigate":
			sawEvent = true
		case sawEvent && strings.HasPrefix(line, "data: "):
			return strings.TrimPrefix(line, "data: ")
		}
	}
	return ""
}

func TestWatch_ImmediateDecision(t *testing.T) {
	env := newTestEnv(t)
	env.ready(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	s := openWatch(t, srv, "/", nil)
	assert.Equal(t, "/login", s.next(t))
}

func TestWatch_LateReady(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)
	_, c := env.signIn(t, "ivy", store.RoleInfluencer)

	s := openWatch(t, srv, "/dashboard", c)
	env.ready(t)

	assert.Equal(t, "/dashboard/influencer", s.next(t))
	// One navigation, then the stream ends.
	assert.Equal(t, "", s.next(t))
}

func TestWatch_RoleChangeOnOpenDashboard(t *testing.T) {
	env := newTestEnv(t)
	env.ready(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)
	u, c := env.signIn(t, "gus", "guest")

	s := openWatch(t, srv, "/dashboard", c)
	require.NoError(t, env.hub.Publish(t.Context(), authstate.UserTopic(u.ID), authstate.Event{
		Kind:    authstate.KindSession,
		Session: &session.Session{UserID: u.ID, Role: session.RoleAdmin},
	}))

	assert.Equal(t, "/dashboard/admin", s.next(t))
}

func TestWatch_LogoutOfSameSession(t *testing.T) {
	env := newTestEnv(t)
	env.ready(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)
	_, c := env.signIn(t, "gus", "guest")

	s := openWatch(t, srv, "/dashboard", c)
	w := env.do(t, http.MethodPost, "/auth/logout", nil, c)
	require.Equal(t, http.StatusFound, w.Code)

	assert.Equal(t, "/login", s.next(t))
}

func TestWatch_SignOutOfOtherSessionKeepsStream(t *testing.T) {
	env := newTestEnv(t)
	env.ready(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)
	u, c := env.signIn(t, "gus", "guest")
	other, otherCookie := env.signIn(t, "gus", "guest")
	require.Equal(t, u.ID, other.ID)

	s := openWatch(t, srv, "/dashboard", c)
	w := env.do(t, http.MethodPost, "/auth/logout", nil, otherCookie)
	require.Equal(t, http.StatusFound, w.Code)
	require.NoError(t, env.hub.Publish(t.Context(), authstate.UserTopic(u.ID), authstate.Event{
		Kind:    authstate.KindSession,
		Session: &session.Session{UserID: u.ID, Role: session.RoleAdmin},
	}))

	assert.Equal(t, "/dashboard/admin", s.next(t))
}

func TestWatch_UnknownPage(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/auth/watch?page=/elsewhere", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
