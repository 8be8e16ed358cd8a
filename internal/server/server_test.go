package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdays-network/bdays/internal/config"
	"github.com/bdays-network/bdays/internal/directory"
	"github.com/bdays-network/bdays/internal/infra"
	"github.com/bdays-network/bdays/internal/logging"
	"github.com/bdays-network/bdays/internal/middleware"
)

const (
	testBrowser = "3c9a1e52-7d4b-4f1e-a6c0-51b2d8e7f904"
	janeJSON    = `[{"id":42,"name":"Jane Doe","email":"jane@x.com","points":0,"friends":[]}]`
)

type fakeRemote struct {
	srv      *httptest.Server
	addCalls atomic.Int32
	lastAdd  atomic.Value
}

func newFakeRemote(t *testing.T) *fakeRemote {
	t.Helper()
	f := &fakeRemote{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/write":
			_, _ = io.WriteString(w, `{"message":"OK"}`)
		case "/by-email", "/read":
			_, _ = io.WriteString(w, janeJSON)
		case "/by-name":
			_, _ = io.WriteString(w, `[{"id":7,"name":"Bo","email":"bo@x.com","points":120}]`)
		case "/add":
			f.addCalls.Add(1)
			f.lastAdd.Store(r.URL.RawQuery)
			_, _ = io.WriteString(w, `true`)
		case "/leaderboard":
			_, _ = io.WriteString(w, `[{"id":1,"name":"A","points":5},{"id":2,"name":"B","points":90}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeRemote) endpoints() directory.Endpoints {
	return directory.Endpoints{
		WriteUser:       f.srv.URL + "/write",
		ReadUser:        f.srv.URL + "/read",
		ReadByName:      f.srv.URL + "/by-name",
		ReadUserByEmail: f.srv.URL + "/by-email",
		AddFriends:      f.srv.URL + "/add",
		GetLeaderboard:  f.srv.URL + "/leaderboard",
	}
}

func newTestServer(t *testing.T, remote *fakeRemote) *Server {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.Config{
		AppName:        "bdays-test",
		AppEnv:         "test",
		SessionBackend: config.BackendMemory,
		RedisURL:       "redis://" + mr.Addr(),
		IdempotencyTTL: time.Minute,
		LoginAttempts:  5,
		Directory: config.DirectoryConfig{
			Endpoints:    remote.endpoints(),
			FriendParams: directory.DefaultFriendParams,
			WriteMethod:  http.MethodPost,
		},
	}
	logger := logging.Discard()
	backends, err := infra.Open(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backends.Close() })

	srv, err := New(cfg, backends, logger)
	require.NoError(t, err)
	return srv
}

func send(t *testing.T, srv *Server, method, path, body string, headers map[string]string) (int, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: testBrowser})

	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, newFakeRemote(t))

	status, body := send(t, srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"session_store":"ok"`)
	assert.Contains(t, body, `"redis":"ok"`)
}

func TestRegisterSearchConnectFlow(t *testing.T) {
	remote := newFakeRemote(t)
	srv := newTestServer(t, remote)

	status, body := send(t, srv, http.MethodPost, "/api/register", `{"name":"Jane Doe","email":"jane@x.com"}`, nil)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Contains(t, body, `"id":"42"`)

	status, body = send(t, srv, http.MethodGet, "/api/users/search?q=bo", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"is_friend":false`)

	headers := map[string]string{middleware.IdempotencyKeyHeader: "connect-bo-1"}
	friend := `{"id":"7","name":"Bo","email":"bo@x.com"}`
	status, first := send(t, srv, http.MethodPost, "/api/connect", friend, headers)
	require.Equal(t, http.StatusOK, status, first)
	status, replay := send(t, srv, http.MethodPost, "/api/connect", friend, headers)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, first, replay)
	assert.EqualValues(t, 1, remote.addCalls.Load())
	assert.Equal(t, "id1=42&id2=7", remote.lastAdd.Load())

	status, body = send(t, srv, http.MethodGet, "/api/me", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"points":50`)

	status, body = send(t, srv, http.MethodPost, "/api/connect", friend, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body, `"error"`)
}

func TestLeaderboardThroughServer(t *testing.T) {
	srv := newTestServer(t, newFakeRemote(t))

	status, body := send(t, srv, http.MethodGet, "/api/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Less(t, strings.Index(body, `"name":"B"`), strings.Index(body, `"name":"A"`))
}

func TestProxyMounted(t *testing.T) {
	srv := newTestServer(t, newFakeRemote(t))

	status, body := send(t, srv, http.MethodGet, "/api/proxy/bdays-read-user-by-email?email=jane@x.com", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, janeJSON, body)

	status, _ = send(t, srv, http.MethodDelete, "/api/proxy/bdays-write-user", `{}`, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)

	status, body = send(t, srv, http.MethodGet, "/api/proxy/bdays-delete-user", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"error":"Invalid endpoint"}`, body)
}
