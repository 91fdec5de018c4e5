package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siva673/loop-agent/internal/core"
	lerrors "github.com/siva673/loop-agent/internal/errors"
	"github.com/siva673/loop-agent/internal/loop"
	"github.com/siva673/loop-agent/internal/scheduler"
	"github.com/siva673/loop-agent/internal/spotify/auth"
)

type fakePlayer struct {
	result  *loop.Result
	err     error
	command string
	devices []core.Device
}

func (f *fakePlayer) HandlePlay(ctx context.Context, raw string) (*loop.Result, error) {
	f.command = raw
	return f.result, f.err
}

func (f *fakePlayer) Devices(ctx context.Context) ([]core.Device, error) {
	return f.devices, f.err
}

func (f *fakePlayer) Status(ctx context.Context) (*core.PlaybackState, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &core.PlaybackState{IsPlaying: true, Repeat: core.RepeatContext}, nil
}

type fakeSessions struct {
	pending   []scheduler.Pending
	cancelled []string
}

func (f *fakeSessions) Pending() []scheduler.Pending { return f.pending }

func (f *fakeSessions) Cancel(deviceID string) bool {
	for _, p := range f.pending {
		if p.DeviceID == deviceID {
			f.cancelled = append(f.cancelled, deviceID)
			return true
		}
	}
	return false
}

type fakeAuthorizer struct {
	code     string
	verifier string
	err      error
}

func (f *fakeAuthorizer) BuildAuthURL(pkce *auth.PKCE) string {
	return "https://accounts.example/authorize?state=" + url.QueryEscape(pkce.State)
}

func (f *fakeAuthorizer) ExchangeCode(ctx context.Context, code, verifier string) (*auth.Token, error) {
	f.code, f.verifier = code, verifier
	if f.err != nil {
		return nil, f.err
	}
	return &auth.Token{AccessToken: "a", RefreshToken: "r"}, nil
}

type fakeTokens struct {
	token *auth.Token
}

func (f *fakeTokens) SetToken(token *auth.Token) error {
	f.token = token
	return nil
}

type fixture struct {
	player   *fakePlayer
	sessions *fakeSessions
	authz    *fakeAuthorizer
	tokens   *fakeTokens
	handler  http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		player:   &fakePlayer{},
		sessions: &fakeSessions{},
		authz:    &fakeAuthorizer{},
		tokens:   &fakeTokens{},
	}
	f.handler = New(Deps{
		Player:     f.player,
		Sessions:   f.sessions,
		Authorizer: f.authz,
		Tokens:     f.tokens,
	}, zap.NewNop()).Handler()
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRootAndPing(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/login")

	rec = f.do(http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestPlay(t *testing.T) {
	f := newFixture()
	stopAt := time.Date(2026, 10, 16, 18, 20, 0, 0, time.UTC)
	f.player.result = &loop.Result{
		SessionID: "s1",
		Tracks:    []string{"Song A", "Song B"},
		Device:    core.Device{ID: "d1", Name: "iPhone"},
		StopAt:    stopAt,
	}

	rec := f.do(http.MethodPost, "/play", `{"command":"play \"Song A\" \"Song B\" in loop till 20 minutes on iPhone"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Status    string      `json:"status"`
		Count     int         `json:"count"`
		SessionID string      `json:"session_id"`
		Device    core.Device `json:"device"`
		StopAt    time.Time   `json:"stop_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "playing", body.Status)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "s1", body.SessionID)
	assert.Equal(t, "iPhone", body.Device.Name)
	assert.True(t, stopAt.Equal(body.StopAt))
	assert.Equal(t, `play "Song A" "Song B" in loop till 20 minutes on iPhone`, f.player.command)
}

func TestPlayMissingCommand(t *testing.T) {
	for _, body := range []string{"", "{}", `{"command":"  "}`} {
		f := newFixture()
		rec := f.do(http.MethodPost, "/play", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		assert.Equal(t, "parse", decodeError(t, rec).Kind)
		assert.Empty(t, f.player.command)
	}
}

func TestPlayInvalidJSON(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/play", `{"command":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlayErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"parse", lerrors.New(lerrors.KindParse, "titles must be quoted"), http.StatusBadRequest, "parse"},
		{"auth", lerrors.Wrap(lerrors.KindAuth, "token", lerrors.ErrNotAuthenticated), http.StatusUnauthorized, "auth"},
		{"not found", lerrors.New(lerrors.KindNotFound, "no tracks"), http.StatusNotFound, "not_found"},
		{"no device", lerrors.Wrap(lerrors.KindNoActiveDevice, "select", lerrors.ErrNoActiveDevice), http.StatusConflict, "no_active_device"},
		{"device missing", lerrors.New(lerrors.KindDeviceNotFound, "Car"), http.StatusConflict, "device_not_found"},
		{"upstream", lerrors.New(lerrors.KindUpstream, "status 500"), http.StatusInternalServerError, "upstream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.player.err = tt.err

			rec := f.do(http.MethodPost, "/play", `{"command":"play \"A\" in loop till 5 minutes"}`)
			assert.Equal(t, tt.status, rec.Code)

			body := decodeError(t, rec)
			assert.Equal(t, tt.kind, body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestNoActiveDeviceSuggestion(t *testing.T) {
	f := newFixture()
	f.player.err = lerrors.Wrap(lerrors.KindNoActiveDevice, "select", lerrors.ErrNoActiveDevice)

	rec := f.do(http.MethodPost, "/play", `{"command":"play \"A\" in loop till 5 minutes"}`)
	assert.Contains(t, decodeError(t, rec).Suggestion, "Open Spotify")
}

func TestStatusAndDevices(t *testing.T) {
	f := newFixture()
	f.player.devices = []core.Device{{ID: "d1", Name: "iPhone", IsActive: true}}

	rec := f.do(http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"repeat":"context"`)

	rec = f.do(http.MethodGet, "/devices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Devices []core.Device `json:"devices"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, f.player.devices, body.Devices)
}

func TestStatusUnauthorized(t *testing.T) {
	f := newFixture()
	f.player.err = lerrors.Wrap(lerrors.KindAuth, "token", lerrors.ErrNotAuthenticated)

	rec := f.do(http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, decodeError(t, rec).Suggestion, "/login")
}

func TestSessions(t *testing.T) {
	f := newFixture()
	f.sessions.pending = []scheduler.Pending{{SessionID: "s1", DeviceID: "d1", DeviceName: "iPhone"}}

	rec := f.do(http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"session_id":"s1"`)

	rec = f.do(http.MethodDelete, "/sessions/d1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"d1"}, f.sessions.cancelled)

	rec = f.do(http.MethodDelete, "/sessions/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoginCallback(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/login", "")
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	rec = f.do(http.MethodGet, "/callback?code=abc&state="+url.QueryEscape(state), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "abc", f.authz.code)
	assert.NotEmpty(t, f.authz.verifier)
	require.NotNil(t, f.tokens.token)
	assert.Equal(t, "a", f.tokens.token.AccessToken)

	// States are single use.
	rec = f.do(http.MethodGet, "/callback?code=abc&state="+url.QueryEscape(state), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackErrors(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/callback", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing ?code=")

	rec = f.do(http.MethodGet, "/callback?error=access_denied", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/callback?code=abc&state=forged", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.authz.code, "no exchange for an unknown state")
}

func TestCallbackExchangeFailure(t *testing.T) {
	f := newFixture()
	f.authz.err = lerrors.Wrap(lerrors.KindAuth, "token error: invalid_grant", lerrors.ErrNotAuthenticated)

	rec := f.do(http.MethodGet, "/login", "")
	loc, _ := url.Parse(rec.Header().Get("Location"))

	rec = f.do(http.MethodGet, "/callback?code=abc&state="+url.QueryEscape(loc.Query().Get("state")), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, f.tokens.token)
}

func TestRecoversFromPanic(t *testing.T) {
	f := newFixture()
	f.handler = New(Deps{Player: nil, Sessions: f.sessions}, zap.NewNop()).Handler()

	rec := f.do(http.MethodGet, "/devices", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
