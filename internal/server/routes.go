package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	lerrors "github.com/siva673/loop-agent/internal/errors"
	"github.com/siva673/loop-agent/internal/loop"
	"github.com/siva673/loop-agent/internal/spotify/auth"
)

const maxBodyBytes = 64 << 10

// errorBody is the JSON shape of every failed API call.
type errorBody struct {
	Error      string `json:"error"`
	Kind       string `json:"kind"`
	Suggestion string `json:"suggestion,omitempty"`
}

// handle adapts an error-returning handler, mapping classified errors to
// their status codes.
func (s *Server) handle(fn func(w http.ResponseWriter, r *http.Request) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		kind := lerrors.KindOf(err)
		status := kind.Category().HTTPStatus()
		if status >= http.StatusInternalServerError {
			s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Stringer("kind", kind), zap.Error(err))
		} else {
			s.logger.Info("request rejected", zap.String("path", r.URL.Path), zap.Stringer("kind", kind), zap.Error(err))
		}
		writeJSON(w, status, errorBody{
			Error:      err.Error(),
			Kind:       kind.String(),
			Suggestion: lerrors.GetSuggestion(err),
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, text)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "Loop Agent is running. Visit /login once to authorize, then POST /play.\n")
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "ok\n")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	pkce, err := auth.NewPKCE()
	if err != nil {
		s.logger.Error("generate pkce", zap.Error(err))
		writeText(w, http.StatusInternalServerError, "Could not start authorization.\n")
		return
	}
	s.logins.Put(pkce)
	http.Redirect(w, r, s.deps.Authorizer.BuildAuthURL(pkce), http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		writeText(w, http.StatusBadRequest, fmt.Sprintf("Authorization failed: %s\n", e))
		return
	}

	code := q.Get("code")
	if code == "" {
		writeText(w, http.StatusBadRequest, "Missing ?code= in callback.\n")
		return
	}

	verifier, ok := s.logins.Take(q.Get("state"))
	if !ok {
		writeText(w, http.StatusBadRequest, "Unknown or expired login state. Visit /login again.\n")
		return
	}

	token, err := s.deps.Authorizer.ExchangeCode(r.Context(), code, verifier)
	if err != nil {
		s.logger.Warn("code exchange failed", zap.Error(err))
		writeText(w, lerrors.CategoryOf(err).HTTPStatus(), "Authorization failed. Visit /login to try again.\n")
		return
	}
	if err := s.deps.Tokens.SetToken(token); err != nil {
		s.logger.Error("store token", zap.Error(err))
		writeText(w, http.StatusInternalServerError, "Could not store the Spotify token.\n")
		return
	}

	s.logger.Info("spotify authorized")
	writeText(w, http.StatusOK, "Spotify authorization complete. You can now use /play.\n")
}

type playRequest struct {
	Command string `json:"command"`
}

type playResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
	*loop.Result
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) error {
	var req playRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return lerrors.Wrap(lerrors.KindParse, "invalid JSON body", err)
	}
	if strings.TrimSpace(req.Command) == "" {
		return lerrors.New(lerrors.KindParse, "missing 'command'")
	}

	result, err := s.deps.Player.HandlePlay(r.Context(), req.Command)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, playResponse{
		Status: "playing",
		Count:  len(result.Tracks),
		Result: result,
	})
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) error {
	state, err := s.deps.Player.Status(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"playback": state})
	return nil
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) error {
	devices, err := s.deps.Player.Devices(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices})
	return nil
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": s.deps.Sessions.Pending()})
	return nil
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) error {
	deviceID := chi.URLParam(r, "deviceID")
	if !s.deps.Sessions.Cancel(deviceID) {
		return lerrors.Newf(lerrors.KindNotFound, "no pending stop for device %q", deviceID)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
