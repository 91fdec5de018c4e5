package auth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"net/url"
	"time"

	lerrors "github.com/siva673/loop-agent/internal/errors"
)

// LoopbackCallback receives the consent redirect of a CLI login on the
// host, port and path of the redirect URI. Only the first redirect
// carrying the expected state is accepted.
type LoopbackCallback struct {
	server   *http.Server
	listener net.Listener
	path     string
	state    string
	codes    chan callbackResult
}

type callbackResult struct {
	code string
	err  error
}

// ListenCallback binds the loopback address named by redirectURI and
// waits for a redirect carrying state. A port of 0 picks a free port.
func ListenCallback(redirectURI, state string) (*LoopbackCallback, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect_uri: %w", err)
	}
	host := u.Hostname()
	if host != "127.0.0.1" && host != "localhost" && host != "::1" {
		return nil, fmt.Errorf("redirect_uri %s is not a loopback address; log in through the server's /login instead", redirectURI)
	}
	if u.Port() == "" {
		return nil, fmt.Errorf("redirect_uri %s has no port", redirectURI)
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(host, u.Port()))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", u.Host, err)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	cb := &LoopbackCallback{
		listener: listener,
		path:     path,
		state:    state,
		codes:    make(chan callbackResult, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, cb.handle)
	cb.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() { _ = cb.server.Serve(listener) }()

	return cb, nil
}

// URL returns the redirect URI as actually bound.
func (cb *LoopbackCallback) URL() string {
	return "http://" + cb.listener.Addr().String() + cb.path
}

// Wait blocks until an authorization code arrives, consent is denied, or
// ctx is done.
func (cb *LoopbackCallback) Wait(ctx context.Context) (string, error) {
	select {
	case res := <-cb.codes:
		return res.code, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops the listener.
func (cb *LoopbackCallback) Close(ctx context.Context) error {
	err := cb.server.Shutdown(ctx)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (cb *LoopbackCallback) handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// Stray or forged redirects are refused without ending the wait.
	if q.Get("state") != cb.state {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, failurePage, "unexpected login state")
		return
	}

	var res callbackResult
	status := http.StatusOK
	switch {
	case q.Get("error") != "":
		res.err = lerrors.Newf(lerrors.KindAuth, "authorization denied: %s", q.Get("error"))
		status = http.StatusBadRequest
	case q.Get("code") == "":
		res.err = lerrors.New(lerrors.KindAuth, "redirect carried no authorization code")
		status = http.StatusBadRequest
	default:
		res.code = q.Get("code")
	}

	select {
	case cb.codes <- res:
	default:
	}

	w.WriteHeader(status)
	if res.err != nil {
		fmt.Fprintf(w, failurePage, html.EscapeString(res.err.Error()))
		return
	}
	fmt.Fprint(w, successPage)
}

const successPage = `<!DOCTYPE html>
<html>
<head><title>Loop Agent</title></head>
<body>
<h1>Spotify is connected</h1>
<p>Return to the terminal; this tab can be closed.</p>
</body>
</html>`

const failurePage = `<!DOCTYPE html>
<html>
<head><title>Loop Agent</title></head>
<body>
<h1>Spotify was not connected</h1>
<p>%s</p>
</body>
</html>`
