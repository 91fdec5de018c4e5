package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	lerrors "github.com/siva673/loop-agent/internal/errors"
)

func listenTest(t *testing.T, state string) *LoopbackCallback {
	t.Helper()
	cb, err := ListenCallback("http://127.0.0.1:0/callback", state)
	if err != nil {
		t.Fatalf("ListenCallback() error = %v", err)
	}
	t.Cleanup(func() { _ = cb.Close(context.Background()) })
	return cb
}

func redirect(t *testing.T, url string) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("callback request: %v", err)
	}
	_ = resp.Body.Close()
	return resp.StatusCode
}

func waitShort(cb *LoopbackCallback) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return cb.Wait(ctx)
}

func TestLoopbackCallbackCode(t *testing.T) {
	cb := listenTest(t, "s1")

	if status := redirect(t, cb.URL()+"?code=test_code&state=s1"); status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}

	code, err := waitShort(cb)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if code != "test_code" {
		t.Errorf("code = %q, want %q", code, "test_code")
	}
}

func TestLoopbackCallbackDenied(t *testing.T) {
	cb := listenTest(t, "s1")

	if status := redirect(t, cb.URL()+"?error=access_denied&state=s1"); status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}

	_, err := waitShort(cb)
	if !lerrors.Is(err, lerrors.KindAuth) {
		t.Errorf("Wait() error = %v, want an auth error", err)
	}
}

func TestLoopbackCallbackIgnoresForeignState(t *testing.T) {
	cb := listenTest(t, "s1")

	if status := redirect(t, cb.URL()+"?code=evil&state=other"); status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	redirect(t, cb.URL()+"?code=good&state=s1")

	code, err := waitShort(cb)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if code != "good" {
		t.Errorf("code = %q, want %q", code, "good")
	}
}

func TestLoopbackCallbackTimeout(t *testing.T) {
	cb := listenTest(t, "s1")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := cb.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Wait() error = %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestListenCallbackRejects(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{"public host", "https://agent.example.com:443/callback"},
		{"no port", "http://127.0.0.1/callback"},
		{"garbage", "://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if cb, err := ListenCallback(tt.uri, "s"); err == nil {
				_ = cb.Close(context.Background())
				t.Errorf("ListenCallback(%q) should fail", tt.uri)
			}
		})
	}
}
