package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoActiveDevice   = errors.New("no active device")
	ErrDeviceNotFound   = errors.New("device not found")
	ErrDeviceNotReady   = errors.New("device not ready")
	ErrTrackNotFound    = errors.New("track not found")
	ErrEmptySession     = errors.New("no tracks to play")
	ErrPremiumRequired  = errors.New("spotify premium required")
	ErrRateLimited      = errors.New("rate limited")
	ErrConfigNotFound   = errors.New("config file not found")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// Kind classifies a failure of the play pipeline.
type Kind int

const (
	KindInternal Kind = iota
	KindParse
	KindDeviceNotFound
	KindNoActiveDevice
	KindNotFound
	KindEmptySession
	KindPartialBuild
	KindAuth
	KindUpstream
)

var kindNames = map[Kind]string{
	KindInternal:       "internal",
	KindParse:          "parse",
	KindDeviceNotFound: "device_not_found",
	KindNoActiveDevice: "no_active_device",
	KindNotFound:       "not_found",
	KindEmptySession:   "empty_session",
	KindPartialBuild:   "partial_build",
	KindAuth:           "auth",
	KindUpstream:       "upstream",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Category is the coarse status class the HTTP layer maps to a status code.
type Category string

const (
	CategoryBadRequest   Category = "bad-request"
	CategoryUnauthorized Category = "unauthorized"
	CategoryNotFound     Category = "not-found"
	CategoryConflict     Category = "conflict"
	CategoryServerError  Category = "server-error"
)

// Category returns the status category for the kind.
func (k Kind) Category() Category {
	switch k {
	case KindParse:
		return CategoryBadRequest
	case KindDeviceNotFound, KindNoActiveDevice:
		return CategoryConflict
	case KindNotFound, KindEmptySession:
		return CategoryNotFound
	case KindAuth:
		return CategoryUnauthorized
	default:
		return CategoryServerError
	}
}

// HTTPStatus returns the status code for the category.
func (c Category) HTTPStatus() int {
	switch c {
	case CategoryBadRequest:
		return http.StatusBadRequest
	case CategoryUnauthorized:
		return http.StatusUnauthorized
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure with a user-facing message.
type Error struct {
	Kind       Kind
	Msg        string
	Err        error
	Suggestion string
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg != "" {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind. A nil err returns nil.
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	var e *Error
	if errors.As(err, &e) {
		cp := *e
		cp.Suggestion = suggestion
		return &cp
	}
	return &Error{Kind: KindOf(err), Err: err, Suggestion: suggestion}
}

// KindOf returns the kind of the first classified error in err's chain.
// Unclassified errors are matched against the sentinels, else KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var pb *PartialBuildError
	if errors.As(err, &pb) {
		return KindPartialBuild
	}
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return KindAuth
	case errors.Is(err, ErrNoActiveDevice):
		return KindNoActiveDevice
	case errors.Is(err, ErrDeviceNotFound):
		return KindDeviceNotFound
	case errors.Is(err, ErrTrackNotFound):
		return KindNotFound
	case errors.Is(err, ErrEmptySession):
		return KindEmptySession
	case errors.Is(err, ErrDeviceNotReady), errors.Is(err, ErrRateLimited), errors.Is(err, ErrPremiumRequired):
		return KindUpstream
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// CategoryOf returns the status category for err.
func CategoryOf(err error) Category {
	return KindOf(err).Category()
}

// PartialBuildError reports that some tracks could not be added to the
// playback source. It is informational: the session still plays.
type PartialBuildError struct {
	Added  int
	Failed int
	Errs   []error
}

func (e *PartialBuildError) Error() string {
	return fmt.Sprintf("added %d of %d tracks to the session", e.Added, e.Added+e.Failed)
}

func (e *PartialBuildError) Unwrap() []error {
	return e.Errs
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) && e.Suggestion != "" {
		return e.Suggestion
	}

	switch KindOf(err) {
	case KindParse:
		return `Use quotes: play "Song A" "Song B" in loop till 10 minutes [on iPhone]`
	case KindAuth:
		return "Visit /login (or run 'loop-agent auth login') to authorize with Spotify"
	case KindNoActiveDevice:
		return "Open Spotify on your phone or computer and start playing, then try again"
	case KindDeviceNotFound:
		return "Run 'loop-agent devices' to see available devices"
	case KindNotFound:
		return `Try "Title" - Artist to narrow the search`
	case KindPartialBuild:
		return "Some tracks were skipped; the loop plays the rest"
	}

	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) {
		return "Check ~/.loop-agentrc or the LOOP_AGENT_* environment variables"
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrPremiumRequired) || strings.Contains(errStr, "premium required") ||
		strings.Contains(errStr, "restricted device") {
		return "This feature requires Spotify Premium"
	}

	if errors.Is(err, ErrRateLimited) || strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") {
		return "Too many requests. Wait a moment and try again"
	}

	if strings.Contains(errStr, "network") || strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") {
		return "Check your internet connection and try again"
	}

	if strings.Contains(errStr, "500") || strings.Contains(errStr, "server error") {
		return "Spotify is having issues. Try again in a moment"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}
