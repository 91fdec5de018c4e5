package auth

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	// SpotifyAuthURL is the Spotify authorization endpoint.
	SpotifyAuthURL = "https://accounts.spotify.com/authorize"

	// SpotifyTokenURL is the Spotify token endpoint.
	SpotifyTokenURL = "https://accounts.spotify.com/api/token"

	// DefaultRedirectURI is the default callback URI for the local server.
	DefaultRedirectURI = "http://127.0.0.1:5055/callback"
)

// DefaultScopes are the Spotify scopes a loop session needs: reading devices
// and playback, driving playback, and creating the private session playlist.
var DefaultScopes = []string{
	"user-read-playback-state",
	"user-modify-playback-state",
	"playlist-modify-private",
	"playlist-read-private",
}

// Config holds the OAuth configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	// Endpoint overrides; empty means Spotify's accounts service.
	AuthURL  string
	TokenURL string

	// HTTPClient is used for token requests when set.
	HTTPClient *http.Client
}

// NewConfig creates a new OAuth configuration with defaults.
func NewConfig(clientID, clientSecret string) *Config {
	return &Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  DefaultRedirectURI,
		Scopes:       DefaultScopes,
	}
}

func (c *Config) oauth2() *oauth2.Config {
	endpoint := oauth2.Endpoint{
		AuthURL:  SpotifyAuthURL,
		TokenURL: SpotifyTokenURL,
	}
	if c.AuthURL != "" {
		endpoint.AuthURL = c.AuthURL
	}
	if c.TokenURL != "" {
		endpoint.TokenURL = c.TokenURL
	}
	// Public PKCE clients have no secret and must send client_id in the body.
	if c.ClientSecret == "" {
		endpoint.AuthStyle = oauth2.AuthStyleInParams
	} else {
		endpoint.AuthStyle = oauth2.AuthStyleInHeader
	}

	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       c.Scopes,
		Endpoint:     endpoint,
	}
}

// BuildAuthURL constructs the Spotify authorization URL with PKCE parameters.
func (c *Config) BuildAuthURL(pkce *PKCE) string {
	return c.oauth2().AuthCodeURL(pkce.State, oauth2.S256ChallengeOption(pkce.Verifier))
}

// ExchangeCode exchanges an authorization code for tokens.
func (c *Config) ExchangeCode(ctx context.Context, code, verifier string) (*Token, error) {
	tok, err := c.oauth2().Exchange(c.context(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, classifyTokenError(err)
	}
	return fromOAuth2(tok), nil
}

// Refresh uses a refresh token to get a new access token. The old refresh
// token is kept when the endpoint does not rotate it.
func (c *Config) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	src := c.oauth2().TokenSource(c.context(ctx), &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	})
	tok, err := src.Token()
	if err != nil {
		return nil, classifyTokenError(err)
	}
	out := fromOAuth2(tok)
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}
	return out, nil
}

func (c *Config) context(ctx context.Context) context.Context {
	if c.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
}
