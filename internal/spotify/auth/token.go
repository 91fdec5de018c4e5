package auth

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	lerrors "github.com/siva673/loop-agent/internal/errors"
)

// Token represents Spotify OAuth tokens.
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	Scope        string    `json:"scope"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsExpired returns true if the token has expired or will expire within the buffer.
func (t *Token) IsExpired() bool {
	// Consider token expired 60 seconds before actual expiry
	return time.Now().Add(60 * time.Second).After(t.ExpiresAt)
}

// CanRefresh returns true if the token carries a refresh token.
func (t *Token) CanRefresh() bool {
	return t != nil && t.RefreshToken != ""
}

func fromOAuth2(tok *oauth2.Token) *Token {
	out := &Token{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		out.Scope = scope
	}
	if !tok.Expiry.IsZero() {
		out.ExpiresIn = int(time.Until(tok.Expiry).Round(time.Second).Seconds())
	}
	return out
}

// classifyTokenError marks grant failures as authorization errors so callers
// are told to log in again; transport failures stay upstream errors.
func classifyTokenError(err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		if rerr.ErrorCode != "" {
			return lerrors.Wrap(lerrors.KindAuth, fmt.Sprintf("token error: %s - %s", rerr.ErrorCode, rerr.ErrorDescription), lerrors.ErrNotAuthenticated)
		}
		if rerr.Response != nil && rerr.Response.StatusCode >= 400 && rerr.Response.StatusCode < 500 {
			return lerrors.Wrap(lerrors.KindAuth, fmt.Sprintf("token request rejected: status %d", rerr.Response.StatusCode), lerrors.ErrNotAuthenticated)
		}
	}
	return lerrors.Wrap(lerrors.KindUpstream, "token request failed", err)
}
