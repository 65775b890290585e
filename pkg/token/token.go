// Package token holds the bearer token value passed between grants, the
// identity fetcher and the default-user store.
package token

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

var ErrMissingAccessToken = errors.New("token: access_token is required")

// Token is an immutable OAuth token. Only AccessToken is required.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
}

// Parse decodes a token endpoint response body. expires_in is converted to
// an absolute Expiry relative to now.
func Parse(raw []byte, now time.Time) (Token, error) {
	var wire struct {
		Token
		ExpiresIn int64 `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Token{}, err
	}
	t := wire.Token
	if strings.TrimSpace(t.AccessToken) == "" {
		return Token{}, ErrMissingAccessToken
	}
	if t.Expiry.IsZero() && wire.ExpiresIn > 0 {
		t.Expiry = now.Add(time.Duration(wire.ExpiresIn) * time.Second)
	}
	return t, nil
}

// Bearer returns the Authorization header value.
func (t Token) Bearer() string { return "Bearer " + t.AccessToken }

// Expired reports whether the token carries an expiry that has passed.
func (t Token) Expired(now time.Time) bool {
	return !t.Expiry.IsZero() && !now.Before(t.Expiry)
}

// Scopes splits the space separated scope string.
func (t Token) Scopes() []string { return strings.Fields(t.Scope) }

// FromOAuth2 converts an x/oauth2 token; scope and id_token come from the
// raw token response extras when the provider returned them.
func FromOAuth2(ot *oauth2.Token) Token {
	if ot == nil {
		return Token{}
	}
	t := Token{
		AccessToken:  ot.AccessToken,
		RefreshToken: ot.RefreshToken,
		TokenType:    ot.TokenType,
		Expiry:       ot.Expiry,
	}
	if s, ok := ot.Extra("scope").(string); ok {
		t.Scope = s
	}
	if s, ok := ot.Extra("id_token").(string); ok {
		t.IDToken = s
	}
	return t
}

// OAuth2 converts to an x/oauth2 token, e.g. for oauth2.StaticTokenSource.
func (t Token) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
}
