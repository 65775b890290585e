// Package grants indexes token-acquisition strategies by grant type.
//
// The registry knows nothing about how a grant obtains its token; it only
// maps a GrantType to the Builder that constructs the grant. New flows are
// added by declaring a GrantType and registering a Builder for it.
package grants

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"herre/pkg/token"
)

// GrantType identifies an OAuth flow.
type GrantType string

const (
	ClientCredentials GrantType = "client-credentials"
	AuthorizationCode GrantType = "authorization-code"
	// Static hands out a token that was obtained out of band.
	Static GrantType = "static"
)

var knownTypes = []GrantType{ClientCredentials, AuthorizationCode, Static}

var ErrUnknownGrantType = errors.New("grants: unknown grant type")

// ParseGrantType maps a wire value onto the closed GrantType enumeration.
func ParseGrantType(s string) (GrantType, error) {
	for _, t := range knownTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGrantType, s)
}

// Grant obtains a bearer token.
type Grant interface {
	FetchToken(ctx context.Context) (token.Token, error)
}

// GrantFunc adapts a function to Grant.
type GrantFunc func(ctx context.Context) (token.Token, error)

func (f GrantFunc) FetchToken(ctx context.Context) (token.Token, error) { return f(ctx) }

// Config carries everything a builder may need. Builders read the fields
// relevant to their flow and ignore the rest.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
	Token        token.Token  // Static
	HTTPClient   *http.Client // optional, used for token endpoint calls
}

// Builder constructs a grant on demand.
type Builder func(cfg Config) (Grant, error)
