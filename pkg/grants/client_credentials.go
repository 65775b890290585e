package grants

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"herre/pkg/token"
)

// ClientCredentialsGrant performs a single client_credentials exchange per
// FetchToken call. Caching and refresh are left to the caller.
type ClientCredentialsGrant struct {
	conf       clientcredentials.Config
	httpClient *http.Client
}

func NewClientCredentialsGrant(cfg Config) (Grant, error) {
	switch {
	case cfg.ClientID == "":
		return nil, errors.New("client id is required")
	case cfg.TokenURL == "":
		return nil, errors.New("token url is required")
	}
	return &ClientCredentialsGrant{
		conf: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		},
		httpClient: cfg.HTTPClient,
	}, nil
}

func (g *ClientCredentialsGrant) FetchToken(ctx context.Context) (token.Token, error) {
	if g.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	}
	ot, err := g.conf.Token(ctx)
	if err != nil {
		return token.Token{}, fmt.Errorf("client credentials exchange at %s: %w", g.conf.TokenURL, err)
	}
	return token.FromOAuth2(ot), nil
}
