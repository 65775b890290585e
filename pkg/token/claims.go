package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims are the few access-token claims herre inspects for diagnostics.
type Claims struct {
	Subject   string
	Issuer    string
	Scopes    []string
	GrantType string
	Expiry    time.Time
}

// Claims decodes the access token as a JWT without verifying its signature.
// Opaque tokens return an error; callers treat that as "unknown".
func (t Token) Claims() (Claims, error) {
	jt, err := jwt.ParseInsecure([]byte(t.AccessToken))
	if err != nil {
		return Claims{}, fmt.Errorf("token is not a JWT: %w", err)
	}
	c := Claims{
		Subject: jt.Subject(),
		Issuer:  jt.Issuer(),
		Expiry:  jt.Expiration(),
	}
	if sc, ok := jt.Get("scope"); ok {
		if s, ok := sc.(string); ok {
			c.Scopes = append(c.Scopes, strings.Fields(s)...)
		}
	}
	// Azure and Okta style array claim
	if scp, ok := jt.Get("scp"); ok {
		if arr, ok := scp.([]any); ok {
			for _, v := range arr {
				if s, ok := v.(string); ok {
					c.Scopes = append(c.Scopes, s)
				}
			}
		}
	}
	if gty, ok := jt.Get("gty"); ok {
		c.GrantType, _ = gty.(string)
	}
	return c, nil
}

func (c Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
