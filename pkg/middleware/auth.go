// pkg/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"herre/pkg/config"
	"herre/pkg/problems"
	"herre/pkg/token"
)

// jwksCache caches JWKS sets per URL. Fetches run outside the lock and are
// collapsed per URL; an expired set keeps being served while one background
// refresh runs.
type jwksCache struct {
	mu    sync.RWMutex
	sets  map[string]cachedJWKS
	group singleflight.Group
	fetch func(ctx context.Context, url string) (jwk.Set, error)
}

type cachedJWKS struct {
	set     jwk.Set
	expires time.Time
}

const jwksRefreshTimeout = 30 * time.Second

func newJWKSCache() *jwksCache {
	return &jwksCache{fetch: func(ctx context.Context, url string) (jwk.Set, error) {
		return jwk.Fetch(ctx, url)
	}}
}

func (c *jwksCache) get(ctx context.Context, url string, ttl time.Duration) (jwk.Set, error) {
	c.mu.RLock()
	e, ok := c.sets[url]
	c.mu.RUnlock()
	if ok {
		if !time.Now().Before(e.expires) {
			c.group.DoChan(url, func() (any, error) {
				bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), jwksRefreshTimeout)
				defer cancel()
				return c.load(bg, url, ttl)
			})
		}
		return e.set, nil
	}
	v, err, _ := c.group.Do(url, func() (any, error) { return c.load(ctx, url, ttl) })
	if err != nil {
		return nil, err
	}
	return v.(jwk.Set), nil
}

func (c *jwksCache) load(ctx context.Context, url string, ttl time.Duration) (jwk.Set, error) {
	set, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.sets == nil {
		c.sets = map[string]cachedJWKS{}
	}
	c.sets[url] = cachedJWKS{set: set, expires: time.Now().Add(ttl)}
	c.mu.Unlock()
	return set, nil
}

type ctxTokenKey struct{}

// WithToken stores the caller's bearer token in ctx.
func WithToken(ctx context.Context, tok token.Token) context.Context {
	return context.WithValue(ctx, ctxTokenKey{}, tok)
}

// TokenFrom returns the bearer token extracted by Bearer.
func TokenFrom(ctx context.Context) (token.Token, bool) {
	tok, ok := ctx.Value(ctxTokenKey{}).(token.Token)
	return tok, ok
}

// Bearer extracts the Authorization bearer token into the request context.
// Requests without one pass through untouched; RequireBearer rejects them.
// When cfg.JWKSURL is set the token must be a JWT signed by that key set
// (and issued by cfg.Issuer, if configured); its scopes are then trusted and
// stored with WithScopes.
func Bearer(cfg config.Config, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	cache := newJWKSCache()
	jwksTTL := 6 * time.Hour
	// compared verbatim: some issuers end in "/"
	issuer := cfg.Issuer
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if authz == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				problems.Write(w, problems.New(http.StatusUnauthorized, problems.MissingBearer,
					"Bearer token required", "Authorization header must use the Bearer scheme"))
				return
			}
			raw := strings.TrimSpace(authz[len("Bearer "):])
			if raw == "" {
				problems.Write(w, problems.New(http.StatusUnauthorized, problems.MissingBearer,
					"Bearer token required", "empty bearer token"))
				return
			}
			tok := token.Token{AccessToken: raw, TokenType: "Bearer"}
			ctx := r.Context()

			if cfg.JWKSURL != "" {
				set, err := cache.get(ctx, cfg.JWKSURL, jwksTTL)
				if err != nil {
					log.Errorw("jwks fetch failed", "url", cfg.JWKSURL, "err", err)
					problems.Write(w, problems.New(http.StatusInternalServerError, problems.Internal,
						"Token verification unavailable", "jwks fetch failed"))
					return
				}
				parseOpts := []jwt.ParseOption{jwt.WithKeySet(set), jwt.WithValidate(true), jwt.WithVerify(true), jwt.WithAcceptableSkew(30 * time.Second)}
				if issuer != "" {
					parseOpts = append(parseOpts, jwt.WithIssuer(issuer))
				}
				if _, err := jwt.Parse([]byte(raw), parseOpts...); err != nil {
					log.Infow("rejected bearer", "err", err)
					problems.Write(w, problems.New(http.StatusUnauthorized, problems.InvalidToken, "Invalid token", err.Error()))
					return
				}
				claims, err := tok.Claims()
				if err == nil {
					tok.Scope = strings.Join(claims.Scopes, " ")
					ctx = WithScopes(ctx, claims.Scopes)
				}
			}
			next.ServeHTTP(w, r.WithContext(WithToken(ctx, tok)))
		})
	}
}

// RequireBearer rejects requests that carry no bearer token.
func RequireBearer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := TokenFrom(r.Context()); !ok {
				problems.Write(w, problems.New(http.StatusUnauthorized, problems.MissingBearer,
					"Bearer token required", "send Authorization: Bearer <access_token>"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
