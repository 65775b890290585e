// Package identity fetches the user behind a bearer token from an identity
// (userinfo) endpoint that is discovered through fakts at call time.
package identity

import (
	"bytes"
	"context"
	"crypto/x509"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"herre/pkg/fakts"
	"herre/pkg/logger"
	"herre/pkg/metrics"
	"herre/pkg/token"
)

const (
	maxResponseBytes = 1 << 20 // 1 MiB
	maxLoggedPayload = 2048
)

type fetcherOptions struct {
	client  *http.Client
	rootCAs *x509.CertPool
	caFile  string
	log     *zap.SugaredLogger
}

type Option func(*fetcherOptions)

// WithHTTPClient replaces the client entirely; the trust store options are
// then ignored.
func WithHTTPClient(c *http.Client) Option { return func(o *fetcherOptions) { o.client = c } }

// WithRootCAs overrides the system trust store.
func WithRootCAs(pool *x509.CertPool) Option { return func(o *fetcherOptions) { o.rootCAs = pool } }

// WithCAFile overrides the system trust store with a PEM bundle.
func WithCAFile(path string) Option { return func(o *fetcherOptions) { o.caFile = path } }

func WithLogger(log *zap.SugaredLogger) Option { return func(o *fetcherOptions) { o.log = log } }

// Fetcher resolves the identity endpoint under a fakts key and decodes the
// endpoint's answer into T. It keeps no per-call state and is safe for
// concurrent use.
type Fetcher[T UserModel] struct {
	source fakts.Source
	key    string
	client *http.Client
	log    *zap.SugaredLogger
	tracer trace.Tracer
}

func NewFetcher[T UserModel](source fakts.Source, key string, opts ...Option) (*Fetcher[T], error) {
	var o fetcherOptions
	for _, opt := range opts {
		opt(&o)
	}
	client := o.client
	if client == nil {
		pool := o.rootCAs
		if pool == nil && o.caFile != "" {
			var err error
			if pool, err = LoadCertPool(o.caFile); err != nil {
				return nil, err
			}
		}
		client = newHTTPClient(pool)
	}
	return &Fetcher[T]{
		source: source,
		key:    key,
		client: client,
		log:    logger.OrNop(o.log),
		tracer: otel.Tracer("herre/identity"),
	}, nil
}

// Fetch resolves the endpoint, performs a single authenticated GET and
// returns the decoded user. On error the zero T is returned.
func (f *Fetcher[T]) Fetch(ctx context.Context, tok token.Token) (T, error) {
	var zero T
	started := time.Now()
	ctx, span := f.tracer.Start(ctx, "identity.Fetch", trace.WithAttributes(attribute.String("herre.fakts_key", f.key)))
	defer span.End()

	fail := func(outcome string, err error) (T, error) {
		metrics.ObserveFetch(outcome, started)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return zero, err
	}

	base, err := fakts.ResolveString(ctx, f.source, f.key)
	if err != nil {
		f.log.Errorw("identity endpoint unresolved", "key", f.key, "err", err)
		return fail(metrics.OutcomeConfig, err)
	}
	endpoint := base + "/"
	span.SetAttributes(attribute.String("herre.endpoint", endpoint))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		err = &fakts.ResolutionError{Key: f.key, Cause: err}
		f.log.Errorw("identity endpoint invalid", "key", f.key, "endpoint", endpoint, "err", err)
		return fail(metrics.OutcomeConfig, err)
	}
	req.Header.Set("Authorization", tok.Bearer())
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.log.Errorw("could not fetch user", "endpoint", endpoint, "err", err)
		return fail(metrics.OutcomeTransport, &FetchError{Endpoint: endpoint, Cause: err})
	}
	defer drainAndClose(resp.Body)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	// one byte past the limit tells a full body from a truncated one
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))

	if resp.StatusCode != http.StatusOK {
		cause := &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: snippet(body)}
		f.log.Errorw("could not fetch user",
			"endpoint", endpoint, "status", resp.StatusCode, "body", cause.Body, "openid_scope", f.scopeHint(tok))
		return fail(metrics.OutcomeAuthFailure, &AuthenticationError{Endpoint: endpoint, StatusCode: resp.StatusCode, Cause: cause})
	}
	if readErr != nil {
		f.log.Errorw("could not read user", "endpoint", endpoint, "err", readErr)
		return fail(metrics.OutcomeTransport, &FetchError{Endpoint: endpoint, Cause: readErr})
	}

	if len(body) > maxResponseBytes {
		err := &MalformedResponseError{Endpoint: endpoint, Reason: ReasonTooLarge, Payload: snippet(body)}
		f.log.Errorw("malformed answer, response too large", "endpoint", endpoint, "limit", maxResponseBytes)
		return fail(metrics.OutcomeMalformed, err)
	}

	if !isJSON(resp.Header.Get("Content-Type")) || !json.Valid(body) {
		err := &MalformedResponseError{Endpoint: endpoint, Reason: ReasonExpectedJSON, Payload: snippet(body)}
		f.log.Errorw("malformed answer, expected json",
			"endpoint", endpoint, "content_type", resp.Header.Get("Content-Type"), "payload", err.Payload)
		return fail(metrics.OutcomeMalformed, err)
	}

	user, err := decode[T](body)
	if err != nil {
		merr := &MalformedResponseError{Endpoint: endpoint, Reason: ReasonSchemaMismatch, Payload: snippet(body), Cause: err}
		f.log.Errorw("malformed answer", "endpoint", endpoint, "payload", merr.Payload, "err", err)
		return fail(metrics.OutcomeMalformed, merr)
	}

	metrics.ObserveFetch(metrics.OutcomeOK, started)
	return user, nil
}

// decode builds a T from body or fails without exposing a partial value.
func decode[T UserModel](body []byte) (T, error) {
	var zero, user T
	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return zero, errNullPayload
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return zero, err
	}
	if err := user.Validate(); err != nil {
		return zero, err
	}
	return user, nil
}

var errNullPayload = errors.New("payload is null")

// scopeHint reports whether a JWT access token carries the openid scope:
// "present", "missing" or "unknown" for opaque tokens.
func (f *Fetcher[T]) scopeHint(tok token.Token) string {
	claims, err := tok.Claims()
	if err != nil {
		return "unknown"
	}
	if claims.HasScope("openid") {
		return "present"
	}
	return "missing"
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

func snippet(b []byte) string {
	if len(b) > maxLoggedPayload {
		return string(b[:maxLoggedPayload]) + "…"
	}
	return string(b)
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}
