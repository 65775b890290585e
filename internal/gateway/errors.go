package gateway

import (
	"context"
	"errors"
	"net/http"

	"herre/pkg/fakts"
	"herre/pkg/grants"
	"herre/pkg/identity"
	"herre/pkg/middleware"
	"herre/pkg/problems"
)

// problemFor maps core errors onto problem documents.
func problemFor(err error) problems.Problem {
	switch {
	case errors.Is(err, fakts.ErrConfigResolution):
		return problems.New(http.StatusServiceUnavailable, problems.ConfigUnresolved, "Identity endpoint not configured", err.Error())
	case errors.Is(err, identity.ErrAuthenticationFailure):
		return problems.New(http.StatusUnauthorized, problems.IdentityRejected, "Identity endpoint rejected the token", err.Error())
	case errors.Is(err, identity.ErrMalformedResponse):
		return problems.New(http.StatusBadGateway, problems.MalformedIdentity, "Malformed identity response", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return problems.New(http.StatusGatewayTimeout, problems.IdentityUnreachable, "Identity endpoint timed out", err.Error())
	case errors.Is(err, identity.ErrIdentityFetch):
		return problems.New(http.StatusBadGateway, problems.IdentityUnreachable, "Identity endpoint unreachable", err.Error())
	case errors.Is(err, grants.ErrUnregisteredGrant), errors.Is(err, grants.ErrUnknownGrantType):
		return problems.New(http.StatusNotFound, problems.UnknownGrant, "Unknown grant type", err.Error())
	}
	return problems.New(http.StatusInternalServerError, problems.Internal, "Internal error", "")
}

func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	p := problemFor(err)
	if p.Status >= http.StatusInternalServerError {
		a.log.Errorw("request failed", "path", r.URL.Path, "status", p.Status, "request_id", middleware.RequestIDFrom(r.Context()), "err", err)
	}
	p.Instance = r.URL.Path
	problems.Write(w, p)
}
