package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"herre/pkg/defaultuser"
	"herre/pkg/grants"
	"herre/pkg/identity"
	"herre/pkg/middleware"
	"herre/pkg/problems"
)

// tokenView is what the gateway reveals about a stored token; the secret
// parts never leave the settings backend.
type tokenView struct {
	TokenType string    `json:"token_type,omitempty"`
	Scope     string    `json:"scope,omitempty"`
	Expiry    time.Time `json:"expiry,omitzero"`
}

type storedUserView struct {
	User  identity.User `json:"user"`
	Token tokenView     `json:"token"`
}

func viewOf(su *defaultuser.StoredUser[identity.User]) storedUserView {
	return storedUserView{
		User:  su.User,
		Token: tokenView{TokenType: su.Token.TokenType, Scope: su.Token.Scope, Expiry: su.Token.Expiry},
	}
}

func (a *App) getMe(w http.ResponseWriter, r *http.Request) {
	tok, _ := middleware.TokenFrom(r.Context())
	user, err := a.fetcher.Fetch(r.Context(), tok)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, user, http.StatusOK)
}

func (a *App) getDefaultUser(w http.ResponseWriter, r *http.Request) {
	su, err := a.store.GetDefaultUser(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if su == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, viewOf(su), http.StatusOK)
}

// putDefaultUser fetches the caller's identity and remembers it, together
// with the caller's token, for the current endpoint.
func (a *App) putDefaultUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tok, _ := middleware.TokenFrom(ctx)
	user, err := a.fetcher.Fetch(ctx, tok)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	su := &defaultuser.StoredUser[identity.User]{User: user, Token: tok}
	if err := a.store.PutDefaultUser(ctx, su); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.log.Infow("default user stored", "sub", user.Sub, "request_id", middleware.RequestIDFrom(ctx))
	writeJSON(w, viewOf(su), http.StatusOK)
}

func (a *App) deleteDefaultUser(w http.ResponseWriter, r *http.Request) {
	if err := a.store.PutDefaultUser(r.Context(), nil); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) listGrants(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"grant_types": a.grants.Types()}, http.StatusOK)
}

func (a *App) postGrantToken(w http.ResponseWriter, r *http.Request) {
	gt, err := grants.ParseGrantType(chi.URLParam(r, "type"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	g, err := a.grants.Build(gt, a.grantCfg)
	if err != nil {
		if errors.Is(err, grants.ErrUnregisteredGrant) {
			a.writeError(w, r, err)
			return
		}
		a.log.Errorw("grant build failed", "grant_type", gt, "err", err)
		problems.Write(w, problems.New(http.StatusInternalServerError, problems.GrantFailed, "Grant not configured", err.Error()))
		return
	}
	tok, err := g.FetchToken(r.Context())
	if err != nil {
		a.log.Errorw("grant token failed", "grant_type", gt, "err", err)
		problems.Write(w, problems.New(http.StatusBadGateway, problems.GrantFailed, "Token request failed", err.Error()))
		return
	}
	writeJSON(w, tok, http.StatusOK)
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

