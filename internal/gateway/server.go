package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"herre/pkg/middleware"
	"herre/pkg/openapi"
)

const apiVersion = "v1"

// Handler builds the HTTP handler with routes and middleware.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(a.log))
	r.Use(middleware.DebugWriteHeader(a.cfg, a.log))
	r.Use(middleware.Tracing("herre-service", a.log))

	doc := a.describe()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]bool{"ok": true}, http.StatusOK)
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/.well-known/openapi.json", doc.ServeHandler("herre", apiVersion,
		openapi.Security{TokenURL: a.cfg.TokenURL, Scopes: a.cfg.Scopes}))

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(middleware.Bearer(a.cfg, a.log))
		v1.Get("/grants", a.listGrants)

		v1.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireBearer())
			ar.Get("/me", a.getMe)
			ar.Get("/default-user", a.getDefaultUser)
			ar.Put("/default-user", a.putDefaultUser)
			ar.Delete("/default-user", a.deleteDefaultUser)
			if a.cfg.ExposeGrantTokens {
				ar.With(middleware.RequireScope(a.cfg.GrantTokenScope)).Post("/grants/{type}/token", a.postGrantToken)
			}
		})
	})
	return r
}

// describe lists the routes mounted by Handler.
func (a *App) describe() *openapi.Registry {
	doc := openapi.NewRegistry()
	problem := "problem+json"
	doc.Register(openapi.Operation{Method: "GET", Path: "/healthz", Summary: "Liveness", Public: true, Responses: map[string]string{"200": "ok"}})
	doc.Register(openapi.Operation{Method: "GET", Path: "/v1/grants", Summary: "Registered grant types", Tags: []string{"grants"}, Public: true,
		Responses: map[string]string{"200": "grant types"}})
	doc.Register(openapi.Operation{Method: "GET", Path: "/v1/me", Summary: "Identity behind the bearer token", Tags: []string{"identity"},
		Responses: map[string]string{"200": "identity", "401": problem, "502": problem, "503": problem}})
	doc.Register(openapi.Operation{Method: "GET", Path: "/v1/default-user", Summary: "Default user for the current endpoint", Tags: []string{"default-user"},
		Responses: map[string]string{"200": "stored user", "204": "no default user"}})
	doc.Register(openapi.Operation{Method: "PUT", Path: "/v1/default-user", Summary: "Remember the caller as default user", Tags: []string{"default-user"},
		Responses: map[string]string{"200": "stored user", "401": problem, "502": problem}})
	doc.Register(openapi.Operation{Method: "DELETE", Path: "/v1/default-user", Summary: "Forget the default user", Tags: []string{"default-user"},
		Responses: map[string]string{"204": "removed"}})
	if a.cfg.ExposeGrantTokens {
		var scopes []string
		if a.cfg.GrantTokenScope != "" {
			scopes = []string{a.cfg.GrantTokenScope}
		}
		doc.Register(openapi.Operation{Method: "POST", Path: "/v1/grants/{type}/token", Summary: "Obtain a token through a grant", Tags: []string{"grants"},
			Scopes: scopes, Responses: map[string]string{"200": "token", "404": problem, "502": problem}})
	}
	return doc
}
