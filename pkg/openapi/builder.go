// Package openapi describes the gateway routes as an OpenAPI 3.1 document.
package openapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// Operation represents a single HTTP operation to surface in OpenAPI.
type Operation struct {
	Method    string
	Path      string
	Summary   string
	Tags      []string
	Scopes    []string // required scopes, informational
	Public    bool     // no bearer token required
	Responses map[string]string
}

// Security describes how callers obtain bearer tokens.
type Security struct {
	TokenURL string   // client-credentials token endpoint, optional
	Scopes   []string // scopes advertised for that flow
}

type Registry struct {
	mu  sync.RWMutex
	ops []Operation
}

func NewRegistry() *Registry { return &Registry{} }

func (r *Registry) Register(op Operation) {
	op.Method = strings.ToLower(op.Method)
	r.mu.Lock()
	r.ops = append(r.ops, op)
	r.mu.Unlock()
}

// Build produces a minimal OpenAPI 3.1 document for the registered
// operations. Responses only carry descriptions.
func (r *Registry) Build(serviceName, version string, sec Security) map[string]any {
	r.mu.RLock()
	ops := append([]Operation(nil), r.ops...)
	r.mu.RUnlock()
	sort.SliceStable(ops, func(i, j int) bool { return ops[i].Path < ops[j].Path })

	paths := map[string]any{}
	for _, op := range ops {
		if _, ok := paths[op.Path]; !ok {
			paths[op.Path] = map[string]any{}
		}
		responses := map[string]any{}
		for code, desc := range op.Responses {
			responses[code] = map[string]any{"description": desc}
		}
		m := map[string]any{
			"summary":   op.Summary,
			"tags":      op.Tags,
			"responses": responses,
		}
		if op.Public {
			m["security"] = []map[string]any{}
		}
		if len(op.Scopes) > 0 {
			m["x-required-scopes"] = op.Scopes
		}
		paths[op.Path].(map[string]any)[op.Method] = m
	}

	schemes := map[string]any{
		"bearer": map[string]any{"type": "http", "scheme": "bearer"},
	}
	security := []map[string]any{{"bearer": []string{}}}
	if sec.TokenURL != "" {
		scopes := map[string]string{}
		for _, s := range sec.Scopes {
			scopes[s] = ""
		}
		schemes["oauth"] = map[string]any{
			"type": "oauth2",
			"flows": map[string]any{
				"clientCredentials": map[string]any{"tokenUrl": sec.TokenURL, "scopes": scopes},
			},
		}
		security = append(security, map[string]any{"oauth": sec.Scopes})
	}
	return map[string]any{
		"openapi":    "3.1.0",
		"info":       map[string]any{"title": serviceName, "version": version},
		"paths":      paths,
		"components": map[string]any{"securitySchemes": schemes},
		"security":   security,
	}
}

// ServeHandler returns an HTTP handler that serves the built OpenAPI JSON.
func (r *Registry) ServeHandler(serviceName, version string, sec Security) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(r.Build(serviceName, version, sec))
	}
}
