// Package gateway exposes the identity fetcher, the default-user store and
// the grant registry over HTTP.
package gateway

import (
	"go.uber.org/zap"

	"herre/pkg/config"
	"herre/pkg/defaultuser"
	"herre/pkg/grants"
	"herre/pkg/identity"
	"herre/pkg/logger"
)

// App holds the shared dependencies of the handlers. Request-scoped work
// uses the request context.
type App struct {
	cfg      config.Config
	log      *zap.SugaredLogger
	fetcher  *identity.Fetcher[identity.User]
	store    *defaultuser.Store[identity.User]
	grants   *grants.Registry
	grantCfg grants.Config
}

type Deps struct {
	Fetcher *identity.Fetcher[identity.User]
	Store   *defaultuser.Store[identity.User]
	Grants  *grants.Registry
	// GrantConfig is handed to grant builders by POST /v1/grants/{type}/token.
	GrantConfig grants.Config
}

func New(cfg config.Config, log *zap.SugaredLogger, deps Deps) *App {
	reg := deps.Grants
	if reg == nil {
		reg = grants.NewRegistry()
	}
	return &App{
		cfg:      cfg,
		log:      logger.OrNop(log),
		fetcher:  deps.Fetcher,
		store:    deps.Store,
		grants:   reg,
		grantCfg: deps.GrantConfig,
	}
}
