// cmd/herre-service/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"herre/internal/gateway"
	"herre/pkg/config"
	"herre/pkg/db"
	"herre/pkg/defaultuser"
	"herre/pkg/fakts"
	"herre/pkg/grants"
	"herre/pkg/identity"
	"herre/pkg/logger"
	"herre/pkg/middleware"
	"herre/pkg/settings"
	"herre/pkg/token"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	pool := db.MustConnect(ctx, cfg, log)
	rdb := db.MustRedis(ctx, cfg, log)

	source, err := fakts.FromConfig(ctx, cfg, pool, rdb, log)
	if err != nil {
		log.Fatalw("fakts", "backend", cfg.FaktsBackend, "err", err)
	}
	backend, err := settings.FromConfig(ctx, cfg, pool, rdb)
	if err != nil {
		log.Fatalw("settings", "backend", cfg.SettingsBackend, "err", err)
	}

	fetcher, err := identity.NewFetcher[identity.User](source, cfg.UserEndpointKey,
		identity.WithCAFile(cfg.CAFile), identity.WithLogger(log))
	if err != nil {
		log.Fatalw("identity fetcher", "ca_file", cfg.CAFile, "err", err)
	}
	store := defaultuser.NewStore[identity.User](backend, source, cfg.UserEndpointKey,
		defaultuser.WithStorageKey(cfg.DefaultUserKey), defaultuser.WithLogger(log))

	grantCfg := grants.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
		HTTPClient:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport), Timeout: 30 * time.Second},
	}
	if cfg.StaticToken != "" {
		grantCfg.Token = token.Token{AccessToken: cfg.StaticToken, TokenType: "Bearer"}
	}

	app := gateway.New(cfg, log, gateway.Deps{
		Fetcher:     fetcher,
		Store:       store,
		Grants:      grants.DefaultRegistry(),
		GrantConfig: grantCfg,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: app.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Infow("herre-service listening", "addr", cfg.HTTPAddr, "fakts", cfg.FaktsBackend, "settings", cfg.SettingsBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = middleware.ShutdownTracing(shutdownCtx)
	if rdb != nil {
		_ = rdb.Close()
	}
	if pool != nil {
		pool.Close()
	}
	log.Infow("herre-service stopped")
}
