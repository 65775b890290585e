// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string // herre-service

	// Fakts (dynamic configuration source)
	FaktsBackend    string // auto | memory | file | redis | postgres | env
	FaktsFile       string
	UserEndpointKey string // fakts key holding the userinfo endpoint

	// Default-user persistence
	SettingsBackend string // memory | file | redis | postgres | keyring
	SettingsFile    string
	DefaultUserKey  string

	// TLS trust store override (PEM bundle); empty -> system roots
	CAFile string

	// Optional local JWT verification in front of the identity endpoint
	Issuer  string
	JWKSURL string

	// Client-credentials grant
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string

	// StaticToken backs the static grant (a token obtained out of band)
	StaticToken string

	// ExposeGrantTokens enables POST /v1/grants/{type}/token; GrantTokenScope,
	// when set, is required on the caller's token for that route.
	ExposeGrantTokens bool
	GrantTokenScope   string

	// DebugDoubleWrite logs a stack trace on duplicate WriteHeader calls (non-prod only)
	DebugDoubleWrite bool

	// Redis & Postgres
	RedisURL    string
	DatabaseURL string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:               env("HERRE_ENV", "dev"),
		HTTPAddr:          env("HERRE_HTTP_ADDR", ":8090"),
		FaktsBackend:      env("HERRE_FAKTS_BACKEND", "auto"),
		FaktsFile:         env("HERRE_FAKTS_FILE", ""),
		UserEndpointKey:   env("HERRE_USER_ENDPOINT_KEY", "lok.userinfo_url"),
		SettingsBackend:   env("HERRE_SETTINGS_BACKEND", "file"),
		SettingsFile:      env("HERRE_SETTINGS_FILE", ""),
		DefaultUserKey:    env("HERRE_DEFAULT_USER_KEY", "default_user_fakts"),
		CAFile:            env("HERRE_CA_FILE", ""),
		Issuer:            env("HERRE_ISSUER", ""),
		JWKSURL:           env("HERRE_JWKS_URL", ""),
		ClientID:          env("HERRE_CLIENT_ID", ""),
		ClientSecret:      env("HERRE_CLIENT_SECRET", ""),
		TokenURL:          env("HERRE_TOKEN_URL", ""),
		Scopes:            envList("HERRE_SCOPES", []string{"openid"}),
		StaticToken:       env("HERRE_STATIC_TOKEN", ""),
		ExposeGrantTokens: envBool("HERRE_EXPOSE_GRANT_TOKENS", false),
		GrantTokenScope:   env("HERRE_GRANT_TOKEN_SCOPE", ""),
		DebugDoubleWrite:  envBool("HERRE_DEBUG_DOUBLE_WRITE", false),
		RedisURL:          env("REDIS_URL", ""),
		DatabaseURL:       env("DATABASE_URL", ""),
	}
	if cfg.FaktsBackend == "auto" {
		cfg.FaktsBackend = cfg.resolveFaktsBackend()
	}
	if cfg.FaktsBackend == "memory" {
		log.Println("[WARN] no fakts source configured, using in-memory fakts seeded from HERRE_FAKTS_SEED_JSON")
	}
	return cfg
}

// resolveFaktsBackend picks the first configured source: file, postgres, redis, memory.
func (c Config) resolveFaktsBackend() string {
	switch {
	case c.FaktsFile != "":
		return "file"
	case c.DatabaseURL != "":
		return "postgres"
	case c.RedisURL != "":
		return "redis"
	}
	return "memory"
}

// Debug reports whether the service runs outside production.
func (c Config) Debug() bool { return c.Env != "prod" }

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return def
		}
		return b
	}
	return def
}

// envList splits a comma or space separated value.
func envList(k string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
