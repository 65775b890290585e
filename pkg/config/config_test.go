package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HERRE_FAKTS_FILE", "DATABASE_URL", "REDIS_URL", "HERRE_FAKTS_BACKEND", "HERRE_SCOPES"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "memory", cfg.FaktsBackend)
	assert.Equal(t, "lok.userinfo_url", cfg.UserEndpointKey)
	assert.Equal(t, "default_user_fakts", cfg.DefaultUserKey)
	assert.Equal(t, []string{"openid"}, cfg.Scopes)
	assert.False(t, cfg.ExposeGrantTokens)
}

func TestLoadResolvesFaktsBackend(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"file wins", map[string]string{"HERRE_FAKTS_FILE": "fakts.yaml", "DATABASE_URL": "postgres://x", "REDIS_URL": "redis://x"}, "file"},
		{"postgres before redis", map[string]string{"DATABASE_URL": "postgres://x", "REDIS_URL": "redis://x"}, "postgres"},
		{"redis", map[string]string{"REDIS_URL": "redis://x"}, "redis"},
		{"explicit", map[string]string{"HERRE_FAKTS_BACKEND": "env", "REDIS_URL": "redis://x"}, "env"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"HERRE_FAKTS_FILE", "DATABASE_URL", "REDIS_URL", "HERRE_FAKTS_BACKEND"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.want, Load().FaktsBackend)
		})
	}
}

func TestEnvList(t *testing.T) {
	t.Setenv("HERRE_SCOPES", "openid, profile email")
	assert.Equal(t, []string{"openid", "profile", "email"}, Load().Scopes)
}
