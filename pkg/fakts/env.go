package fakts

import (
	"context"
	"os"
	"strings"
)

// EnvSource maps a key to an environment variable: with prefix "FAKTS_",
// "lok.userinfo_url" reads FAKTS_LOK_USERINFO_URL.
type EnvSource struct {
	prefix string
}

func NewEnvSource(prefix string) *EnvSource {
	if prefix == "" {
		prefix = "FAKTS_"
	}
	return &EnvSource{prefix: prefix}
}

func (e *EnvSource) Get(_ context.Context, key string) (any, error) {
	name := e.prefix + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
	if v, ok := os.LookupEnv(name); ok {
		return v, nil
	}
	return nil, ErrKeyNotFound
}
