package settings

import (
	"context"
	"errors"

	"github.com/zalando/go-keyring"
)

const keyringService = "herre"

// KeyringBackend keeps settings in the OS keyring (Secret Service, macOS
// Keychain, Windows Credential Manager). Stored users carry tokens, so this
// is the backend of choice on desktops.
type KeyringBackend struct {
	service string
}

func NewKeyringBackend(service string) *KeyringBackend {
	if service == "" {
		service = keyringService
	}
	return &KeyringBackend{service: service}
}

func (k *KeyringBackend) Value(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	v, err := keyring.Get(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (k *KeyringBackend) SetValue(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return keyring.Set(k.service, key, value)
}
