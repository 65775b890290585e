package fakts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveString(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr error
	}{
		{
			name: "string value",
			src:  NewMemorySource(map[string]any{"user-endpoint": "https://idp.example/userinfo"}),
			want: "https://idp.example/userinfo",
		},
		{
			name:    "non-string value",
			src:     NewMemorySource(map[string]any{"user-endpoint": 42}),
			wantErr: ErrConfigResolution,
		},
		{
			name:    "empty string",
			src:     NewMemorySource(map[string]any{"user-endpoint": ""}),
			wantErr: ErrConfigResolution,
		},
		{
			name:    "missing key",
			src:     NewMemorySource(nil),
			wantErr: ErrKeyNotFound,
		},
		{
			name: "source failure",
			src: SourceFunc(func(context.Context, string) (any, error) {
				return nil, boom
			}),
			wantErr: boom,
		},
		{
			name:    "nil source",
			wantErr: ErrConfigResolution,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ResolveString(context.Background(), tt.src, "user-endpoint")
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrConfigResolution)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolutionErrorMessage(t *testing.T) {
	t.Parallel()
	_, err := ResolveString(context.Background(), NewMemorySource(map[string]any{"k": 1.5}), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"k" is float64, expected string`)
}

func TestMemorySourceNestedAndMutable(t *testing.T) {
	t.Parallel()
	src := NewMemorySource(map[string]any{
		"lok": map[string]any{"userinfo_url": "https://a.example/userinfo"},
	})
	v, err := ResolveString(context.Background(), src, "lok.userinfo_url")
	require.NoError(t, err)
	assert.Equal(t, "https://a.example/userinfo", v)

	// a flat key shadows the nested document
	src.Set("lok.userinfo_url", "https://b.example/userinfo")
	v, err = ResolveString(context.Background(), src, "lok.userinfo_url")
	require.NoError(t, err)
	assert.Equal(t, "https://b.example/userinfo", v)

	src.Delete("lok.userinfo_url")
	v, err = ResolveString(context.Background(), src, "lok.userinfo_url")
	require.NoError(t, err)
	assert.Equal(t, "https://a.example/userinfo", v)
}

func TestMemorySourceFromEnv(t *testing.T) {
	t.Setenv("HERRE_FAKTS_SEED_JSON", `{"lok":{"userinfo_url":"https://seed.example/userinfo"}}`)
	src := NewMemorySourceFromEnv(nil)
	v, err := src.Get(context.Background(), "lok.userinfo_url")
	require.NoError(t, err)
	assert.Equal(t, "https://seed.example/userinfo", v)
}

func TestMemorySourceFromEnvInvalidSeed(t *testing.T) {
	t.Setenv("HERRE_FAKTS_SEED_JSON", "{not json")
	src := NewMemorySourceFromEnv(nil)
	_, err := src.Get(context.Background(), "lok.userinfo_url")
	require.ErrorIs(t, err, ErrKeyNotFound)

	// still writable after the seed was dropped
	src.Set("user-endpoint", "https://idp.example/userinfo")
	v, err := ResolveString(context.Background(), src, "user-endpoint")
	require.NoError(t, err)
	assert.Equal(t, "https://idp.example/userinfo", v)
}

func TestFileSourceRereadsDocument(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "fakts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lok:\n  userinfo_url: https://one.example/userinfo\nuser-endpoint: https://flat.example\n"), 0o600))

	src := NewFileSource(path)
	v, err := src.Get(context.Background(), "lok.userinfo_url")
	require.NoError(t, err)
	assert.Equal(t, "https://one.example/userinfo", v)

	v, err = src.Get(context.Background(), "user-endpoint")
	require.NoError(t, err)
	assert.Equal(t, "https://flat.example", v)

	_, err = src.Get(context.Background(), "lok.missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, os.WriteFile(path, []byte("lok:\n  userinfo_url: https://two.example/userinfo\n"), 0o600))
	v, err = src.Get(context.Background(), "lok.userinfo_url")
	require.NoError(t, err)
	assert.Equal(t, "https://two.example/userinfo", v)
}

func TestFileSourceErrors(t *testing.T) {
	t.Parallel()
	_, err := NewFileSource(filepath.Join(t.TempDir(), "absent.yaml")).Get(context.Background(), "k")
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lok: [unterminated"), 0o600))
	_, err = NewFileSource(path).Get(context.Background(), "lok")
	assert.Error(t, err)
}

func TestRedisSource(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	src := NewRedisSource(rdb, "")
	_, err := src.Get(context.Background(), "lok.userinfo_url")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, src.Put(context.Background(), "lok.userinfo_url", "https://redis.example/userinfo"))
	assert.True(t, mr.Exists(defaultRedisPrefix+"lok.userinfo_url"))

	v, err := ResolveString(context.Background(), src, "lok.userinfo_url")
	require.NoError(t, err)
	assert.Equal(t, "https://redis.example/userinfo", v)
}

func TestEnvSource(t *testing.T) {
	t.Setenv("FAKTS_LOK_USERINFO_URL", "https://env.example/userinfo")
	src := NewEnvSource("")
	v, err := src.Get(context.Background(), "lok.userinfo_url")
	require.NoError(t, err)
	assert.Equal(t, "https://env.example/userinfo", v)

	_, err = src.Get(context.Background(), "user-endpoint")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
