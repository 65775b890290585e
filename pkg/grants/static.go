package grants

import (
	"context"

	"herre/pkg/token"
)

// StaticGrant returns a token obtained out of band (CLI flag, env, keyring).
type StaticGrant struct {
	tok token.Token
}

func NewStaticGrant(cfg Config) (Grant, error) {
	if cfg.Token.AccessToken == "" {
		return nil, token.ErrMissingAccessToken
	}
	return &StaticGrant{tok: cfg.Token}, nil
}

func (g *StaticGrant) FetchToken(ctx context.Context) (token.Token, error) {
	if err := ctx.Err(); err != nil {
		return token.Token{}, err
	}
	return g.tok, nil
}
