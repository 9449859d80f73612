package orchestration

import (
	"context"

	"github.com/aria-runtime/aria-go/core/transport"
)

// CredentialProvider supplies an optional Authorization header value for
// outgoing runtime requests. Absence is a valid, non-error state.
type CredentialProvider = transport.CredentialProvider

// StaticCredentialProvider serves a fixed bearer token.
type StaticCredentialProvider struct {
	token string
}

func NewStaticCredentialProvider(token string) *StaticCredentialProvider {
	return &StaticCredentialProvider{token: token}
}

func (p *StaticCredentialProvider) AuthorizationHeader(_ context.Context) (string, bool) {
	if p == nil || p.token == "" {
		return "", false
	}
	return "Bearer " + p.token, true
}
