package orchestration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SessionProvider supplies the session identifier that scopes a turn.
// Implementations may create the session lazily on first use; a failure
// here is terminal for the turn that asked.
type SessionProvider interface {
	CurrentSessionID(ctx context.Context) (string, error)
}

// RuntimeSessionProvider creates a session against the Aria runtime on
// first use and serves the cached identifier afterwards. Safe for
// concurrent use.
type RuntimeSessionProvider struct {
	baseURL     string
	httpClient  *http.Client
	credentials CredentialProvider

	mu        sync.Mutex
	sessionID string
}

type SessionProviderOption func(*RuntimeSessionProvider)

// WithSessionHTTPClient replaces the default HTTP client.
func WithSessionHTTPClient(httpClient *http.Client) SessionProviderOption {
	return func(p *RuntimeSessionProvider) { p.httpClient = httpClient }
}

// WithSessionCredentials sets the provider consulted for an Authorization
// header on session creation.
func WithSessionCredentials(credentials CredentialProvider) SessionProviderOption {
	return func(p *RuntimeSessionProvider) { p.credentials = credentials }
}

func NewRuntimeSessionProvider(baseURL string, opts ...SessionProviderOption) *RuntimeSessionProvider {
	provider := &RuntimeSessionProvider{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(provider)
	}

	return provider
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

func (p *RuntimeSessionProvider) CurrentSessionID(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sessionID != "" {
		return p.sessionID, nil
	}

	ctx, span := tracer.Start(ctx, "create session")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/v1/sessions", bytes.NewReader([]byte("{}")))
	if err != nil {
		err = fmt.Errorf("error creating session request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	if p.credentials != nil {
		credentialCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if header, ok := p.credentials.AuthorizationHeader(credentialCtx); ok && header != "" {
			req.Header.Set("Authorization", header)
		}
		cancel()
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error creating session: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		err := fmt.Errorf("non-OK HTTP status creating session: %s", resp.Status)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	var payload sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		err = fmt.Errorf("error decoding session response: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	if payload.SessionID == "" {
		err := fmt.Errorf("session response carried no session id")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	p.sessionID = payload.SessionID
	span.SetAttributes(attribute.String("session.id", p.sessionID))
	return p.sessionID, nil
}

// StaticSessionProvider serves a fixed session identifier.
type StaticSessionProvider struct {
	sessionID string
}

func NewStaticSessionProvider(sessionID string) *StaticSessionProvider {
	return &StaticSessionProvider{sessionID: sessionID}
}

func (p *StaticSessionProvider) CurrentSessionID(_ context.Context) (string, error) {
	return p.sessionID, nil
}
