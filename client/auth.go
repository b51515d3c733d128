package client

import (
	"context"
	"net/http"
	"strings"
	"sync"

	types "github.com/inference-gateway/a2a/types"
)

// SessionIDKey is the call-context key the credential store uses to scope
// credentials to a session.
const SessionIDKey = "sessionId"

// CredentialService resolves a credential for a named security scheme.
// An empty credential with nil error means no credential is available.
type CredentialService interface {
	GetCredential(ctx context.Context, securitySchemeName string) (string, error)
}

// InMemoryCredentialService stores credentials per session and scheme. The
// session is read from the call context attached to the request context.
type InMemoryCredentialService struct {
	mu          sync.RWMutex
	credentials map[string]map[string]string
}

var _ CredentialService = (*InMemoryCredentialService)(nil)

// NewInMemoryCredentialService creates an empty credential store.
func NewInMemoryCredentialService() *InMemoryCredentialService {
	return &InMemoryCredentialService{credentials: make(map[string]map[string]string)}
}

// SetCredential stores a credential for a session and scheme name.
func (s *InMemoryCredentialService) SetCredential(sessionID, securitySchemeName, credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bySession, ok := s.credentials[sessionID]
	if !ok {
		bySession = make(map[string]string)
		s.credentials[sessionID] = bySession
	}
	bySession[securitySchemeName] = credential
}

// GetCredential returns the credential stored for the calling session and
// scheme name, or empty when none is set.
func (s *InMemoryCredentialService) GetCredential(ctx context.Context, securitySchemeName string) (string, error) {
	callCtx := CallContextFrom(ctx)
	if callCtx == nil {
		return "", nil
	}
	sessionID := callCtx.GetString(SessionIDKey)
	if sessionID == "" {
		return "", nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credentials[sessionID][securitySchemeName], nil
}

// AuthInterceptor attaches credentials to outgoing calls based on the
// agent card's declared security requirements. Schemes without a matching
// credential are skipped silently.
type AuthInterceptor struct {
	credentials CredentialService
}

var _ CallInterceptor = (*AuthInterceptor)(nil)

// NewAuthInterceptor creates an interceptor backed by the given credential
// service.
func NewAuthInterceptor(credentials CredentialService) *AuthInterceptor {
	return &AuthInterceptor{credentials: credentials}
}

// Intercept finds the first declared security requirement with an
// available credential and sets the matching header.
func (i *AuthInterceptor) Intercept(ctx context.Context, _ string, headers http.Header, card *types.AgentCard) error {
	if card == nil || len(card.SecuritySchemes) == 0 {
		return nil
	}

	for _, requirement := range card.Security {
		for schemeName := range requirement {
			scheme, ok := card.SecuritySchemes[schemeName]
			if !ok {
				continue
			}

			credential, err := i.credentials.GetCredential(ctx, schemeName)
			if err != nil {
				return err
			}
			if credential == "" {
				continue
			}

			if i.apply(scheme, credential, headers) {
				return nil
			}
		}
	}
	return nil
}

func (i *AuthInterceptor) apply(scheme types.SecurityScheme, credential string, headers http.Header) bool {
	switch scheme.Type {
	case types.SecuritySchemeAPIKey:
		// Only header-carried API keys can be attached here.
		if !strings.EqualFold(scheme.In, "header") || scheme.Name == "" {
			return false
		}
		headers.Set(scheme.Name, credential)
		return true

	case types.SecuritySchemeHTTP:
		if strings.EqualFold(scheme.Scheme, "bearer") {
			headers.Set("Authorization", "Bearer "+credential)
		} else {
			headers.Set("Authorization", scheme.Scheme+" "+credential)
		}
		return true

	case types.SecuritySchemeOAuth2, types.SecuritySchemeOpenIDConnect:
		headers.Set("Authorization", "Bearer "+credential)
		return true

	default:
		return false
	}
}
