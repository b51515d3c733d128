package middlewares

import (
	"context"
	"net/http"
	"strings"

	oidcV3 "github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	config "github.com/inference-gateway/a2a/server/config"
	"github.com/inference-gateway/a2a/types"
)

type contextKey string

// Context keys under which the authenticator stores the verified credentials.
const (
	AuthTokenContextKey contextKey = "authToken"
	IDTokenContextKey   contextKey = "idToken"
)

// OIDCAuthenticator verifies bearer tokens against an OIDC provider.
type OIDCAuthenticator interface {
	Middleware() gin.HandlerFunc
}

// OIDCAuthenticatorImpl holds the provider verifier built at startup.
type OIDCAuthenticatorImpl struct {
	logger   *zap.Logger
	verifier *oidcV3.IDTokenVerifier
	config   oauth2.Config
}

// OIDCAuthenticatorNoop passes every request through unchanged.
type OIDCAuthenticatorNoop struct{}

// NewOIDCAuthenticatorMiddleware builds an authenticator from the auth
// config. Disabled or incompletely configured auth yields the noop variant,
// so callers can always install the returned middleware.
func NewOIDCAuthenticatorMiddleware(logger *zap.Logger, cfg config.Config) (OIDCAuthenticator, error) {
	auth := cfg.AuthConfig
	if !auth.Enable {
		return &OIDCAuthenticatorNoop{}, nil
	}

	if auth.IssuerURL == "" || auth.ClientID == "" || auth.ClientSecret == "" {
		logger.Warn("auth enabled but issuer or client credentials missing, authentication disabled")
		return &OIDCAuthenticatorNoop{}, nil
	}

	provider, err := oidcV3.NewProvider(context.Background(), auth.IssuerURL)
	if err != nil {
		return nil, err
	}

	return &OIDCAuthenticatorImpl{
		logger:   logger,
		verifier: provider.Verifier(&oidcV3.Config{ClientID: auth.ClientID}),
		config: oauth2.Config{
			ClientID:     auth.ClientID,
			ClientSecret: auth.ClientSecret,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidcV3.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

// Middleware rejects requests without a verifiable bearer token and stores
// the raw and parsed token on the request context for downstream handlers.
func (auth *OIDCAuthenticatorImpl) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, ok := bearerToken(c)
		if !ok {
			auth.logger.Error("missing or malformed authorization header")
			abortUnauthorized(c, "missing or malformed authorization header")
			return
		}

		idToken, err := auth.verifier.Verify(c.Request.Context(), rawToken)
		if err != nil {
			auth.logger.Error("failed to verify id token", zap.Error(err))
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Set(string(AuthTokenContextKey), rawToken)
		c.Set(string(IDTokenContextKey), idToken)
		c.Next()
	}
}

// Middleware is a pass-through when authentication is disabled.
func (auth *OIDCAuthenticatorNoop) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(header, "Bearer "), true
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": message})
	c.Abort()
}

// SecurityValidator enforces the security requirements an agent card
// advertises: a request is admitted when it satisfies every scheme of at
// least one requirement group.
type SecurityValidator interface {
	ValidateSecurityRequirements(agentCard *types.AgentCard) gin.HandlerFunc
}

// SecurityValidatorImpl validates requests against card requirements.
type SecurityValidatorImpl struct {
	logger *zap.Logger
	config config.Config
}

// SecurityValidatorNoop admits every request.
type SecurityValidatorNoop struct{}

// NewSecurityValidator returns a validator, or the noop variant when auth is
// disabled.
func NewSecurityValidator(logger *zap.Logger, cfg config.Config) SecurityValidator {
	if !cfg.AuthConfig.Enable {
		return &SecurityValidatorNoop{}
	}
	return &SecurityValidatorImpl{logger: logger, config: cfg}
}

// ValidateSecurityRequirements builds the enforcement middleware for the
// given card. A card without security requirements admits everything.
func (sv *SecurityValidatorImpl) ValidateSecurityRequirements(agentCard *types.AgentCard) gin.HandlerFunc {
	return func(c *gin.Context) {
		if agentCard == nil || len(agentCard.Security) == 0 {
			c.Next()
			return
		}

		for _, group := range agentCard.Security {
			if sv.groupSatisfied(c, agentCard, group) {
				c.Next()
				return
			}
		}

		sv.logger.Error("request satisfied no security requirement group")
		abortUnauthorized(c, "authentication credentials not provided or invalid")
	}
}

// groupSatisfied reports whether the request presents credentials for every
// scheme named by the requirement group.
func (sv *SecurityValidatorImpl) groupSatisfied(c *gin.Context, card *types.AgentCard, group map[string][]string) bool {
	for name := range group {
		scheme, ok := card.SecuritySchemes[name]
		if !ok {
			sv.logger.Warn("agent card names an undeclared security scheme", zap.String("scheme", name))
			return false
		}
		if !sv.schemeSatisfied(c, name, scheme) {
			return false
		}
	}
	return true
}

func (sv *SecurityValidatorImpl) schemeSatisfied(c *gin.Context, name string, scheme types.SecurityScheme) bool {
	switch scheme.Type {
	case types.SecuritySchemeOpenIDConnect:
		// The OIDC middleware stores the verified token on the context.
		token, ok := c.Get(string(IDTokenContextKey))
		return ok && token != nil
	case types.SecuritySchemeHTTP, types.SecuritySchemeOAuth2:
		return sv.httpAuthPresent(c, scheme)
	case types.SecuritySchemeAPIKey:
		return apiKeyPresent(c, scheme)
	case types.SecuritySchemeMutualTLS:
		return c.Request.TLS != nil && len(c.Request.TLS.PeerCertificates) > 0
	default:
		sv.logger.Warn("unsupported security scheme type",
			zap.String("scheme", name),
			zap.String("type", string(scheme.Type)))
		return false
	}
}

// httpAuthPresent checks the Authorization header against the scheme. OAuth2
// access tokens arrive as bearer credentials the same way HTTP bearer auth
// does.
func (sv *SecurityValidatorImpl) httpAuthPresent(c *gin.Context, scheme types.SecurityScheme) bool {
	header := strings.ToLower(c.GetHeader("Authorization"))
	if header == "" {
		return false
	}

	switch {
	case scheme.Scheme == "bearer" || scheme.Type == types.SecuritySchemeOAuth2:
		return strings.HasPrefix(header, "bearer ")
	case scheme.Scheme == "basic":
		return strings.HasPrefix(header, "basic ")
	default:
		return false
	}
}

// apiKeyPresent looks for the key in the location the scheme declares.
func apiKeyPresent(c *gin.Context, scheme types.SecurityScheme) bool {
	switch scheme.In {
	case "header":
		return c.GetHeader(scheme.Name) != ""
	case "query":
		return c.Query(scheme.Name) != ""
	case "cookie":
		value, err := c.Cookie(scheme.Name)
		return err == nil && value != ""
	default:
		return false
	}
}

// ValidateSecurityRequirements is a pass-through when auth is disabled.
func (sv *SecurityValidatorNoop) ValidateSecurityRequirements(agentCard *types.AgentCard) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
	}
}
