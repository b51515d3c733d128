package server

import (
	config "github.com/inference-gateway/a2a/server/config"
	types "github.com/inference-gateway/a2a/types"
)

// NewOIDCSecurityScheme creates an OpenID Connect security scheme
func NewOIDCSecurityScheme(openIDConnectURL string, description string) types.SecurityScheme {
	return types.SecurityScheme{
		Type:             types.SecuritySchemeOpenIDConnect,
		OpenIDConnectURL: openIDConnectURL,
		Description:      types.StringPtr(description),
	}
}

// NewAPIKeySecurityScheme creates an API key security scheme
func NewAPIKeySecurityScheme(name string, in string, description string) types.SecurityScheme {
	return types.SecurityScheme{
		Type:        types.SecuritySchemeAPIKey,
		Name:        name,
		In:          in,
		Description: types.StringPtr(description),
	}
}

// NewHTTPAuthSecurityScheme creates an HTTP authentication security scheme
func NewHTTPAuthSecurityScheme(scheme string, bearerFormat *string, description string) types.SecurityScheme {
	return types.SecurityScheme{
		Type:         types.SecuritySchemeHTTP,
		Scheme:       scheme,
		BearerFormat: bearerFormat,
		Description:  types.StringPtr(description),
	}
}

// NewOAuth2SecurityScheme creates an OAuth 2.0 security scheme
func NewOAuth2SecurityScheme(flows types.OAuthFlows, description string) types.SecurityScheme {
	return types.SecurityScheme{
		Type:        types.SecuritySchemeOAuth2,
		Flows:       &flows,
		Description: types.StringPtr(description),
	}
}

// NewMutualTLSSecurityScheme creates a mutual TLS security scheme
func NewMutualTLSSecurityScheme(description string) types.SecurityScheme {
	return types.SecurityScheme{
		Type:        types.SecuritySchemeMutualTLS,
		Description: types.StringPtr(description),
	}
}

// AgentCardSecurityConfig holds security configuration options for an agent card
type AgentCardSecurityConfig struct {
	EnableOIDC                        bool
	OIDCIssuerURL                     string
	SupportsAuthenticatedExtendedCard bool
	EnableAPIKey                      bool
	APIKeyName                        string
	APIKeyLocation                    string // "header", "query", "cookie"
	EnableMutualTLS                   bool
}

// ConfigureAgentCardSecurity adds security schemes and requirements to an
// agent card based on the supplied configuration. Any existing security
// requirements on the card are replaced.
func ConfigureAgentCardSecurity(card *types.AgentCard, securityConfig AgentCardSecurityConfig) {
	if card.SecuritySchemes == nil {
		card.SecuritySchemes = make(map[string]types.SecurityScheme)
	}

	card.Security = nil

	var securityRequirement map[string][]string
	requirement := func(name string) {
		if securityRequirement == nil {
			securityRequirement = make(map[string][]string)
		}
		securityRequirement[name] = []string{}
	}

	if securityConfig.EnableOIDC && securityConfig.OIDCIssuerURL != "" {
		card.SecuritySchemes["oidc"] = NewOIDCSecurityScheme(
			securityConfig.OIDCIssuerURL,
			"OpenID Connect authentication",
		)
		requirement("oidc")
	}

	if securityConfig.EnableAPIKey && securityConfig.APIKeyName != "" {
		location := securityConfig.APIKeyLocation
		if location == "" {
			location = "header"
		}
		card.SecuritySchemes["api_key"] = NewAPIKeySecurityScheme(
			securityConfig.APIKeyName,
			location,
			"API key authentication",
		)
		requirement("api_key")
	}

	if securityConfig.EnableMutualTLS {
		card.SecuritySchemes["mtls"] = NewMutualTLSSecurityScheme(
			"Mutual TLS authentication",
		)
		requirement("mtls")
	}

	if securityRequirement != nil {
		card.Security = []map[string][]string{securityRequirement}
	}

	card.SupportsAuthenticatedExtendedCard = types.BoolPtr(securityConfig.SupportsAuthenticatedExtendedCard)
}

// SecurityConfigFromAuthConfig derives agent card security configuration
// from the server's authentication configuration.
func SecurityConfigFromAuthConfig(authConfig config.AuthConfig) AgentCardSecurityConfig {
	return AgentCardSecurityConfig{
		EnableOIDC:    authConfig.Enable && authConfig.IssuerURL != "",
		OIDCIssuerURL: authConfig.IssuerURL,
	}
}
