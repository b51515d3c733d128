package protoconv

import (
	a2apb "github.com/a2aproject/a2a-go/a2apb"

	types "github.com/inference-gateway/a2a/types"
)

func oauthFlowsToProto(flows *types.OAuthFlows) *a2apb.OAuthFlows {
	if flows == nil {
		return nil
	}

	out := &a2apb.OAuthFlows{}
	if f := flows.AuthorizationCode; f != nil {
		flow := &a2apb.AuthorizationCodeOAuthFlow{
			AuthorizationUrl: f.AuthorizationURL,
			TokenUrl:         f.TokenURL,
			Scopes:           f.Scopes,
		}
		if f.RefreshURL != nil {
			flow.RefreshUrl = *f.RefreshURL
		}
		out.Flow = &a2apb.OAuthFlows_AuthorizationCode{AuthorizationCode: flow}
	}
	if f := flows.ClientCredentials; f != nil {
		flow := &a2apb.ClientCredentialsOAuthFlow{
			TokenUrl: f.TokenURL,
			Scopes:   f.Scopes,
		}
		if f.RefreshURL != nil {
			flow.RefreshUrl = *f.RefreshURL
		}
		out.Flow = &a2apb.OAuthFlows_ClientCredentials{ClientCredentials: flow}
	}
	if f := flows.Implicit; f != nil {
		flow := &a2apb.ImplicitOAuthFlow{
			AuthorizationUrl: f.AuthorizationURL,
			Scopes:           f.Scopes,
		}
		if f.RefreshURL != nil {
			flow.RefreshUrl = *f.RefreshURL
		}
		out.Flow = &a2apb.OAuthFlows_Implicit{Implicit: flow}
	}
	if f := flows.Password; f != nil {
		flow := &a2apb.PasswordOAuthFlow{
			TokenUrl: f.TokenURL,
			Scopes:   f.Scopes,
		}
		if f.RefreshURL != nil {
			flow.RefreshUrl = *f.RefreshURL
		}
		out.Flow = &a2apb.OAuthFlows_Password{Password: flow}
	}
	return out
}

func oauthFlowsFromProto(flows *a2apb.OAuthFlows) *types.OAuthFlows {
	if flows == nil {
		return nil
	}

	out := &types.OAuthFlows{}
	switch f := flows.GetFlow().(type) {
	case *a2apb.OAuthFlows_AuthorizationCode:
		out.AuthorizationCode = &types.AuthorizationCodeOAuthFlow{
			AuthorizationURL: f.AuthorizationCode.GetAuthorizationUrl(),
			TokenURL:         f.AuthorizationCode.GetTokenUrl(),
			Scopes:           f.AuthorizationCode.GetScopes(),
		}
		if url := f.AuthorizationCode.GetRefreshUrl(); url != "" {
			out.AuthorizationCode.RefreshURL = types.StringPtr(url)
		}
	case *a2apb.OAuthFlows_ClientCredentials:
		out.ClientCredentials = &types.ClientCredentialsOAuthFlow{
			TokenURL: f.ClientCredentials.GetTokenUrl(),
			Scopes:   f.ClientCredentials.GetScopes(),
		}
		if url := f.ClientCredentials.GetRefreshUrl(); url != "" {
			out.ClientCredentials.RefreshURL = types.StringPtr(url)
		}
	case *a2apb.OAuthFlows_Implicit:
		out.Implicit = &types.ImplicitOAuthFlow{
			AuthorizationURL: f.Implicit.GetAuthorizationUrl(),
			Scopes:           f.Implicit.GetScopes(),
		}
		if url := f.Implicit.GetRefreshUrl(); url != "" {
			out.Implicit.RefreshURL = types.StringPtr(url)
		}
	case *a2apb.OAuthFlows_Password:
		out.Password = &types.PasswordOAuthFlow{
			TokenURL: f.Password.GetTokenUrl(),
			Scopes:   f.Password.GetScopes(),
		}
		if url := f.Password.GetRefreshUrl(); url != "" {
			out.Password.RefreshURL = types.StringPtr(url)
		}
	}
	return out
}

func securitySchemeToProto(scheme types.SecurityScheme) *a2apb.SecurityScheme {
	description := ""
	if scheme.Description != nil {
		description = *scheme.Description
	}

	switch scheme.Type {
	case types.SecuritySchemeAPIKey:
		return &a2apb.SecurityScheme{Scheme: &a2apb.SecurityScheme_ApiKeySecurityScheme{
			ApiKeySecurityScheme: &a2apb.APIKeySecurityScheme{
				Description: description,
				Name:        scheme.Name,
				Location:    scheme.In,
			},
		}}
	case types.SecuritySchemeHTTP:
		out := &a2apb.HTTPAuthSecurityScheme{
			Description: description,
			Scheme:      scheme.Scheme,
		}
		if scheme.BearerFormat != nil {
			out.BearerFormat = *scheme.BearerFormat
		}
		return &a2apb.SecurityScheme{Scheme: &a2apb.SecurityScheme_HttpAuthSecurityScheme{
			HttpAuthSecurityScheme: out,
		}}
	case types.SecuritySchemeOAuth2:
		return &a2apb.SecurityScheme{Scheme: &a2apb.SecurityScheme_Oauth2SecurityScheme{
			Oauth2SecurityScheme: &a2apb.OAuth2SecurityScheme{
				Description: description,
				Flows:       oauthFlowsToProto(scheme.Flows),
			},
		}}
	case types.SecuritySchemeOpenIDConnect:
		return &a2apb.SecurityScheme{Scheme: &a2apb.SecurityScheme_OpenIdConnectSecurityScheme{
			OpenIdConnectSecurityScheme: &a2apb.OpenIdConnectSecurityScheme{
				Description:      description,
				OpenIdConnectUrl: scheme.OpenIDConnectURL,
			},
		}}
	case types.SecuritySchemeMutualTLS:
		return &a2apb.SecurityScheme{Scheme: &a2apb.SecurityScheme_MtlsSecurityScheme{
			MtlsSecurityScheme: &a2apb.MutualTlsSecurityScheme{
				Description: description,
			},
		}}
	default:
		return nil
	}
}

func securitySchemeFromProto(scheme *a2apb.SecurityScheme) (types.SecurityScheme, bool) {
	describe := func(out *types.SecurityScheme, description string) {
		if description != "" {
			out.Description = types.StringPtr(description)
		}
	}

	switch s := scheme.GetScheme().(type) {
	case *a2apb.SecurityScheme_ApiKeySecurityScheme:
		out := types.SecurityScheme{
			Type: types.SecuritySchemeAPIKey,
			Name: s.ApiKeySecurityScheme.GetName(),
			In:   s.ApiKeySecurityScheme.GetLocation(),
		}
		describe(&out, s.ApiKeySecurityScheme.GetDescription())
		return out, true
	case *a2apb.SecurityScheme_HttpAuthSecurityScheme:
		out := types.SecurityScheme{
			Type:   types.SecuritySchemeHTTP,
			Scheme: s.HttpAuthSecurityScheme.GetScheme(),
		}
		if format := s.HttpAuthSecurityScheme.GetBearerFormat(); format != "" {
			out.BearerFormat = types.StringPtr(format)
		}
		describe(&out, s.HttpAuthSecurityScheme.GetDescription())
		return out, true
	case *a2apb.SecurityScheme_Oauth2SecurityScheme:
		out := types.SecurityScheme{
			Type:  types.SecuritySchemeOAuth2,
			Flows: oauthFlowsFromProto(s.Oauth2SecurityScheme.GetFlows()),
		}
		describe(&out, s.Oauth2SecurityScheme.GetDescription())
		return out, true
	case *a2apb.SecurityScheme_OpenIdConnectSecurityScheme:
		out := types.SecurityScheme{
			Type:             types.SecuritySchemeOpenIDConnect,
			OpenIDConnectURL: s.OpenIdConnectSecurityScheme.GetOpenIdConnectUrl(),
		}
		describe(&out, s.OpenIdConnectSecurityScheme.GetDescription())
		return out, true
	case *a2apb.SecurityScheme_MtlsSecurityScheme:
		out := types.SecurityScheme{Type: types.SecuritySchemeMutualTLS}
		describe(&out, s.MtlsSecurityScheme.GetDescription())
		return out, true
	default:
		return types.SecurityScheme{}, false
	}
}

// CardToProto converts an agent card.
func CardToProto(card *types.AgentCard) *a2apb.AgentCard {
	if card == nil {
		return nil
	}

	out := &a2apb.AgentCard{
		Name:               card.Name,
		Description:        card.Description,
		Url:                card.URL,
		Version:            card.Version,
		ProtocolVersion:    card.ProtocolVersion,
		PreferredTransport: card.PreferredTransport,
		DefaultInputModes:  card.DefaultInputModes,
		DefaultOutputModes: card.DefaultOutputModes,
		Capabilities: &a2apb.AgentCapabilities{
			Streaming:         card.SupportsStreaming(),
			PushNotifications: card.SupportsPushNotifications(),
		},
	}
	if card.DocumentationURL != nil {
		out.DocumentationUrl = *card.DocumentationURL
	}
	if card.Provider != nil {
		out.Provider = &a2apb.AgentProvider{
			Organization: card.Provider.Organization,
			Url:          card.Provider.URL,
		}
	}
	for _, ext := range card.Capabilities.Extensions {
		converted := &a2apb.AgentExtension{Uri: ext.URI}
		if ext.Description != nil {
			converted.Description = *ext.Description
		}
		if ext.Required != nil {
			converted.Required = *ext.Required
		}
		if params, err := metadataToProto(ext.Params); err == nil {
			converted.Params = params
		}
		out.Capabilities.Extensions = append(out.Capabilities.Extensions, converted)
	}
	for _, iface := range card.AdditionalInterfaces {
		out.AdditionalInterfaces = append(out.AdditionalInterfaces, &a2apb.AgentInterface{
			Url:       iface.URL,
			Transport: iface.Transport,
		})
	}
	for _, skill := range card.Skills {
		out.Skills = append(out.Skills, &a2apb.AgentSkill{
			Id:          skill.ID,
			Name:        skill.Name,
			Description: skill.Description,
			Tags:        skill.Tags,
			Examples:    skill.Examples,
			InputModes:  skill.InputModes,
			OutputModes: skill.OutputModes,
		})
	}
	if len(card.SecuritySchemes) > 0 {
		out.SecuritySchemes = make(map[string]*a2apb.SecurityScheme, len(card.SecuritySchemes))
		for name, scheme := range card.SecuritySchemes {
			if converted := securitySchemeToProto(scheme); converted != nil {
				out.SecuritySchemes[name] = converted
			}
		}
	}
	for _, requirement := range card.Security {
		converted := &a2apb.Security{Schemes: make(map[string]*a2apb.StringList, len(requirement))}
		for name, scopes := range requirement {
			converted.Schemes[name] = &a2apb.StringList{List: scopes}
		}
		out.Security = append(out.Security, converted)
	}
	if card.SupportsAuthenticatedExtendedCard != nil {
		out.SupportsAuthenticatedExtendedCard = *card.SupportsAuthenticatedExtendedCard
	}
	return out
}

// CardFromProto converts a proto agent card.
func CardFromProto(card *a2apb.AgentCard) *types.AgentCard {
	if card == nil {
		return nil
	}

	out := &types.AgentCard{
		Name:               card.GetName(),
		Description:        card.GetDescription(),
		URL:                card.GetUrl(),
		Version:            card.GetVersion(),
		ProtocolVersion:    card.GetProtocolVersion(),
		PreferredTransport: card.GetPreferredTransport(),
		DefaultInputModes:  card.GetDefaultInputModes(),
		DefaultOutputModes: card.GetDefaultOutputModes(),
		Capabilities: types.AgentCapabilities{
			Streaming:         types.BoolPtr(card.GetCapabilities().GetStreaming()),
			PushNotifications: types.BoolPtr(card.GetCapabilities().GetPushNotifications()),
		},
	}
	if url := card.GetDocumentationUrl(); url != "" {
		out.DocumentationURL = types.StringPtr(url)
	}
	if provider := card.GetProvider(); provider != nil {
		out.Provider = &types.AgentProvider{
			Organization: provider.GetOrganization(),
			URL:          provider.GetUrl(),
		}
	}
	for _, ext := range card.GetCapabilities().GetExtensions() {
		converted := types.AgentExtension{
			URI:    ext.GetUri(),
			Params: metadataFromProto(ext.GetParams()),
		}
		if desc := ext.GetDescription(); desc != "" {
			converted.Description = types.StringPtr(desc)
		}
		if ext.GetRequired() {
			converted.Required = types.BoolPtr(true)
		}
		out.Capabilities.Extensions = append(out.Capabilities.Extensions, converted)
	}
	for _, iface := range card.GetAdditionalInterfaces() {
		out.AdditionalInterfaces = append(out.AdditionalInterfaces, types.AgentInterface{
			URL:       iface.GetUrl(),
			Transport: iface.GetTransport(),
		})
	}
	for _, skill := range card.GetSkills() {
		out.Skills = append(out.Skills, types.AgentSkill{
			ID:          skill.GetId(),
			Name:        skill.GetName(),
			Description: skill.GetDescription(),
			Tags:        skill.GetTags(),
			Examples:    skill.GetExamples(),
			InputModes:  skill.GetInputModes(),
			OutputModes: skill.GetOutputModes(),
		})
	}
	if schemes := card.GetSecuritySchemes(); len(schemes) > 0 {
		out.SecuritySchemes = make(map[string]types.SecurityScheme, len(schemes))
		for name, scheme := range schemes {
			if converted, ok := securitySchemeFromProto(scheme); ok {
				out.SecuritySchemes[name] = converted
			}
		}
	}
	for _, requirement := range card.GetSecurity() {
		converted := make(map[string][]string, len(requirement.GetSchemes()))
		for name, scopes := range requirement.GetSchemes() {
			converted[name] = scopes.GetList()
		}
		out.Security = append(out.Security, converted)
	}
	if card.GetSupportsAuthenticatedExtendedCard() {
		out.SupportsAuthenticatedExtendedCard = types.BoolPtr(true)
	}
	return out
}
