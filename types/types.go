package types

import "time"

// Role identifies the sender of a message.
type Role string

// Role enum values
const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// TaskState represents the lifecycle state of a task.
type TaskState string

// TaskState enum values
const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateWorking       TaskState = "working"
	TaskStateInputRequired TaskState = "input-required"
	TaskStateAuthRequired  TaskState = "auth-required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateCanceled      TaskState = "canceled"
	TaskStateFailed        TaskState = "failed"
	TaskStateRejected      TaskState = "rejected"
	TaskStateUnknown       TaskState = "unknown"
)

// Terminal reports whether the state is final. Once a task reaches a
// terminal state no further state transitions are valid.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateCanceled, TaskStateFailed, TaskStateRejected:
		return true
	default:
		return false
	}
}

// ProtocolVersion is the A2A protocol revision this module implements.
const ProtocolVersion = "0.3.0"

// Transport protocol labels used in agent cards and client negotiation.
const (
	TransportJSONRPC = "JSONRPC"
	TransportGRPC    = "GRPC"
	TransportREST    = "HTTP+JSON"
)

// Well-known discovery paths.
const (
	AgentCardWellKnownPath = "/.well-known/agent-card.json"
	ExtendedAgentCardPath  = "/agent/authenticatedExtendedCard"
)

// Message is one unit of communication between client and agent. It is
// associated with a context and optionally a task.
type Message struct {
	Kind             string         `json:"kind"`
	MessageID        string         `json:"messageId"`
	Role             Role           `json:"role"`
	Parts            []Part         `json:"parts"`
	ContextID        *string        `json:"contextId,omitempty"`
	TaskID           *string        `json:"taskId,omitempty"`
	ReferenceTaskIDs []string       `json:"referenceTaskIds,omitempty"`
	Extensions       []string       `json:"extensions,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// Task is the core unit of long-running work. It has a current status,
// accumulated artifacts and the message history that produced it.
type Task struct {
	Kind      string         `json:"kind"`
	ID        string         `json:"id"`
	ContextID string         `json:"contextId"`
	Status    TaskStatus     `json:"status"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	History   []Message      `json:"history,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// TaskStatus is a container for the current state of a task.
type TaskStatus struct {
	State     TaskState  `json:"state"`
	Message   *Message   `json:"message,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Artifact is a named, incrementally built output attached to a task.
type Artifact struct {
	ArtifactID  string         `json:"artifactId"`
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Parts       []Part         `json:"parts"`
	Extensions  []string       `json:"extensions,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// TaskStatusUpdateEvent notifies the client of a change in a task's status.
// Final marks the end of the event stream for the task.
type TaskStatusUpdateEvent struct {
	Kind      string         `json:"kind"`
	TaskID    string         `json:"taskId"`
	ContextID string         `json:"contextId"`
	Status    TaskStatus     `json:"status"`
	Final     bool           `json:"final"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// TaskArtifactUpdateEvent carries a task artifact delta. Append controls
// whether parts extend an existing artifact of the same id or replace it;
// LastChunk marks the final update for that artifact.
type TaskArtifactUpdateEvent struct {
	Kind      string         `json:"kind"`
	TaskID    string         `json:"taskId"`
	ContextID string         `json:"contextId"`
	Artifact  Artifact       `json:"artifact"`
	Append    *bool          `json:"append,omitempty"`
	LastChunk *bool          `json:"lastChunk,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// MessageSendConfiguration tunes a message/send request.
type MessageSendConfiguration struct {
	AcceptedOutputModes    []string                `json:"acceptedOutputModes,omitempty"`
	Blocking               bool                    `json:"blocking,omitempty"`
	HistoryLength          *int                    `json:"historyLength,omitempty"`
	PushNotificationConfig *PushNotificationConfig `json:"pushNotificationConfig,omitempty"`
}

// MessageSendParams are the parameters for message/send and message/stream.
type MessageSendParams struct {
	Message       Message                   `json:"message"`
	Configuration *MessageSendConfiguration `json:"configuration,omitempty"`
	Metadata      map[string]any            `json:"metadata,omitempty"`
}

// TaskQueryParams are the parameters for tasks/get.
type TaskQueryParams struct {
	ID            string         `json:"id"`
	HistoryLength *int           `json:"historyLength,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// TaskIDParams identify a task for tasks/cancel and tasks/resubscribe.
type TaskIDParams struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// AuthenticationInfo defines authentication details for push notifications.
type AuthenticationInfo struct {
	Schemes     []string `json:"schemes"`
	Credentials *string  `json:"credentials,omitempty"`
}

// PushNotificationConfig configures where task updates are POSTed.
type PushNotificationConfig struct {
	ID             *string             `json:"id,omitempty"`
	URL            string              `json:"url"`
	Token          *string             `json:"token,omitempty"`
	Authentication *AuthenticationInfo `json:"authentication,omitempty"`
}

// TaskPushNotificationConfig associates a push notification config with a task.
type TaskPushNotificationConfig struct {
	TaskID                 string                 `json:"taskId"`
	PushNotificationConfig PushNotificationConfig `json:"pushNotificationConfig"`
}

// GetTaskPushNotificationConfigParams are the parameters for
// tasks/pushNotificationConfig/get.
type GetTaskPushNotificationConfigParams struct {
	ID                       string         `json:"id"`
	PushNotificationConfigID *string        `json:"pushNotificationConfigId,omitempty"`
	Metadata                 map[string]any `json:"metadata,omitempty"`
}

// ListTaskPushNotificationConfigParams are the parameters for
// tasks/pushNotificationConfig/list.
type ListTaskPushNotificationConfigParams struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DeleteTaskPushNotificationConfigParams are the parameters for
// tasks/pushNotificationConfig/delete.
type DeleteTaskPushNotificationConfigParams struct {
	ID                       string         `json:"id"`
	PushNotificationConfigID string         `json:"pushNotificationConfigId"`
	Metadata                 map[string]any `json:"metadata,omitempty"`
}

// AgentCapabilities describes optional features supported by an agent.
type AgentCapabilities struct {
	Streaming              *bool            `json:"streaming,omitempty"`
	PushNotifications      *bool            `json:"pushNotifications,omitempty"`
	StateTransitionHistory *bool            `json:"stateTransitionHistory,omitempty"`
	Extensions             []AgentExtension `json:"extensions,omitempty"`
}

// AgentExtension declares a protocol extension supported by an agent.
type AgentExtension struct {
	URI         string         `json:"uri"`
	Description *string        `json:"description,omitempty"`
	Required    *bool          `json:"required,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

// AgentProvider identifies the service provider of an agent.
type AgentProvider struct {
	Organization string `json:"organization"`
	URL          string `json:"url"`
}

// AgentInterface declares an additional transport endpoint for an agent.
type AgentInterface struct {
	Transport string `json:"transport"`
	URL       string `json:"url"`
}

// AgentSkill describes a distinct capability the agent can perform.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Examples    []string `json:"examples,omitempty"`
	InputModes  []string `json:"inputModes,omitempty"`
	OutputModes []string `json:"outputModes,omitempty"`
}

// Security scheme type discriminator values.
const (
	SecuritySchemeAPIKey        = "apiKey"
	SecuritySchemeHTTP          = "http"
	SecuritySchemeOAuth2        = "oauth2"
	SecuritySchemeOpenIDConnect = "openIdConnect"
	SecuritySchemeMutualTLS     = "mutualTLS"
)

// SecurityScheme describes how an agent's endpoints are secured. The Type
// field discriminates which of the optional fields apply.
type SecurityScheme struct {
	Type             string      `json:"type"`
	Description      *string     `json:"description,omitempty"`
	Name             string      `json:"name,omitempty"`
	In               string      `json:"in,omitempty"`
	Scheme           string      `json:"scheme,omitempty"`
	BearerFormat     *string     `json:"bearerFormat,omitempty"`
	Flows            *OAuthFlows `json:"flows,omitempty"`
	OpenIDConnectURL string      `json:"openIdConnectUrl,omitempty"`
}

// OAuthFlows configures the supported OAuth 2.0 flows.
type OAuthFlows struct {
	AuthorizationCode *AuthorizationCodeOAuthFlow `json:"authorizationCode,omitempty"`
	ClientCredentials *ClientCredentialsOAuthFlow `json:"clientCredentials,omitempty"`
	Implicit          *ImplicitOAuthFlow          `json:"implicit,omitempty"`
	Password          *PasswordOAuthFlow          `json:"password,omitempty"`
}

// AuthorizationCodeOAuthFlow configures the OAuth 2.0 authorization code flow.
type AuthorizationCodeOAuthFlow struct {
	AuthorizationURL string            `json:"authorizationUrl"`
	TokenURL         string            `json:"tokenUrl"`
	RefreshURL       *string           `json:"refreshUrl,omitempty"`
	Scopes           map[string]string `json:"scopes"`
}

// ClientCredentialsOAuthFlow configures the OAuth 2.0 client credentials flow.
type ClientCredentialsOAuthFlow struct {
	TokenURL   string            `json:"tokenUrl"`
	RefreshURL *string           `json:"refreshUrl,omitempty"`
	Scopes     map[string]string `json:"scopes"`
}

// ImplicitOAuthFlow configures the OAuth 2.0 implicit flow.
type ImplicitOAuthFlow struct {
	AuthorizationURL string            `json:"authorizationUrl"`
	RefreshURL       *string           `json:"refreshUrl,omitempty"`
	Scopes           map[string]string `json:"scopes"`
}

// PasswordOAuthFlow configures the OAuth 2.0 resource owner password flow.
type PasswordOAuthFlow struct {
	TokenURL   string            `json:"tokenUrl"`
	RefreshURL *string           `json:"refreshUrl,omitempty"`
	Scopes     map[string]string `json:"scopes"`
}

// AgentCard is a self-describing manifest for an agent: identity,
// capabilities, skills, transport endpoints and security requirements.
type AgentCard struct {
	Name                              string                    `json:"name"`
	Description                       string                    `json:"description"`
	URL                               string                    `json:"url"`
	Version                           string                    `json:"version"`
	ProtocolVersion                   string                    `json:"protocolVersion,omitempty"`
	DocumentationURL                  *string                   `json:"documentationUrl,omitempty"`
	Provider                          *AgentProvider            `json:"provider,omitempty"`
	PreferredTransport                string                    `json:"preferredTransport,omitempty"`
	AdditionalInterfaces              []AgentInterface          `json:"additionalInterfaces,omitempty"`
	Capabilities                      AgentCapabilities         `json:"capabilities"`
	SecuritySchemes                   map[string]SecurityScheme `json:"securitySchemes,omitempty"`
	Security                          []map[string][]string     `json:"security,omitempty"`
	DefaultInputModes                 []string                  `json:"defaultInputModes"`
	DefaultOutputModes                []string                  `json:"defaultOutputModes"`
	Skills                            []AgentSkill              `json:"skills"`
	SupportsAuthenticatedExtendedCard *bool                     `json:"supportsAuthenticatedExtendedCard,omitempty"`
}

// SupportsStreaming reports whether the card advertises streaming capability.
func (c *AgentCard) SupportsStreaming() bool {
	return c.Capabilities.Streaming != nil && *c.Capabilities.Streaming
}

// SupportsPushNotifications reports whether the card advertises push
// notification capability.
func (c *AgentCard) SupportsPushNotifications() bool {
	return c.Capabilities.PushNotifications != nil && *c.Capabilities.PushNotifications
}

// ServerPreferredTransports returns the server's ordered transport
// preference list: the preferred transport first, followed by the
// transports of any additional interfaces.
func (c *AgentCard) ServerPreferredTransports() []string {
	preferred := c.PreferredTransport
	if preferred == "" {
		preferred = TransportJSONRPC
	}
	out := []string{preferred}
	for _, iface := range c.AdditionalInterfaces {
		out = append(out, iface.Transport)
	}
	return out
}

// TransportURL returns the endpoint URL advertised for the given transport,
// falling back to the card's primary URL.
func (c *AgentCard) TransportURL(transport string) string {
	if c.PreferredTransport == transport || c.PreferredTransport == "" && transport == TransportJSONRPC {
		return c.URL
	}
	for _, iface := range c.AdditionalInterfaces {
		if iface.Transport == transport {
			return iface.URL
		}
	}
	return c.URL
}

// BoolPtr returns a pointer to the given bool.
func BoolPtr(v bool) *bool { return &v }

// StringPtr returns a pointer to the given string.
func StringPtr(v string) *string { return &v }

// IntPtr returns a pointer to the given int.
func IntPtr(v int) *int { return &v }

// TimePtr returns a pointer to the given time.
func TimePtr(t time.Time) *time.Time { return &t }
