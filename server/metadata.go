package server

// Build-time metadata variables set via LD flags
var (
	BuildAgentName        = "a2a-agent"
	BuildAgentDescription = "An A2A protocol agent"
	BuildAgentVersion     = "0.1.0"
)
