package client_test

import (
	"testing"

	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"

	client "github.com/inference-gateway/a2a/client"
	types "github.com/inference-gateway/a2a/types"
)

func negotiationCard(preferred string, additional ...types.AgentInterface) *types.AgentCard {
	return &types.AgentCard{
		Name:                 "agent",
		URL:                  "https://agent.example.com",
		PreferredTransport:   preferred,
		AdditionalInterfaces: additional,
	}
}

func TestFactoryNegotiationServerPreference(t *testing.T) {
	factory := client.NewFactory(&client.ClientConfig{
		SupportedTransports: []string{types.TransportJSONRPC},
	}, nil)

	card := negotiationCard(types.TransportGRPC,
		types.AgentInterface{Transport: types.TransportGRPC, URL: "grpc.example.com:50051"},
		types.AgentInterface{Transport: types.TransportJSONRPC, URL: "https://agent.example.com"},
	)

	label, err := factory.NegotiateTransport(card)
	require.NoError(t, err)
	assert.Equal(t, types.TransportJSONRPC, label)
}

func TestFactoryNegotiationClientPreference(t *testing.T) {
	factory := client.NewFactory(&client.ClientConfig{
		SupportedTransports: []string{types.TransportREST, types.TransportJSONRPC},
		UseClientPreference: true,
	}, nil)

	card := negotiationCard(types.TransportJSONRPC,
		types.AgentInterface{Transport: types.TransportREST, URL: "https://agent.example.com"},
	)

	label, err := factory.NegotiateTransport(card)
	require.NoError(t, err)
	assert.Equal(t, types.TransportREST, label)
}

func TestFactoryNegotiationNoOverlap(t *testing.T) {
	factory := client.NewFactory(&client.ClientConfig{
		SupportedTransports: []string{types.TransportREST},
	}, nil)

	card := negotiationCard(types.TransportGRPC)

	_, err := factory.NegotiateTransport(card)
	require.ErrorIs(t, err, client.ErrNoCompatibleTransport)
}

func TestFactoryDefaultsToJSONRPC(t *testing.T) {
	factory := client.NewFactory(nil, nil)

	card := negotiationCard("")
	label, err := factory.NegotiateTransport(card)
	require.NoError(t, err)
	assert.Equal(t, types.TransportJSONRPC, label)
}

func TestFactoryCreateBuildsJSONRPCClient(t *testing.T) {
	factory := client.NewFactory(nil, nil)

	c, err := factory.Create(negotiationCard(types.TransportJSONRPC))
	require.NoError(t, err)
	defer func() {
		require.NoError(t, c.Close())
	}()

	_, ok := c.Transport().(*client.JSONRPCTransport)
	assert.True(t, ok, "expected a JSON-RPC transport, got %T", c.Transport())
}

func TestFactoryCreateFailsWithoutURL(t *testing.T) {
	factory := client.NewFactory(&client.ClientConfig{
		SupportedTransports: []string{types.TransportREST},
	}, nil)

	card := negotiationCard(types.TransportREST)
	card.URL = ""

	_, err := factory.Create(card)
	assert.Error(t, err)
}

func TestMinimalAgentCard(t *testing.T) {
	card := client.MinimalAgentCard("https://agent.example.com", "", true)
	assert.Equal(t, types.TransportJSONRPC, card.PreferredTransport)
	assert.True(t, card.SupportsStreaming())
	assert.Equal(t, "https://agent.example.com", card.TransportURL(types.TransportJSONRPC))
}
