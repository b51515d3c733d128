package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"

	client "github.com/inference-gateway/a2a/client"
	types "github.com/inference-gateway/a2a/types"
)

func TestCardResolverResolvesWellKnownCard(t *testing.T) {
	card := types.AgentCard{
		Name:               "weather-agent",
		Description:        "answers weather questions",
		URL:                "https://weather.example.com",
		Version:            "1.0.0",
		PreferredTransport: types.TransportJSONRPC,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, types.AgentCardWellKnownPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(card))
	}))
	defer server.Close()

	resolver := client.NewCardResolver(server.Client(), server.URL, nil)
	resolved, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, card.Name, resolved.Name)
	assert.Equal(t, card.URL, resolved.URL)
}

func TestCardResolverForwardsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, types.ExtendedAgentCardPath, r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(types.AgentCard{Name: "extended"}))
	}))
	defer server.Close()

	resolver := client.NewCardResolver(server.Client(), server.URL, nil)

	_, err := resolver.ResolvePath(context.Background(), types.ExtendedAgentCardPath, nil)
	var httpErr *client.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)

	headers := http.Header{}
	headers.Set("Authorization", "Bearer tok")
	card, err := resolver.ResolvePath(context.Background(), types.ExtendedAgentCardPath, headers)
	require.NoError(t, err)
	assert.Equal(t, "extended", card.Name)
}

func TestCardResolverRejectsMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	resolver := client.NewCardResolver(server.Client(), server.URL, nil)
	_, err := resolver.Resolve(context.Background())
	var jsonErr *client.JSONError
	require.ErrorAs(t, err, &jsonErr)
}
