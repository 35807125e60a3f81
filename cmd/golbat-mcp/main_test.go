package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/golbat/config"
	"github.com/use-agent/golbat/models"
	"github.com/use-agent/golbat/pipeline"
)

func newFetcher(apiURL string) *fetcher {
	cfg := config.Load()
	cfg.Probe.Enabled = false
	return &fetcher{
		local:  pipeline.New(cfg.Fetch, cfg.Probe),
		apiURL: apiURL,
		apiKey: "k1",
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestRemote_Success(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metadata", r.URL.Path)
		assert.Equal(t, "https://example.com", r.URL.Query().Get("url"))
		assert.Equal(t, "true", r.URL.Query().Get("full"))
		assert.Equal(t, "k1", r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(`{"title":"Example"}`))
	}))
	defer api.Close()

	rec, err := newFetcher(api.URL).remote(context.Background(), "https://example.com", true)
	require.NoError(t, err)
	assert.Equal(t, "Example", rec["title"])
}

func TestRemote_ErrorBody(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Failed to fetch the URL: Not Found","code":"UPSTREAM_STATUS"}`))
	}))
	defer api.Close()

	_, err := newFetcher(api.URL).remote(context.Background(), "https://example.com/x", false)
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch the URL: Not Found", models.UserMessage(err))
}

func TestFetchMetadataTool_Loopback(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<title>Local</title><link rel="icon" href="/i.png">`))
	}))
	defer site.Close()

	// The API address is unreachable; loopback targets must not need it.
	h := handleFetchMetadata(newFetcher("http://127.0.0.1:1"))

	var req mcp.CallToolRequest
	req.Params.Arguments = map[string]any{"url": site.URL}
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)

	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	var rec map[string]string
	require.NoError(t, json.Unmarshal([]byte(text.Text), &rec))
	assert.Equal(t, "Local", rec["title"])
	assert.Equal(t, site.URL+"/i.png", rec["icon"])
}

func TestFetchMetadataTool_InvalidURL(t *testing.T) {
	h := handleFetchMetadata(newFetcher("http://127.0.0.1:1"))

	var req mcp.CallToolRequest
	req.Params.Arguments = map[string]any{"url": "   "}
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
