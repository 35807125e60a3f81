package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/golbat/config"
	"github.com/use-agent/golbat/engine"
	"github.com/use-agent/golbat/metadata"
	"github.com/use-agent/golbat/models"
	"github.com/use-agent/golbat/pipeline"
)

func main() {
	apiURL := os.Getenv("GOLBAT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}

	// stdout carries the MCP protocol; logs go to stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	cfg := config.Load()
	f := &fetcher{
		local:  pipeline.New(cfg.Fetch, cfg.Probe),
		apiURL: apiURL,
		apiKey: os.Getenv("GOLBAT_API_KEY"),
		client: &http.Client{Timeout: cfg.Fetch.Timeout + 2*cfg.Probe.Timeout + 5*time.Second},
	}

	s := server.NewMCPServer(
		"golbat",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	fetchMetadataTool := mcp.NewTool("fetch_metadata",
		mcp.WithDescription("Fetch a web page and return its metadata (title, description, Open Graph, Twitter card, icons, canonical links) plus robots.txt/sitemap.xml availability as a flat JSON object."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The page to inspect. A missing scheme defaults to https:// (http:// for localhost)."),
		),
		mcp.WithBoolean("full",
			mcp.Description("Also return every <meta> and <link> tag as meta_*/link_* fields (default: false)"),
		),
	)
	s.AddTool(fetchMetadataTool, handleFetchMetadata(f))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// fetcher runs loopback targets in-process and sends everything else to
// the golbat HTTP API.
type fetcher struct {
	local  *pipeline.Pipeline
	apiURL string
	apiKey string
	client *http.Client
}

func (f *fetcher) fetch(ctx context.Context, target string, full bool) (metadata.Record, error) {
	u, err := engine.ParseTarget(target)
	if err != nil {
		return nil, err
	}
	if engine.IsLoopback(u.Hostname()) {
		return f.local.Run(ctx, target, full)
	}
	return f.remote(ctx, target, full)
}

func (f *fetcher) remote(ctx context.Context, target string, full bool) (metadata.Record, error) {
	q := url.Values{}
	q.Set("url", target)
	if full {
		q.Set("full", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.apiURL+"/metadata?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if f.apiKey != "" {
		req.Header.Set("X-API-Key", f.apiKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp models.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
			return nil, fmt.Errorf("API returned HTTP %d", resp.StatusCode)
		}
		code := errResp.Code
		if code == "" {
			code = models.ErrCodeInternal
		}
		return nil, models.NewMetadataError(code, errResp.Error, nil)
	}

	var rec metadata.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return rec, nil
}

func handleFetchMetadata(f *fetcher) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		target, err := engine.FormatTarget(raw)
		if err != nil {
			return mcp.NewToolResultError(models.UserMessage(err)), nil
		}

		rec, err := f.fetch(ctx, target, request.GetBool("full", false))
		if err != nil {
			slog.Warn("fetch_metadata failed", "url", target, "error", err)
			return mcp.NewToolResultError(models.UserMessage(err)), nil
		}

		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}
