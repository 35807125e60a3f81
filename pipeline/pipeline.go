// Package pipeline wires the fetch → extract → normalize → probe → assemble
// steps into a single call.
package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/use-agent/golbat/config"
	"github.com/use-agent/golbat/engine"
	"github.com/use-agent/golbat/metadata"
	"github.com/use-agent/golbat/models"
	"github.com/use-agent/golbat/probe"
)

// Pipeline produces a metadata record for a target URL. It holds no
// per-request state and is safe for concurrent use.
type Pipeline struct {
	remote engine.Engine
	direct engine.Engine

	// Probes reuse the client of the engine that fetched the page, so they
	// leave through the same proxy and TLS stack.
	remoteProber *probe.Runner
	directProber *probe.Runner
}

// New builds a Pipeline from configuration. Remote targets are fetched with
// the HTTP engine, loopback targets with the direct engine.
func New(fetchCfg config.FetchConfig, probeCfg config.ProbeConfig) *Pipeline {
	opts := engine.Options{
		UserAgent:    fetchCfg.UserAgent,
		Timeout:      fetchCfg.Timeout,
		MaxBodyBytes: fetchCfg.MaxBodyBytes,
		Proxy:        fetchCfg.Proxy,
		ChromeTLS:    fetchCfg.ChromeTLS,
	}
	remote := engine.NewHTTPEngine(opts)
	direct := engine.NewDirectEngine(opts)

	p := &Pipeline{remote: remote, direct: direct}
	if probeCfg.Enabled {
		p.remoteProber = newProber(fetchCfg, probeCfg, remote.Client())
		p.directProber = newProber(fetchCfg, probeCfg, direct.Client())
	}
	return p
}

func newProber(fetchCfg config.FetchConfig, probeCfg config.ProbeConfig, client *http.Client) *probe.Runner {
	return probe.NewRunner(probe.Options{
		UserAgent: fetchCfg.UserAgent,
		Timeout:   probeCfg.Timeout,
		Client:    client,
	})
}

// NewWithEngines builds a Pipeline from explicit parts. prober serves both
// remote and loopback targets; nil disables the auxiliary probes.
func NewWithEngines(remote, direct engine.Engine, prober *probe.Runner) *Pipeline {
	return &Pipeline{remote: remote, direct: direct, remoteProber: prober, directProber: prober}
}

// EngineFor picks the engine for target: direct for loopback hosts, remote
// for everything else.
func (p *Pipeline) EngineFor(target *url.URL) engine.Engine {
	if engine.IsLoopback(target.Hostname()) {
		return p.direct
	}
	return p.remote
}

func (p *Pipeline) proberFor(target *url.URL) *probe.Runner {
	if engine.IsLoopback(target.Hostname()) {
		return p.directProber
	}
	return p.remoteProber
}

// Run fetches target and returns its assembled metadata record. target must
// be an absolute http(s) URL; use engine.FormatTarget on raw user input.
//
// Only a failed main fetch is an error. Parse anomalies and probe failures
// show up as absent fields.
func (p *Pipeline) Run(ctx context.Context, target string, full bool) (metadata.Record, error) {
	start := time.Now()

	u, err := engine.ParseTarget(target)
	if err != nil {
		return nil, err
	}
	eng := p.EngineFor(u)

	res, err := eng.Fetch(ctx, &engine.FetchRequest{URL: target})
	if err != nil {
		slog.Warn("metadata fetch failed", "url", target, "engine", eng.Name(), "error", err)
		return nil, err
	}
	fetchMs := time.Since(start).Milliseconds()

	extracted := metadata.Extract(res.HTML, full)

	normalized, err := metadata.Normalize(extracted, target)
	if err != nil {
		return nil, models.NewMetadataError(models.ErrCodeParse, "Failed to fetch or parse the website", err)
	}

	var probed map[string]string
	if prober := p.proberFor(u); prober != nil {
		base, _ := metadata.BaseURL(target)
		_, hasFavicon := extracted.Get(metadata.KeyFavicon)
		probed = prober.Probe(ctx, base, !hasFavicon).Fields()
	}

	rec := metadata.Assemble(extracted, normalized, probed)

	slog.Info("metadata extracted",
		"url", target,
		"engine", res.EngineName,
		"status", res.StatusCode,
		"fields", len(rec),
		"full", full,
		"fetch_ms", fetchMs,
		"total_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}
