package engine

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// DirectEngine fetches loopback targets (localhost, 127.0.0.1) straight
// from this process: no proxy and no TLS fingerprinting.
type DirectEngine struct {
	client *http.Client
	opts   Options
}

// NewDirectEngine creates a DirectEngine. Proxy and ChromeTLS in opts are ignored.
func NewDirectEngine(opts Options) *DirectEngine {
	opts = opts.withDefaults()
	transport := &http.Transport{
		Proxy:               nil,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConns:        10,
		IdleConnTimeout:     30 * time.Second,
	}
	if opts.RootCAs != nil {
		transport.TLSClientConfig = &tls.Config{RootCAs: opts.RootCAs}
	}
	return &DirectEngine{
		client: &http.Client{Transport: transport, CheckRedirect: limitRedirects},
		opts:   opts,
	}
}

func (e *DirectEngine) Name() string { return "direct" }

// Client returns the HTTP client the engine fetches with.
func (e *DirectEngine) Client() *http.Client { return e.client }

func (e *DirectEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	return fetch(ctx, e.client, e.opts, e.Name(), req)
}
