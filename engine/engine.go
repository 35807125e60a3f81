package engine

import (
	"context"
	"crypto/x509"
	"time"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier ("http" or "direct").
	Name() string

	// Fetch retrieves the page HTML for the given request. Any failure is
	// returned as a *models.MetadataError.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL string

	// Timeout overrides the engine's default timeout when > 0.
	Timeout time.Duration
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML        string
	StatusCode  int
	FinalURL    string
	ContentType string
	EngineName  string
}

// Options configures an engine.
type Options struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64

	// Proxy and ChromeTLS apply to the remote HTTP engine only.
	Proxy     string
	ChromeTLS bool

	// RootCAs replaces the system trust roots when set.
	RootCAs *x509.CertPool
}

const (
	defaultTimeout      = 15 * time.Second
	defaultMaxBodyBytes = 10 << 20
	maxRedirects        = 10
)

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = defaultMaxBodyBytes
	}
	return o
}
