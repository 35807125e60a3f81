package engine

import (
	"context"
	stdtls "crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
	"github.com/use-agent/golbat/models"
	"golang.org/x/net/proxy"
)

// HTTPEngine fetches remote targets on behalf of API callers. It supports an
// outbound proxy and, optionally, a Chrome-like TLS fingerprint.
type HTTPEngine struct {
	client *http.Client
	opts   Options
}

// chromeH1Spec builds a Chrome-like TLS ClientHello with ALPN forced to
// http/1.1 only. A fresh spec is built per connection since extensions keep
// handshake state.
func chromeH1Spec() (tls.ClientHelloSpec, error) {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return spec, err
	}
	// http.Transport cannot speak h2 over a utls connection.
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			break
		}
	}
	return spec, nil
}

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// NewHTTPEngine creates an HTTPEngine from opts.
func NewHTTPEngine(opts Options) *HTTPEngine {
	opts = opts.withDefaults()

	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	dial := dialFunc(dialer.DialContext)

	transport := &http.Transport{
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if opts.RootCAs != nil {
		transport.TLSClientConfig = &stdtls.Config{RootCAs: opts.RootCAs}
	}

	httpProxy := false
	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		switch {
		case err != nil:
			slog.Warn("ignoring invalid proxy URL", "proxy", opts.Proxy, "error", err)
		case proxyURL.Scheme == "http" || proxyURL.Scheme == "https":
			transport.Proxy = http.ProxyURL(proxyURL)
			httpProxy = true
		case proxyURL.Scheme == "socks5" || proxyURL.Scheme == "socks5h":
			d, err := proxy.FromURL(proxyURL, dialer)
			if err != nil {
				slog.Warn("ignoring unusable socks proxy", "proxy", opts.Proxy, "error", err)
				break
			}
			if cd, ok := d.(proxy.ContextDialer); ok {
				dial = cd.DialContext
			}
		default:
			slog.Warn("ignoring proxy with unsupported scheme", "proxy", opts.Proxy)
		}
	}
	transport.DialContext = dial

	// A custom TLS dialer would be pointed at the proxy itself when an HTTP
	// proxy is in use, so the fingerprint is only applied to direct and socks
	// connections.
	if opts.ChromeTLS && !httpProxy {
		transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialChromeTLS(ctx, dial, opts.RootCAs, network, addr)
		}
	}

	return &HTTPEngine{
		client: &http.Client{
			Transport:     transport,
			CheckRedirect: limitRedirects,
		},
		opts: opts,
	}
}

func (e *HTTPEngine) Name() string { return "http" }

// Client returns the HTTP client the engine fetches with, so auxiliary
// requests to the same targets take the same proxy and TLS path.
func (e *HTTPEngine) Client() *http.Client { return e.client }

func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	return fetch(ctx, e.client, e.opts, e.Name(), req)
}

// dialChromeTLS establishes a TLS connection using a Chrome fingerprint via utls.
func dialChromeTLS(ctx context.Context, dial dialFunc, roots *x509.CertPool, network, addr string) (net.Conn, error) {
	spec, err := chromeH1Spec()
	if err != nil {
		return nil, fmt.Errorf("http_engine: build tls spec: %w", err)
	}
	conn, err := dial(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls.UClient(conn, &tls.Config{ServerName: host, RootCAs: roots}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(&spec); err != nil {
		conn.Close()
		return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

func limitRedirects(_ *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	return nil
}

// fetch is shared by every engine: GET the page with the golbat user agent,
// reject non-2xx answers, decode and return the body.
func fetch(ctx context.Context, client *http.Client, opts Options, engineName string, req *FetchRequest) (*FetchResult, error) {
	timeout := opts.Timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, models.NewMetadataError(models.ErrCodeInvalidInput, "Invalid URL. Check the scheme and domain.", err)
	}
	if opts.UserAgent != "" {
		httpReq.Header.Set("User-Agent", opts.UserAgent)
	}
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, models.NewUpstreamStatusError(resp.StatusCode, statusText(resp))
	}

	body, err := readBody(resp, opts.MaxBodyBytes)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &FetchResult{
		HTML:        body,
		StatusCode:  resp.StatusCode,
		FinalURL:    finalURL,
		ContentType: resp.Header.Get("Content-Type"),
		EngineName:  engineName,
	}, nil
}

// statusText returns the reason phrase of resp ("Not Found" for "404 Not Found").
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// classifyTransportError turns a network-level failure into a MetadataError
// with a generic, user-facing message. The cause is kept for logging.
func classifyTransportError(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return models.NewMetadataError(models.ErrCodeCanceled, "Request was cancelled.", err)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return models.NewMetadataError(models.ErrCodeUpstreamTimeout,
			"The website took too long to respond. Check the URL and try again.", err)
	default:
		return models.NewMetadataError(models.ErrCodeUpstreamUnreachable,
			"Could not reach the website. Check that the scheme (http/https) and domain are correct.", err)
	}
}
