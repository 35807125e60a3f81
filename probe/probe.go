// Package probe checks for the well-known auxiliary files of a site
// (robots.txt, sitemap.xml, favicon.ico) with lightweight HEAD requests.
package probe

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/golbat/metadata"
	"golang.org/x/sync/errgroup"
)

// Result holds the URLs that answered a probe with 2xx. Empty means the
// probe failed or was not run.
type Result struct {
	RobotsFile string
	Sitemap    string
	Favicon    string
}

// Fields returns the successful probes keyed by record field name.
func (r Result) Fields() map[string]string {
	out := make(map[string]string, 3)
	if r.RobotsFile != "" {
		out[metadata.KeyRobotsFile] = r.RobotsFile
	}
	if r.Sitemap != "" {
		out[metadata.KeySitemap] = r.Sitemap
	}
	if r.Favicon != "" {
		out[metadata.KeyFavicon] = r.Favicon
	}
	return out
}

// Options configures a Runner.
type Options struct {
	UserAgent string

	// Timeout bounds each probe independently. Default: 5s.
	Timeout time.Duration

	// Client overrides the HTTP client used for probes.
	Client *http.Client
}

// Runner issues the probes. It is safe for concurrent use.
type Runner struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

// NewRunner creates a Runner from opts.
func NewRunner(opts Options) *Runner {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	return &Runner{client: client, userAgent: opts.UserAgent, timeout: opts.Timeout}
}

// Probe checks <baseURL>/robots.txt and <baseURL>/sitemap.xml, plus
// <baseURL>/favicon.ico when needFavicon is set. The probes run concurrently;
// a failing probe never affects the others and is reported only as an empty
// field in the Result.
func (r *Runner) Probe(ctx context.Context, baseURL string, needFavicon bool) Result {
	var res Result
	// Plain Group: one probe failing must not cancel its siblings.
	var g errgroup.Group

	g.Go(func() error {
		res.RobotsFile = r.check(ctx, baseURL+"/robots.txt")
		return nil
	})
	g.Go(func() error {
		res.Sitemap = r.check(ctx, baseURL+"/sitemap.xml")
		return nil
	})
	if needFavicon {
		g.Go(func() error {
			res.Favicon = r.check(ctx, baseURL+"/favicon.ico")
			return nil
		})
	}

	_ = g.Wait()
	return res
}

// check returns target when a HEAD request to it succeeds with 2xx, and ""
// otherwise.
func (r *Runner) check(ctx context.Context, target string) string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		slog.Debug("probe skipped", "url", target, "error", err)
		return ""
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		slog.Debug("probe failed", "url", target, "error", err)
		return ""
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Debug("probe negative", "url", target, "status", resp.StatusCode)
		return ""
	}
	return target
}
