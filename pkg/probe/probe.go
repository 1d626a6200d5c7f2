package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nxtcoder17/isserverup/pkg/logging"
)

// DefaultTimeout bounds a single check, redirects included
const DefaultTimeout = 30 * time.Second

const maxRedirects = 10

var (
	ErrNoHost            = errors.New("no host in request URL")
	ErrUnsupportedScheme = errors.New("unsupported protocol scheme")
	ErrTooManyRedirects  = fmt.Errorf("stopped after %d redirects", maxRedirects)
)

type Result struct {
	// URL is the normalized URL that was requested
	URL           string
	StatusCode    int
	ContentLength int64
	Elapsed       time.Duration

	// Err is non-nil only on transport failure, and is always a *TransportError
	Err error
}

// OK reports whether the check obtained exactly a 200.
func (r Result) OK() bool {
	return r.Err == nil && r.StatusCode == http.StatusOK
}

type Prober struct {
	logger   *slog.Logger
	insecure bool
	timeout  time.Duration
}

type ProberArgs struct {
	Logger *slog.Logger

	// Insecure disables TLS peer verification
	Insecure bool

	// Timeout overrides DefaultTimeout, zero keeps the default
	Timeout time.Duration
}

func NewProber(args ProberArgs) *Prober {
	if args.Logger == nil {
		args.Logger = slog.Default()
	}

	if args.Timeout <= 0 {
		args.Timeout = DefaultTimeout
	}

	return &Prober{
		logger:   args.Logger.With("component", "probe"),
		insecure: args.Insecure,
		timeout:  args.Timeout,
	}
}

// NormalizeURL prepends http:// to URLs given without a scheme, so that
// bare hostnames like example.com can be checked.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "://") {
		return raw
	}
	return "http://" + raw
}

// Probe issues a single HEAD request against rawURL, following redirects,
// and reports the final status code. Every client resource is released
// before it returns.
func (p *Prober) Probe(ctx context.Context, rawURL string) Result {
	target := NormalizeURL(rawURL)
	res := Result{URL: target, ContentLength: -1}

	req, err := p.newRequest(ctx, target)
	if err != nil {
		res.Err = &TransportError{URL: target, Kind: KindURL, Err: err}
		return res
	}

	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		DisableKeepAlives: true,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: p.insecure,
		},
	}
	client := &http.Client{
		Transport:     transport,
		Timeout:       p.timeout,
		CheckRedirect: p.checkRedirect,
	}
	defer client.CloseIdleConnections()

	p.logger.Debug("checking", "url", target, "insecure", p.insecure)

	start := time.Now()
	resp, err := client.Do(req)
	res.Elapsed = time.Since(start)
	if err != nil {
		terr := newTransportError(target, err)
		res.Err = terr
		p.logger.Debug("transport failure", "url", target, "kind", terr.Kind, "took", fmt.Sprintf("%sms", humanize.Comma(res.Elapsed.Milliseconds())))
		return res
	}
	resp.Body.Close()

	res.StatusCode = resp.StatusCode
	res.ContentLength = resp.ContentLength

	size := "unknown"
	if resp.ContentLength >= 0 {
		size = humanize.Bytes(uint64(resp.ContentLength))
	}
	p.logger.Debug("checked", "url", target, "final-url", resp.Request.URL.String(), "status", resp.StatusCode, "content-length", size, "took", fmt.Sprintf("%sms", humanize.Comma(res.Elapsed.Milliseconds())))

	return res
}

func (p *Prober) newRequest(ctx context.Context, target string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return nil, err
	}

	switch req.URL.Scheme {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedScheme, req.URL.Scheme)
	}

	if req.URL.Host == "" {
		return nil, ErrNoHost
	}

	return req, nil
}

func (p *Prober) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return ErrTooManyRedirects
	}
	p.logger.Log(req.Context(), logging.TraceLevel, "following redirect", "hop", len(via), "from", via[len(via)-1].URL.String(), "to", req.URL.String())
	return nil
}
