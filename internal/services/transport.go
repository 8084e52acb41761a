package services

import (
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/andybalholm/brotli"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/codyseavey/cardscout/internal/jsonval"
	"github.com/codyseavey/cardscout/internal/metrics"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	snkrdunkReferer  = "https://snkrdunk.com/"

	// Upstream bodies kept on an HTTPStatusError, for debug output.
	maxErrorBodyBytes = 512
)

// HTTPClientOptions configures NewHTTPClient.
type HTTPClientOptions struct {
	// Source labels upstream metrics, e.g. "snkrdunk".
	Source            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	CloudflareBypass  bool
	Headers           map[string]string
}

// SnkrdunkHeaders are the headers a desktop browser sends to the marketplace.
func SnkrdunkHeaders() map[string]string {
	return map[string]string{
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "en-US,en;q=0.9,ja;q=0.8",
		"Accept-Encoding": "gzip, deflate, br",
		"User-Agent":      browserUserAgent,
		"Referer":         snkrdunkReferer,
	}
}

// NewHTTPClient builds a resty client with content decoding, optional
// Cloudflare bypass and client-side request pacing.
func NewHTTPClient(opts HTTPClientOptions) *resty.Client {
	client := resty.New()
	if opts.BaseURL != "" {
		client.SetBaseURL(opts.BaseURL)
	}
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	client.SetHeaders(opts.Headers)

	var base http.RoundTripper = http.DefaultTransport.(*http.Transport).Clone()
	if opts.CloudflareBypass {
		base = cloudflarebp.AddCloudFlareByPass(base)
	}
	client.SetTransport(&decodingTransport{base: base})

	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	return client
}

// decodingTransport decodes br, gzip and deflate bodies. Setting our own
// Accept-Encoding turns off net/http's transparent gzip handling, and it
// never handled brotli.
type decodingTransport struct {
	base http.RoundTripper
}

func (t *decodingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	var decoded io.Reader
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		decoded = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("gzip body from %s: %w", req.URL.Host, err)
		}
		decoded = gz
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("deflate body from %s: %w", req.URL.Host, err)
		}
		decoded = zr
	default:
		return resp, nil
	}

	resp.Body = &decodedBody{Reader: decoded, raw: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

type decodedBody struct {
	io.Reader
	raw io.ReadCloser
}

func (b *decodedBody) Close() error {
	if c, ok := b.Reader.(io.Closer); ok {
		c.Close()
	}
	return b.raw.Close()
}

// HTTPFetcher performs GETs through a resty client and returns bodies or
// decoded JSON. It implements Fetcher.
type HTTPFetcher struct {
	client *resty.Client
	source string
}

func NewHTTPFetcher(client *resty.Client, source string) *HTTPFetcher {
	return &HTTPFetcher{client: client, source: source}
}

// FetchBody returns the body of a successful GET. A non-2xx answer becomes
// *HTTPStatusError.
func (f *HTTPFetcher) FetchBody(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	start := time.Now()
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get(rawURL)
	metrics.UpstreamRequestDuration.WithLabelValues(f.source).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(f.source, "network").Inc()
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}

	if !resp.IsSuccess() {
		statusErr := &HTTPStatusError{
			StatusCode: resp.StatusCode(),
			URL:        rawURL,
			Body:       truncate(string(resp.Body()), maxErrorBodyBytes),
		}
		outcome := "http_error"
		if statusErr.Blocked() {
			outcome = "blocked"
		}
		metrics.UpstreamRequestsTotal.WithLabelValues(f.source, outcome).Inc()
		return nil, statusErr
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(f.source, "ok").Inc()
	return resp.Body(), nil
}

// FetchJSON is FetchBody followed by jsonval.Parse.
func (f *HTTPFetcher) FetchJSON(ctx context.Context, rawURL string, params url.Values) (jsonval.Value, error) {
	body, err := f.FetchBody(ctx, rawURL, params)
	if err != nil {
		return jsonval.Value{}, err
	}
	v, err := jsonval.Parse(body)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(f.source, "decode").Inc()
		return jsonval.Value{}, fmt.Errorf("decode JSON from %s: %w", rawURL, err)
	}
	return v, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
