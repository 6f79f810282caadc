package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/sitecrawl/internal/config"
)

// Outcome is the result of fetching one URL. It is one of Success,
// Redirect, HTTPFailure or TransportFailure.
type Outcome interface {
	outcome()
}

// Success is a 2xx response.
type Success struct {
	// Status is the HTTP status code.
	Status int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the response body, truncated to the configured maximum size.
	Body []byte
}

// Redirect is a 3xx response. Location is the raw header value and may be
// relative or empty.
type Redirect struct {
	Status   int
	Location string
}

// HTTPFailure is any response outside 2xx and 3xx.
type HTTPFailure struct {
	// Status is the HTTP status code.
	Status int

	// Message is the reason phrase, e.g. "Not Found".
	Message string
}

// TransportFailure means no usable response was received: DNS failure,
// refused connection, timeout, TLS error or a body read error.
type TransportFailure struct {
	Err error
}

func (Success) outcome()          {}
func (Redirect) outcome()         {}
func (HTTPFailure) outcome()      {}
func (TransportFailure) outcome() {}

// Fetcher issues the GET requests of a crawl.
// It never follows redirects itself: a 3xx response is returned as a
// Redirect so the crawl can queue the target like any other link.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	headers     map[string]string
	maxBodySize int64
	limiter     *rate.Limiter
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the HTTP client used for requests.
// The client is copied; its redirect policy is replaced so that
// redirects are surfaced instead of followed.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if c != nil {
			clone := *c
			f.client = &clone
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithHeaders sets extra headers sent with every request.
func WithHeaders(h map[string]string) FetcherOption {
	return func(f *Fetcher) {
		f.headers = make(map[string]string, len(h))
		for k, v := range h {
			f.headers[k] = v
		}
	}
}

// WithMaxBodySize limits how many body bytes are read. Values <= 0 keep
// the default.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithRateLimit caps the request rate of the Fetcher across all goroutines
// using it. rps <= 0 disables the cap.
func WithRateLimit(rps float64) FetcherOption {
	return func(f *Fetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewFetcher creates a Fetcher whose requests are bounded by timeout.
func NewFetcher(timeout time.Duration, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{},
		userAgent:   config.DefaultUserAgent,
		headers:     map[string]string{},
		maxBodySize: config.DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.client.Timeout == 0 {
		f.client.Timeout = timeout
	}
	f.client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return f
}

// Fetch performs a single GET of rawURL. It never returns nil.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) Outcome {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return TransportFailure{Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return TransportFailure{Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for k, v := range f.headers {
		if strings.EqualFold(k, "Host") {
			req.Host = v
			continue
		}
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return TransportFailure{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
		if err != nil {
			return TransportFailure{Err: fmt.Errorf("read body: %w", err)}
		}
		return Success{
			Status:      resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Body:        body,
		}

	case resp.StatusCode >= 300 && resp.StatusCode <= 399:
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Redirect{
			Status:   resp.StatusCode,
			Location: resp.Header.Get("Location"),
		}

	default:
		return HTTPFailure{
			Status:  resp.StatusCode,
			Message: reasonPhrase(resp),
		}
	}
}

// reasonPhrase extracts "Not Found" from "404 Not Found", falling back to
// the standard text for the code.
func reasonPhrase(resp *http.Response) string {
	phrase := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if phrase == "" {
		phrase = http.StatusText(resp.StatusCode)
	}
	return phrase
}
