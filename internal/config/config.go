package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sitecrawl"

	// DefaultMaxConcurrent is the number of pages fetched at the same time.
	// Keep it small: the crawler targets one site and should not hammer it.
	DefaultMaxConcurrent = 5

	// DefaultDelay is the pause a fetch worker takes after each processed URL.
	DefaultDelay = 100 * time.Millisecond

	// DefaultTimeout bounds a single request, connection setup included.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxIterations caps the number of frontier entries consumed.
	// It stops runaway crawls on sites with combinatorial URL spaces.
	DefaultMaxIterations = 1000

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultUserAgent identifies sitecrawl in HTTP requests so site
	// operators can recognise checker traffic in their logs.
	DefaultUserAgent = "sitecrawl/1.0 (+https://github.com/nao1215/sitecrawl)"

	// DefaultOutputFormat is the report format used when none is configured.
	DefaultOutputFormat = "console"

	// DefaultExcludePattern skips binary assets that never contain links.
	DefaultExcludePattern = `(?i)\.(pdf|zip|tar|gz|jpg|jpeg|png|gif|svg|ico)$`
)

// Config holds every option of a crawl.
// It is populated once (defaults, then config file, then CLI flags) and
// passed to the crawler, which keeps its own copy. Nothing in this module
// mutates a Config after the crawl has started.
type Config struct {
	// BaseURL is the URL the crawl starts from. Its host defines which
	// links are internal.
	BaseURL string

	// MaxConcurrent is the number of fetches that may be in flight at once.
	// 1 processes the frontier strictly sequentially.
	MaxConcurrent int

	// Delay is the pause after each processed URL, per fetch worker.
	Delay time.Duration

	// FollowExternalLinks enables crawling links whose host differs from
	// the base URL's host.
	FollowExternalLinks bool

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// Timeout bounds a single request.
	Timeout time.Duration

	// ExcludePatterns are regular expressions; a URL matching any of them is
	// never fetched. They are checked before IncludePatterns.
	ExcludePatterns []string

	// IncludePatterns are regular expressions; when non-empty, a URL must
	// match at least one of them to be fetched.
	IncludePatterns []string

	// OutputFormat is the report format: console, json or csv.
	// It is parsed only when the report is generated.
	OutputFormat string

	// OutputFile is where the report is written. Empty means stdout for
	// console and json, and a timestamped file for csv.
	OutputFile string

	// MaxIterations caps the number of frontier entries consumed.
	MaxIterations int

	// MaxBodySize is the maximum number of response body bytes read.
	// 0 uses DefaultMaxBodySize.
	MaxBodySize int64

	// RequestsPerSecond caps the request rate across all fetch workers.
	// 0 disables the cap.
	RequestsPerSecond float64

	// Headers are extra HTTP headers sent with every request, for example
	// a session cookie for a staging site.
	Headers map[string]string

	// SeedFile is a file listing extra start URLs, one per line.
	SeedFile string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the configuration file given on the command line.
	ConfigFilePath string

	// SaveHistory stores each finished report in the history database.
	SaveHistory bool

	// HistoryDir is the directory of the history database.
	HistoryDir string
}

// NewConfig creates a new Config with default values.
// This is the only place defaults live; there is no package-level Config.
func NewConfig() *Config {
	return &Config{
		MaxConcurrent:   DefaultMaxConcurrent,
		Delay:           DefaultDelay,
		UserAgent:       DefaultUserAgent,
		Timeout:         DefaultTimeout,
		ExcludePatterns: []string{DefaultExcludePattern},
		IncludePatterns: []string{},
		OutputFormat:    DefaultOutputFormat,
		MaxIterations:   DefaultMaxIterations,
		MaxBodySize:     DefaultMaxBodySize,
		Headers:         map[string]string{},
		SaveHistory:     true,
		HistoryDir:      XDGDataDir(),
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.ExcludePatterns = append([]string(nil), c.ExcludePatterns...)
	clone.IncludePatterns = append([]string(nil), c.IncludePatterns...)
	clone.Headers = make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		clone.Headers[k] = v
	}
	return &clone
}

// XDGDataDir returns the XDG data directory for sitecrawl.
// On Linux: ~/.local/share/sitecrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitecrawl.
// On Linux: ~/.config/sitecrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found. An empty BaseURL is accepted here because the crawl entry
// point may receive the URL separately.
//
// The output format is deliberately not checked: an unknown format is
// reported when the report is generated, after the crawl data exists.
func (c *Config) Validate() error {
	if c.BaseURL != "" {
		if err := ValidateBaseURL(c.BaseURL); err != nil {
			return err
		}
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxConcurrent <= 0 {
		return ErrInvalidMaxConcurrent
	}

	if c.Delay < 0 {
		return ErrInvalidDelay
	}

	if c.MaxIterations <= 0 {
		return ErrInvalidMaxIterations
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.RequestsPerSecond < 0 {
		return ErrInvalidRequestsPerSecond
	}

	for _, p := range c.ExcludePatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("%w: exclude %q: %v", ErrInvalidPattern, p, err)
		}
	}
	for _, p := range c.IncludePatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("%w: include %q: %v", ErrInvalidPattern, p, err)
		}
	}

	return nil
}

// ValidateBaseURL checks that raw is an absolute http or https URL with a host.
func ValidateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidBaseURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidBaseURL)
	}
	return nil
}

// SecondsToDuration converts a number of seconds, possibly fractional, to a
// time.Duration. Configuration files and the original option names express
// the delay and timeout in seconds.
func SecondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
