package config

// File represents the structure of the .sitecrawl configuration file.
// Keys use the option names of the crawl configuration; durations are
// expressed in seconds.
//
// Pointer fields distinguish "not set" from a meaningful zero value
// (follow_external_links: false, delay_between_requests: 0).
type File struct {
	// BaseURL is the default URL to crawl when none is given on the command line.
	BaseURL string `yaml:"base_url,omitempty"`

	// MaxConcurrent is the number of concurrent fetches.
	MaxConcurrent int `yaml:"max_concurrent,omitempty"`

	// DelayBetweenRequests is the per-worker pause in seconds.
	DelayBetweenRequests *float64 `yaml:"delay_between_requests,omitempty"`

	// FollowExternalLinks enables crawling other hosts.
	FollowExternalLinks *bool `yaml:"follow_external_links,omitempty"`

	// UserAgent is the User-Agent header.
	UserAgent string `yaml:"user_agent,omitempty"`

	// Timeout is the per-request timeout in seconds.
	Timeout float64 `yaml:"timeout,omitempty"`

	// ExcludePatterns replace the default exclude patterns when set.
	ExcludePatterns []string `yaml:"exclude_patterns,omitempty"`

	// IncludePatterns restrict crawling to matching URLs.
	IncludePatterns []string `yaml:"include_patterns,omitempty"`

	// OutputFormat is console, json or csv.
	OutputFormat string `yaml:"output_format,omitempty"`

	// OutputFile is the report destination.
	OutputFile string `yaml:"output_file,omitempty"`

	// MaxIterations is the iteration safety cap.
	MaxIterations int `yaml:"max_iterations,omitempty"`

	// MaxBodySize is the response body read limit in bytes.
	MaxBodySize int64 `yaml:"max_body_size,omitempty"`

	// RequestsPerSecond caps the request rate.
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`

	// Headers are extra request headers, merged over any existing ones.
	Headers map[string]string `yaml:"headers,omitempty"`

	// SeedFile lists extra start URLs.
	SeedFile string `yaml:"seed_file,omitempty"`
}

// ApplyTo overlays the values set in the file onto cfg.
// Unset values leave cfg untouched.
func (f *File) ApplyTo(cfg *Config) {
	if f.BaseURL != "" {
		cfg.BaseURL = f.BaseURL
	}
	if f.MaxConcurrent != 0 {
		cfg.MaxConcurrent = f.MaxConcurrent
	}
	if f.DelayBetweenRequests != nil {
		cfg.Delay = SecondsToDuration(*f.DelayBetweenRequests)
	}
	if f.FollowExternalLinks != nil {
		cfg.FollowExternalLinks = *f.FollowExternalLinks
	}
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	if f.Timeout != 0 {
		cfg.Timeout = SecondsToDuration(f.Timeout)
	}
	if f.ExcludePatterns != nil {
		cfg.ExcludePatterns = append([]string(nil), f.ExcludePatterns...)
	}
	if f.IncludePatterns != nil {
		cfg.IncludePatterns = append([]string(nil), f.IncludePatterns...)
	}
	if f.OutputFormat != "" {
		cfg.OutputFormat = f.OutputFormat
	}
	if f.OutputFile != "" {
		cfg.OutputFile = f.OutputFile
	}
	if f.MaxIterations != 0 {
		cfg.MaxIterations = f.MaxIterations
	}
	if f.MaxBodySize != 0 {
		cfg.MaxBodySize = f.MaxBodySize
	}
	if f.RequestsPerSecond != 0 {
		cfg.RequestsPerSecond = f.RequestsPerSecond
	}
	if len(f.Headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		for k, v := range f.Headers {
			cfg.Headers[k] = v
		}
	}
	if f.SeedFile != "" {
		cfg.SeedFile = f.SeedFile
	}
}
