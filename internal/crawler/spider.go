package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sitecrawl/internal/config"
	"github.com/nao1215/sitecrawl/internal/log"
	"github.com/nao1215/sitecrawl/internal/model"
)

var (
	// ErrMissingBaseURL is returned when no base URL was passed and none is
	// configured. Nothing is crawled.
	ErrMissingBaseURL = errors.New("missing base URL: pass one or set base_url in the configuration")

	// ErrSpiderStarted is returned when Run is called on a Spider that has
	// already run. A Spider crawls exactly once.
	ErrSpiderStarted = errors.New("spider has already been started")
)

// State is the lifecycle state of a Spider.
type State int32

const (
	// StateIdle is the state before Run; the frontier is being seeded.
	StateIdle State = iota
	// StateRunning means URLs are being dispatched to fetch workers.
	StateRunning
	// StateDraining means no new fetches start; in-flight fetches finish.
	StateDraining
	// StateDone means the report has been built.
	StateDone
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Progress is a point-in-time view of a running crawl.
type Progress struct {
	// PagesChecked is the number of URLs visited so far.
	PagesChecked int

	// Queued is the number of URLs waiting in the frontier.
	Queued int

	// FailedPages is the number of failed pages so far.
	FailedPages int

	// BrokenLinks is the number of broken links so far.
	BrokenLinks int

	// Elapsed is the time since the crawl started.
	Elapsed time.Duration
}

// Spider crawls one site.
//
// A single dispatch loop owns every crawl decision: it pops URLs from the
// frontier, filters and marks them visited, and starts up to MaxConcurrent
// fetch workers. Workers only fetch and wait the politeness delay; their
// outcomes come back on a channel and the loop applies them one at a time
// in arrival order. With MaxConcurrent set to 1 this is exactly a sequential
// fetch, extract, enqueue loop.
type Spider struct {
	baseURL string
	cfg     *config.Config

	frontier  *Frontier
	filter    *Filter
	scope     scope
	fetcher   *Fetcher
	extractor *Extractor

	client   *http.Client
	seeds    SeedProvider
	logger   *slog.Logger
	progress func(Progress)
	now      func() time.Time

	started atomic.Bool
	state   atomic.Int32
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithClient sets the HTTP client used for fetching. Its redirect policy
// is overridden so that redirects are surfaced to the crawl.
func WithClient(c *http.Client) SpiderOption {
	return func(s *Spider) {
		s.client = c
	}
}

// WithSeedProvider sets a provider of extra start URLs.
// It takes precedence over Config.SeedFile.
func WithSeedProvider(p SeedProvider) SpiderOption {
	return func(s *Spider) {
		s.seeds = p
	}
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithProgress registers a function called from the dispatch loop after
// each fetched URL has been processed. It must not block.
func WithProgress(fn func(Progress)) SpiderOption {
	return func(s *Spider) {
		s.progress = fn
	}
}

// WithClock sets the clock used for timestamps.
func WithClock(now func() time.Time) SpiderOption {
	return func(s *Spider) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSpider creates a Spider for baseURL. cfg is copied; nil means
// config.NewConfig(). A trailing slash on baseURL is removed, and the
// configuration is validated before anything is fetched.
func NewSpider(baseURL string, cfg *config.Config, opts ...SpiderOption) (*Spider, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	cfg = cfg.Clone()

	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	cfg.BaseURL = baseURL

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidBaseURL, err)
	}

	filter, err := NewFilter(cfg.ExcludePatterns, cfg.IncludePatterns)
	if err != nil {
		return nil, err
	}

	s := &Spider{
		baseURL:  baseURL,
		cfg:      cfg,
		frontier: NewFrontier(),
		filter:   filter,
		scope:    newScope(base, cfg.FollowExternalLinks),
		logger:   log.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.seeds == nil && cfg.SeedFile != "" {
		s.seeds = FileSeeds{Path: cfg.SeedFile}
	}

	s.fetcher = NewFetcher(cfg.Timeout,
		WithHTTPClient(s.client),
		WithUserAgent(cfg.UserAgent),
		WithHeaders(cfg.Headers),
		WithMaxBodySize(cfg.MaxBodySize),
		WithRateLimit(cfg.RequestsPerSecond),
	)

	s.extractor, err = NewExtractor(baseURL, cfg.FollowExternalLinks, filter,
		WithExtractorLogger(s.logger),
		WithExtractorClock(s.now),
	)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Crawl checks every page reachable from baseURL and returns the report.
// An empty baseURL falls back to cfg.BaseURL.
//
// Per-page problems never make Crawl fail; they are recorded in the
// report. If ctx is cancelled, the report of what was crawled so far is
// returned together with ctx.Err().
func Crawl(ctx context.Context, baseURL string, cfg *config.Config, opts ...SpiderOption) (*model.CrawlReport, error) {
	if strings.TrimSpace(baseURL) == "" && cfg != nil {
		baseURL = cfg.BaseURL
	}
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrMissingBaseURL
	}

	spider, err := NewSpider(baseURL, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return spider.Run(ctx)
}

// State returns the current lifecycle state.
func (s *Spider) State() State {
	return State(s.state.Load())
}

// fetchResult is what a worker hands back to the dispatch loop.
type fetchResult struct {
	url     string
	outcome Outcome
}

// tally accumulates the failures of a crawl. Only the dispatch loop
// appends to it.
type tally struct {
	failed []model.FailedPage
	broken []model.BrokenLink
}

// Run performs the crawl. It can be called once.
func (s *Spider) Run(ctx context.Context) (*model.CrawlReport, error) {
	if !s.started.CompareAndSwap(false, true) {
		return nil, ErrSpiderStarted
	}

	startedAt := s.now()
	s.seed(ctx)
	s.setState(StateRunning)
	s.logger.Debug("crawl started", "base_url", s.baseURL, "max_concurrent", s.cfg.MaxConcurrent)

	var (
		t          tally
		iterations int
		inFlight   int
	)
	results := make(chan fetchResult, s.cfg.MaxConcurrent)
	g, gctx := errgroup.WithContext(ctx)

	for {
		for inFlight < s.cfg.MaxConcurrent && ctx.Err() == nil && iterations < s.cfg.MaxIterations {
			u, ok := s.frontier.Pop()
			if !ok {
				break
			}
			iterations++

			if !s.admit(u) {
				continue
			}

			inFlight++
			g.Go(func() error {
				results <- fetchResult{url: u, outcome: s.fetchAndWait(gctx, u)}
				return nil
			})
		}

		if inFlight == 0 {
			break
		}
		if ctx.Err() != nil || iterations >= s.cfg.MaxIterations {
			s.setState(StateDraining)
		}

		res := <-results
		inFlight--
		s.apply(ctx, res, &t)
		s.reportProgress(startedAt, &t)
	}

	s.setState(StateDraining)
	_ = g.Wait() // workers never return errors

	report := model.NewCrawlReport(s.baseURL, startedAt, s.now(), s.frontier.Visited(), t.failed, t.broken)
	report.Iterations = iterations
	report.Truncated = iterations >= s.cfg.MaxIterations && s.frontier.Len() > 0
	if report.Truncated {
		s.logger.Warn("iteration limit reached, crawl stopped early",
			"max_iterations", s.cfg.MaxIterations, "queued", s.frontier.Len())
	}

	s.setState(StateDone)
	s.logger.Debug("crawl finished",
		"pages", len(report.VisitedURLs),
		"failed", len(report.FailedPages),
		"broken", len(report.BrokenLinks),
		"duration", report.Duration())

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (s *Spider) setState(st State) {
	s.state.Store(int32(st))
}

// seed queues the base URL followed by the provider's seeds.
func (s *Spider) seed(ctx context.Context) {
	s.frontier.Push(s.baseURL)
	if s.seeds == nil {
		return
	}

	seeds, err := s.seeds.Seeds(ctx, s.baseURL)
	if err != nil {
		s.logger.Warn("could not load seed URLs, crawling from the base URL only", "error", err)
		return
	}

	for _, seed := range seeds {
		u, err := url.Parse(seed)
		if err != nil || !isHTTP(u) || !s.scope.allows(u) {
			s.logger.Warn("ignoring seed URL outside the crawl scope", "url", seed)
			continue
		}
		s.frontier.Push(seed)
	}
}

// admit decides whether a popped URL is fetched, marking it visited if so.
func (s *Spider) admit(u string) bool {
	if u == "" {
		return false
	}
	if s.frontier.IsVisited(u) {
		s.logger.Debug("already visited", "url", u)
		return false
	}
	if s.filter.IsExcluded(u) {
		s.logger.Debug("excluded by pattern", "url", u)
		return false
	}
	return s.frontier.MarkVisited(u)
}

// fetchAndWait runs in a worker goroutine.
func (s *Spider) fetchAndWait(ctx context.Context, u string) Outcome {
	s.logger.Debug("fetching", "url", u)
	outcome := s.fetcher.Fetch(ctx, u)

	if s.cfg.Delay > 0 {
		timer := time.NewTimer(s.cfg.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}
	return outcome
}

// apply records a fetch outcome. Only the dispatch loop calls it.
func (s *Spider) apply(ctx context.Context, res fetchResult, t *tally) {
	switch o := res.outcome.(type) {
	case Success:
		s.logger.Debug("page ok", "url", res.url, "status", o.Status)
		if len(o.Body) == 0 || !isHTMLContent(o.ContentType) {
			return
		}
		ex := s.extractor.Extract(res.url, o.Body)
		t.broken = append(t.broken, ex.Broken...)
		for _, c := range ex.Links {
			if s.frontier.Push(c.URL) {
				s.logger.Debug("queued", "url", c.URL, "found_on", res.url)
			}
		}

	case Redirect:
		s.applyRedirect(res.url, o, t)

	case HTTPFailure:
		s.logger.Debug("page failed", "url", res.url, "status", o.Status)
		t.failed = append(t.failed, model.FailedPage{
			URL:       res.url,
			Status:    model.PageStatus(o.Status),
			Error:     o.Message,
			Timestamp: s.now(),
		})

	case TransportFailure:
		if ctx.Err() != nil {
			// Interrupted by cancellation; the page was not really checked.
			return
		}
		s.logger.Debug("request error", "url", res.url, "error", o.Err)
		t.failed = append(t.failed, model.FailedPage{
			URL:       res.url,
			Status:    model.StatusException,
			Error:     o.Err.Error(),
			Timestamp: s.now(),
		})
	}
}

// applyRedirect queues the redirect target when it is in scope.
// The redirecting URL itself is not a failure.
func (s *Spider) applyRedirect(from string, o Redirect, t *tally) {
	if strings.TrimSpace(o.Location) == "" {
		s.logger.Debug("redirect without location", "url", from, "status", o.Status)
		return
	}

	// The HTTP client already fails on a Location it cannot parse; this
	// covers the ones it accepts but Resolve rejects.
	target, err := Resolve(from, o.Location)
	if err != nil {
		s.logger.Debug("unresolvable redirect", "url", from, "location", o.Location)
		t.failed = append(t.failed, model.FailedPage{
			URL:       from,
			Status:    model.StatusException,
			Error:     err.Error(),
			Timestamp: s.now(),
		})
		return
	}

	u, err := url.Parse(target)
	if err != nil || !isHTTP(u) || !s.scope.allows(u) {
		s.logger.Debug("redirect leaves the crawl scope", "url", from, "location", target)
		return
	}

	if s.frontier.Push(target) {
		s.logger.Debug("redirect queued", "url", from, "location", target, "status", o.Status)
	}
}

func (s *Spider) reportProgress(startedAt time.Time, t *tally) {
	if s.progress == nil {
		return
	}
	s.progress(Progress{
		PagesChecked: s.frontier.VisitedCount(),
		Queued:       s.frontier.Len(),
		FailedPages:  len(t.failed),
		BrokenLinks:  len(t.broken),
		Elapsed:      s.now().Sub(startedAt),
	})
}
