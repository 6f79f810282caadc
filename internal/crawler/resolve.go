package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when an href cannot be resolved into an
// absolute URL.
var ErrInvalidURL = errors.New("invalid URL")

// URLError records why a reference could not be resolved.
// It matches ErrInvalidURL with errors.Is.
type URLError struct {
	// Ref is the reference that failed, as written in the page.
	Ref string

	// Err is the underlying parse error.
	Err error
}

func (e *URLError) Error() string {
	return fmt.Sprintf("invalid URL %q: %v", e.Ref, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *URLError) Unwrap() error { return e.Err }

// Is reports whether target is ErrInvalidURL.
func (e *URLError) Is(target error) bool { return target == ErrInvalidURL }

// errNotAbsolute is the cause used when a reference parses but does not
// produce an absolute URL.
var errNotAbsolute = errors.New("resolved URL is not absolute")

// checkReferenceChars rejects characters that may not appear unescaped in
// an RFC 3986 URI reference: whitespace, controls, non-ASCII and
// <>"{}|\^`. net/url would otherwise percent-encode them silently.
func checkReferenceChars(ref string) error {
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		if c <= ' ' || c >= 0x7f || strings.IndexByte("<>\"{}|\\^`", c) >= 0 {
			return fmt.Errorf("illegal character %q at offset %d", rune(c), i)
		}
	}
	return nil
}

// Resolve joins href against base following RFC 3986 reference resolution
// (relative paths, protocol-relative //host/path, absolute paths and
// absolute URLs) and strips the fragment.
//
//	Resolve("http://x.com/", "/page#section") // "http://x.com/page"
func Resolve(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", &URLError{Ref: base, Err: err}
	}

	trimmed := strings.TrimSpace(href)
	if err := checkReferenceChars(trimmed); err != nil {
		return "", &URLError{Ref: href, Err: err}
	}

	ref, err := url.Parse(trimmed)
	if err != nil {
		return "", &URLError{Ref: href, Err: err}
	}

	u := b.ResolveReference(ref)
	if !u.IsAbs() {
		return "", &URLError{Ref: href, Err: errNotAbsolute}
	}

	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

// CanonicalKey returns the deduplication key of a URL: scheme and host are
// lowercased, the fragment is removed, and a bare "/" path without a query
// is treated as the empty path, so http://example.com and
// http://example.com/ are the same page.
// Unparseable input is returned unchanged.
func CanonicalKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	if u.Path == "/" && u.RawQuery == "" && !u.ForceQuery {
		u.Path = ""
		u.RawPath = ""
	}

	return u.String()
}

// isHTTP reports whether u uses a scheme the fetcher can request.
func isHTTP(u *url.URL) bool {
	return u.Scheme == "http" || u.Scheme == "https"
}

// hostKey returns the lowercased host of u. The port is not part of the
// host, so example.com and example.com:8080 are the same site.
func hostKey(u *url.URL) string {
	return strings.ToLower(u.Hostname())
}

// scope decides which hosts a crawl may visit.
type scope struct {
	host           string
	followExternal bool
}

func newScope(base *url.URL, followExternal bool) scope {
	return scope{host: hostKey(base), followExternal: followExternal}
}

// isExternal reports whether u is on a different host than the base URL.
func (s scope) isExternal(u *url.URL) bool {
	return hostKey(u) != s.host
}

// allows reports whether u may be crawled.
func (s scope) allows(u *url.URL) bool {
	return s.followExternal || !s.isExternal(u)
}
