// Package fetch provides URL fetching and HTML-to-text processing.
// This package centralizes the HTTP logic used by the crawler and the
// ingestion chunker.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ChatBackend/1.0)"

// Result holds the raw content and response metadata from a URL fetch.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Error represents an error during URL fetching.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NotFound reports whether the error is an HTTP 404 fetch failure.
func (e *Error) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Options configures fetch behavior.
type Options struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

func (o *Options) httpClient() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return &http.Client{Timeout: o.Timeout}
}

// Head issues a header-only request and returns the status code and the
// Content-Type header. A transport failure returns a *Error; a non-success
// status is not treated as an error here since callers classify it themselves.
func Head(ctx context.Context, urlStr string, opts *Options) (status int, contentType string, err error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, urlStr, nil)
	if err != nil {
		return 0, "", &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", opts.UserAgent)

	resp, err := opts.httpClient().Do(req)
	if err != nil {
		return 0, "", &Error{URL: urlStr, Message: "HEAD request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode, resp.Header.Get("Content-Type"), nil
}

// URL retrieves the content at a URL. On a non-success status both the
// populated Result and a *Error carrying the status code are returned.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", opts.UserAgent)

	resp, err := opts.httpClient().Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	result := &Result{
		URL:         urlStr,
		HTML:        string(bodyBytes),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode != http.StatusOK {
		return result, &Error{
			URL:        urlStr,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	return result, nil
}

// RenderURL builds a Splash render.html URL for server-side rendering of the
// target page. Splash waits briefly for scripts before returning the HTML.
func RenderURL(splashBase, target string) (string, error) {
	base, err := url.Parse(splashBase)
	if err != nil {
		return "", fmt.Errorf("invalid splash URL %q: %w", splashBase, err)
	}
	render := &url.URL{Path: "/render.html"}
	q := url.Values{}
	q.Set("url", target)
	q.Set("timeout", "10")
	q.Set("wait", "0.5")
	render.RawQuery = q.Encode()
	return base.ResolveReference(render).String(), nil
}

// ExtractMainText parses HTML and returns the main readable text with
// navigation and boilerplate removed. Returns an empty string when the page
// has no extractable content.
func ExtractMainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript, iframe, .ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup").Remove()

	var mainContent *goquery.Selection
	for _, selector := range []string{"main", "article", ".content", "#content", ".main-content", "#main-content"} {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}
	if mainContent == nil {
		mainContent = doc.Find("body")
	}

	return cleanWhitespace(mainContent.Text()), nil
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func cleanWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}
