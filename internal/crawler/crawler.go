// Package crawler discovers the inner pages of a target site by bounded-depth
// recursive link expansion. Only same-site relative links are followed;
// results are reported as sorted found/error URL lists.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mrnigelalford/chatBackend/internal/fetch"
)

// notFoundPrefix marks not-found failures in the error list, distinguishing
// them from other fetch failures.
const notFoundPrefix = "404: "

// Config holds the crawl tuning knobs.
type Config struct {
	// Workers bounds how many branches expand concurrently per crawl.
	Workers int
	// FetchTimeout applies to each HEAD/GET issued during the crawl.
	FetchTimeout time.Duration
}

// Crawler expands a seed URL into the set of reachable same-site pages.
type Crawler struct {
	opts    *fetch.Options
	workers int
	log     *zap.Logger
}

// Result is the outcome of one crawl: sorted unique page URLs that passed the
// validity filter, and sorted annotated failure entries.
type Result struct {
	Found  []string
	Errors []string
}

// New creates a Crawler. The zero Config falls back to 8 workers and the
// fetch package default timeout.
func New(cfg Config, log *zap.Logger) *Crawler {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 8
	}
	opts := fetch.DefaultOptions()
	if cfg.FetchTimeout > 0 {
		opts.Timeout = cfg.FetchTimeout
	}
	return &Crawler{
		opts:    opts,
		workers: workers,
		log:     log,
	}
}

// Crawl walks the site below seedURL to maxDepth levels of links. The seed is
// depth zero. Pages at depth maxDepth are still fetched and classified, but
// their links are not followed.
func (c *Crawler) Crawl(ctx context.Context, seedURL string, maxDepth int) (*Result, error) {
	parsed, err := url.Parse(seedURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid seed URL %q", seedURL)
	}

	frontier := NewFrontier()
	frontier.Enqueue(seedURL)

	base := strings.TrimSuffix(seedURL, "/")
	if err := c.expand(ctx, frontier, base, 0, maxDepth); err != nil {
		return nil, err
	}

	found := make([]string, 0)
	for _, u := range frontier.Found() {
		if IsValidURL(u) {
			found = append(found, u)
		}
	}

	result := &Result{
		Found:  found,
		Errors: frontier.Errors(),
	}
	c.log.Info("crawl complete",
		zap.String("seed", seedURL),
		zap.Int("found", len(result.Found)),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// expand drains the queued URLs at one depth level, visits them concurrently
// under the worker gate, and recurses into whatever the visits enqueued.
func (c *Crawler) expand(ctx context.Context, frontier *Frontier, base string, depth, maxDepth int) error {
	batch := frontier.DrainQueue()
	if len(batch) == 0 {
		return nil
	}

	found, _, errCount := frontier.Counts()
	c.log.Info("crawl progress",
		zap.Int("depth", depth),
		zap.Int("found", found),
		zap.Int("queued", len(batch)),
		zap.Int("errors", errCount),
	)

	// Once depth hits maxDepth the pages themselves are still classified,
	// but no further links are scanned.
	scanLinks := depth < maxDepth

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, u := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c.visit(gctx, frontier, base, u, scanLinks)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if !scanLinks {
		return nil
	}
	return c.expand(ctx, frontier, base, depth+1, maxDepth)
}

// visit classifies one URL and, when scanLinks is set, enqueues the unseen
// same-site links found on the page. Unexpected fetch failures are logged and
// the branch abandoned; only status-code failures land in the error set.
func (c *Crawler) visit(ctx context.Context, frontier *Frontier, base, pageURL string, scanLinks bool) {
	c.log.Debug("crawl", zap.String("url", pageURL))

	status, contentType, err := fetch.Head(ctx, pageURL, c.opts)
	if err != nil {
		c.log.Warn("failed to load", zap.String("url", pageURL), zap.Error(err))
		return
	}
	switch {
	case status == http.StatusNotFound:
		frontier.MarkError(pageURL, notFoundPrefix+pageURL)
		return
	case status != http.StatusOK:
		frontier.MarkError(pageURL, pageURL)
		return
	case !strings.Contains(contentType, "text/html"):
		// Not an error, just nothing to index here.
		return
	}

	frontier.MarkFound(pageURL)

	res, err := fetch.URL(ctx, pageURL, c.opts)
	if err != nil {
		var fetchErr *fetch.Error
		if errors.As(err, &fetchErr) && fetchErr.NotFound() {
			frontier.MarkError(pageURL, notFoundPrefix+pageURL)
			return
		}
		c.log.Warn("failed to load", zap.String("url", pageURL), zap.Error(err))
		return
	}

	if !scanLinks {
		return
	}
	for _, href := range extractHrefs(res.HTML) {
		target, ok := resolveLink(base, pageURL, href)
		if !ok {
			continue
		}
		frontier.Enqueue(target)
	}
}

// extractHrefs returns the raw href attributes of all anchor elements.
func extractHrefs(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var hrefs []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, exists := s.Attr("href"); exists && href != "" {
			hrefs = append(hrefs, href)
		}
	})
	return hrefs
}

// resolveLink applies the site-relative link policy: fragment-only, mailto,
// tel, and absolute targets are skipped; a root-relative link resolves
// against the site base; any other relative link is appended to the current
// page URL.
func resolveLink(base, current, href string) (string, bool) {
	switch {
	case strings.HasPrefix(href, "#"),
		strings.HasPrefix(href, "mailto:"),
		strings.HasPrefix(href, "tel:"),
		strings.HasPrefix(href, "http"):
		return "", false
	case strings.HasPrefix(href, "/"):
		return base + href, true
	default:
		return strings.TrimSuffix(current, "/") + "/" + href, true
	}
}
