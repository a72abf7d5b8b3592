package crawler

import (
	"sort"
	"sync"
)

// Frontier tracks the working URL sets for a single crawl invocation: URLs
// pending expansion, confirmed HTML pages, and failures. A URL lives in at
// most one of found/errors, and leaves the queue before it is classified.
//
// A Frontier is owned by one Crawl call but is mutated from its concurrent
// branches, so every access goes through the mutex.
type Frontier struct {
	mu     sync.Mutex
	queue  map[string]struct{}
	found  map[string]struct{}
	errors map[string]string // url -> annotated entry, e.g. "404: <url>"
}

// NewFrontier returns an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		queue:  make(map[string]struct{}),
		found:  make(map[string]struct{}),
		errors: make(map[string]string),
	}
}

// Enqueue adds a URL to the pending queue unless it has been seen before.
// Returns true if the URL was added.
func (f *Frontier) Enqueue(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.found[url]; ok {
		return false
	}
	if _, ok := f.errors[url]; ok {
		return false
	}
	if _, ok := f.queue[url]; ok {
		return false
	}
	f.queue[url] = struct{}{}
	return true
}

// DrainQueue atomically removes and returns all currently queued URLs, so
// each pending URL is claimed by exactly one expansion round.
func (f *Frontier) DrainQueue() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	batch := make([]string, 0, len(f.queue))
	for url := range f.queue {
		batch = append(batch, url)
	}
	f.queue = make(map[string]struct{})
	return batch
}

// MarkFound records a URL as a successfully fetched HTML page. URLs already
// classified as errors are left untouched to keep the sets disjoint.
func (f *Frontier) MarkFound(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.errors[url]; ok {
		return
	}
	f.found[url] = struct{}{}
}

// MarkError records a failed URL with its annotated entry (the entry is what
// the final error list reports, e.g. "404: <url>"). URLs already recorded as
// found are left untouched.
func (f *Frontier) MarkError(url, entry string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.found[url]; ok {
		return
	}
	f.errors[url] = entry
}

// Found returns the confirmed page URLs, sorted.
func (f *Frontier) Found() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	urls := make([]string, 0, len(f.found))
	for url := range f.found {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}

// Errors returns the annotated failure entries, sorted.
func (f *Frontier) Errors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := make([]string, 0, len(f.errors))
	for _, entry := range f.errors {
		entries = append(entries, entry)
	}
	sort.Strings(entries)
	return entries
}

// Counts reports the current found/queued/error set sizes for progress logs.
func (f *Frontier) Counts() (found, queued, errors int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.found), len(f.queue), len(f.errors)
}
