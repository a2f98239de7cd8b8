// Package culler audits an anchor list on demand, reporting anchors whose
// document can no longer be found. It never edits the list.
package culler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/nikbrunner/anchors/internal/model"
	"github.com/nikbrunner/anchors/internal/resolve"
)

// Status represents the health of one anchor.
type Status int

const (
	Live        Status = iota // document found
	Dangling                  // lookup succeeded but nothing is there
	Unreachable               // lookup failed or timed out
)

func (s Status) String() string {
	switch s {
	case Live:
		return "live"
	case Dangling:
		return "dangling"
	default:
		return "unreachable"
	}
}

// Result holds the check result for a single anchor.
type Result struct {
	Index int
	Entry model.Entry
	// Name is the current document name when the anchor is live
	Name   string
	Status Status
	Error  string // set for unreachable anchors
}

// Renamed reports whether the live document's name differs from the stored label.
func (r Result) Renamed() bool {
	return r.Status == Live && r.Name != "" && r.Name != r.Entry.Label
}

// ProgressFunc is called after each anchor is checked.
// completed is the number of anchors checked so far, total is the total count.
type ProgressFunc func(completed, total int)

// CheckAnchors looks up every anchor concurrently and returns results in list order.
func CheckAnchors(ctx context.Context, docs resolve.DocumentLookup, list model.List, concurrency int, timeout time.Duration, onProgress ProgressFunc) []Result {
	if len(list) == 0 {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]Result, len(list))
	jobs := make(chan int, len(list))
	var wg sync.WaitGroup

	// Progress tracking
	var progressMu sync.Mutex
	completed := 0

	// Start workers
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = checkAnchor(ctx, docs, idx, list[idx], timeout)

				if onProgress != nil {
					progressMu.Lock()
					completed++
					onProgress(completed, len(list))
					progressMu.Unlock()
				}
			}
		}()
	}

	// Send jobs
	for i := range list {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// checkAnchor looks up a single anchor and returns the result.
func checkAnchor(ctx context.Context, docs resolve.DocumentLookup, index int, entry model.Entry, timeout time.Duration) Result {
	result := Result{
		Index: index,
		Entry: entry,
	}

	if docs == nil {
		result.Status = Dangling
		return result
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	doc, err := lookup(ctx, docs, entry.Identifier)
	switch {
	case err != nil:
		result.Status = Unreachable
		result.Error = normalizeError(err)
	case doc == nil:
		result.Status = Dangling
	default:
		result.Status = Live
		result.Name = doc.Name
	}
	return result
}

// lookup runs the lookup but gives up when ctx ends first.
func lookup(ctx context.Context, docs resolve.DocumentLookup, identifier string) (*model.Document, error) {
	type found struct {
		doc *model.Document
		err error
	}
	ch := make(chan found, 1)
	go func() {
		doc, err := docs.FromIdentifier(ctx, identifier)
		ch <- found{doc, err}
	}()

	select {
	case f := <-ch:
		return f.doc, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// normalizeError simplifies verbose error messages into readable categories.
func normalizeError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Timeout"
	case errors.Is(err, context.Canceled):
		return "Cancelled"
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "timeout"):
		return "Timeout"
	case strings.Contains(lower, "connection refused"):
		return "Connection refused"
	default:
		return msg
	}
}

// Summary counts results per status.
func Summary(results []Result) (live, dangling, unreachable int) {
	for _, r := range results {
		switch r.Status {
		case Live:
			live++
		case Dangling:
			dangling++
		default:
			unreachable++
		}
	}
	return live, dangling, unreachable
}
