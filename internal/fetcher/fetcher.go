// Package fetcher pulls transaction pages from the store for a single
// consumer (one rendered view). It owns the in-flight state explicitly
// instead of a process-wide loading flag: a weighted semaphore of one
// is the whole state machine.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"finlogs/internal/core"
)

const (
	// DefaultPageSize matches the transaction list view.
	DefaultPageSize = 50
	// scanPageSize is used by the by-date fallback scan; larger pages
	// keep the full-log walk cheap.
	scanPageSize = 1000
)

var (
	// ErrFetchInFlight reports that a page request was dropped because
	// another one is still outstanding. Requests are dropped, never
	// queued, so rapid repeats degrade to latest-wins. Callers log it
	// and move on; it is not a user-facing failure.
	ErrFetchInFlight = errors.New("page fetch already in flight")

	// ErrPageOutOfRange reports a locally rejected page number; no
	// store call is made.
	ErrPageOutOfRange = errors.New("page out of range")
)

// Source is the store boundary the fetcher consumes.
// ListTransactionsByDate returns core.ErrNotFound when the store has
// no direct by-date query; the fetcher then falls back to scanning.
type Source interface {
	ListTransactions(ctx context.Context, page, limit int) (core.TransactionPage, error)
	ListTransactionsByDate(ctx context.Context, date core.Date) ([]core.Transaction, error)
}

// Fetcher retrieves transaction pages with single-flight concurrency
// control. Methods are safe for concurrent use; at most one source
// call is outstanding at any time.
type Fetcher struct {
	source   Source
	pageSize int
	inflight *semaphore.Weighted

	mu         sync.Mutex
	current    core.TransactionPage
	totalPages int
}

func New(source Source, pageSize int) *Fetcher {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Fetcher{
		source:   source,
		pageSize: pageSize,
		inflight: semaphore.NewWeighted(1),
	}
}

// FetchPage loads one page. Out-of-range pages are rejected locally;
// a request racing an outstanding one returns ErrFetchInFlight without
// touching the store. On failure the previously applied page is left
// untouched.
func (f *Fetcher) FetchPage(ctx context.Context, page int) (core.TransactionPage, error) {
	if page < 1 {
		return core.TransactionPage{}, ErrPageOutOfRange
	}
	f.mu.Lock()
	known := f.totalPages
	f.mu.Unlock()
	if known > 0 && page > known {
		return core.TransactionPage{}, ErrPageOutOfRange
	}

	if !f.inflight.TryAcquire(1) {
		slog.DebugContext(ctx, "Dropping page fetch, another is in flight", "page", page)
		return core.TransactionPage{}, ErrFetchInFlight
	}
	defer f.inflight.Release(1)

	p, err := f.source.ListTransactions(ctx, page, f.pageSize)
	if err != nil {
		return core.TransactionPage{}, fmt.Errorf("list transactions page %d: %w", page, err)
	}

	f.mu.Lock()
	f.current = p
	f.totalPages = p.TotalPages
	f.mu.Unlock()

	return p, nil
}

// Current returns the last successfully applied page.
func (f *Fetcher) Current() core.TransactionPage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// FetchByDate returns all transactions dated on date. It tries the
// store's direct by-date query first; when the store reports the
// capability missing (core.ErrNotFound) it scans every page of the log
// at a larger page size and filters client-side. The scan re-reads
// TotalPages from each response because the store may correct it while
// the walk is running.
func (f *Fetcher) FetchByDate(ctx context.Context, date core.Date) ([]core.Transaction, error) {
	if !f.inflight.TryAcquire(1) {
		slog.DebugContext(ctx, "Dropping by-date fetch, another is in flight", "date", date.String())
		return nil, ErrFetchInFlight
	}
	defer f.inflight.Release(1)

	items, err := f.source.ListTransactionsByDate(ctx, date)
	if err == nil {
		return items, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("list transactions by date %s: %w", date.String(), err)
	}

	slog.InfoContext(ctx, "By-date query unavailable, scanning all pages", "date", date.String())

	var matched []core.Transaction
	totalPages := 1
	for page := 1; page <= totalPages; page++ {
		p, err := f.source.ListTransactions(ctx, page, scanPageSize)
		if err != nil {
			return nil, fmt.Errorf("scan page %d: %w", page, err)
		}
		if p.TotalPages > 0 {
			totalPages = p.TotalPages
		}
		for _, t := range p.Items {
			if t.Date.String() == date.String() {
				matched = append(matched, t)
			}
		}
	}
	return matched, nil
}
