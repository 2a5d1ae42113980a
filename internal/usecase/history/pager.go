package history

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultPageSize matches the dashboard tables
const DefaultPageSize = 10

// FetchTimeout bounds a shared page fetch, which outlives the caller that started it
const FetchTimeout = 15 * time.Second

// ErrInvalidPage is returned for page numbers below 1
var ErrInvalidPage = errors.New("page number must be positive")

// FetchFunc loads one page of rows and the total row count from the list source
type FetchFunc[T any] func(ctx context.Context, limit, offset int) ([]T, int, error)

// Page is one cached page of a list
type Page[T any] struct {
	Number  int // 1-based
	Rows    []T
	Total   int
	HasNext bool
}

// Pager caches discrete pages of a single list.
// Concurrent requests for the same uncached page share one fetch.
type Pager[T any] struct {
	size  int
	fetch FetchFunc[T]
	group singleflight.Group

	mu         sync.Mutex
	pages      map[int]Page[T]
	generation uint64
}

// NewPager creates a Pager; a non-positive size falls back to DefaultPageSize
func NewPager[T any](size int, fetch FetchFunc[T]) *Pager[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Pager[T]{
		size:  size,
		fetch: fetch,
		pages: make(map[int]Page[T]),
	}
}

// Get returns the requested page, fetching it on a cache miss
func (p *Pager[T]) Get(ctx context.Context, number int) (Page[T], error) {
	if number < 1 {
		return Page[T]{}, ErrInvalidPage
	}

	p.mu.Lock()
	if cached, ok := p.pages[number]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	gen := p.generation
	p.mu.Unlock()

	key := strconv.FormatUint(gen, 10) + ":" + strconv.Itoa(number)
	ch := p.group.DoChan(key, func() (interface{}, error) {
		p.mu.Lock()
		if cached, ok := p.pages[number]; ok && p.generation == gen {
			p.mu.Unlock()
			return cached, nil
		}
		p.mu.Unlock()

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FetchTimeout)
		defer cancel()

		rows, total, err := p.fetch(fetchCtx, p.size, (number-1)*p.size)
		if err != nil {
			return nil, err
		}
		page := Page[T]{
			Number:  number,
			Rows:    rows,
			Total:   total,
			HasNext: number*p.size < total,
		}

		p.mu.Lock()
		// a page fetched before Invalidate must not repopulate the cache
		if p.generation == gen {
			p.pages[number] = page
		}
		p.mu.Unlock()
		return page, nil
	})

	select {
	case <-ctx.Done():
		return Page[T]{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Page[T]{}, res.Err
		}
		return res.Val.(Page[T]), nil
	}
}

// Invalidate drops every cached page
func (p *Pager[T]) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages = make(map[int]Page[T])
	p.generation++
}

// Size returns the page size
func (p *Pager[T]) Size() int {
	return p.size
}
