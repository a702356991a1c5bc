package http

import "context"

// PageFetcher fetches one page (numbered from 1) and reports whether more
// pages follow.
type PageFetcher[T any] func(ctx context.Context, page int) (items []T, hasMore bool, err error)

// PageIterator walks paginated results, fetching pages on demand.
type PageIterator[T any] struct {
	fetch  PageFetcher[T]
	page   int
	buffer []T
	done   bool
	err    error
}

// NewPageIterator creates an iterator over fetch.
func NewPageIterator[T any](fetch PageFetcher[T]) *PageIterator[T] {
	return &PageIterator[T]{fetch: fetch, page: 1}
}

// Next returns the next item. It returns (zero, false, nil) when the
// listing is exhausted.
func (p *PageIterator[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if p.err != nil {
		return zero, false, p.err
	}

	for len(p.buffer) == 0 && !p.done {
		items, hasMore, err := p.fetch(ctx, p.page)
		if err != nil {
			p.err = err
			return zero, false, err
		}
		p.buffer = items
		p.done = !hasMore
		p.page++
	}

	if len(p.buffer) == 0 {
		return zero, false, nil
	}
	item := p.buffer[0]
	p.buffer = p.buffer[1:]
	return item, true, nil
}

// Take returns up to n items; n <= 0 means all of them.
func (p *PageIterator[T]) Take(ctx context.Context, n int) ([]T, error) {
	var items []T
	for n <= 0 || len(items) < n {
		item, ok, err := p.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		items = append(items, item)
	}
	return items, nil
}
