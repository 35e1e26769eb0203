package pagination

import (
	"context"
	"errors"
	"fmt"
)

const (
	// DefaultPageSize is the number of results the search endpoint returns per
	// page, and the number of outlet names it accepts per query.
	DefaultPageSize = 10

	// MaxPages caps Walk so a misbehaving endpoint cannot page forever.
	MaxPages = 500
)

// ErrPageLimit is returned when Walk reaches MaxPages without a short page.
var ErrPageLimit = errors.New("page limit reached")

// PageFunc fetches one page (1-based) and returns its items.
type PageFunc[T any] func(ctx context.Context, page int) ([]T, error)

// Walk requests pages 1, 2, 3, ... and accumulates their items until a page
// returns fewer than pageSize items. A result count that is an exact multiple
// of pageSize therefore costs one extra, empty request.
func Walk[T any](ctx context.Context, pageSize int, fetch PageFunc[T]) ([]T, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var all []T
	for page := 1; page <= MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		items, err := fetch(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}
		all = append(all, items...)

		if len(items) < pageSize {
			return all, nil
		}
	}

	return nil, fmt.Errorf("%w: %d pages of %d", ErrPageLimit, MaxPages, pageSize)
}

// Chunk splits items into consecutive batches of at most size elements.
// The batches share the backing array of items.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultPageSize
	}
	if len(items) == 0 {
		return nil
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		end := min(i+size, len(items))
		batches = append(batches, items[i:end:end])
	}
	return batches
}
