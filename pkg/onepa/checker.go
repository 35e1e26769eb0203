package onepa

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/onepa-availability/pkg/client"
	"github.com/Sternrassler/onepa-availability/pkg/facility"
	"github.com/Sternrassler/onepa-availability/pkg/logging"
	"github.com/Sternrassler/onepa-availability/pkg/pagination"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// BatchSize is the number of outlet names combined into one availability query.
const BatchSize = pagination.DefaultPageSize

// ServiceLocation is the time zone of the booking service.
var ServiceLocation = loadServiceLocation()

func loadServiceLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Singapore")
	if err != nil {
		return time.FixedZone("SGT", 8*60*60)
	}
	return loc
}

// Checker answers availability queries for one facility category.
type Checker struct {
	client   *client.Client
	facility facility.Facility
	logger   zerolog.Logger

	// Outlet directory, populated on first successful ListOutlets.
	mu       sync.Mutex
	outlets  []string
	resolved bool
	resolve  singleflight.Group
}

// New creates a Checker for f.
func New(c *client.Client, f facility.Facility) (*Checker, error) {
	if c == nil {
		return nil, fmt.Errorf("client is required")
	}
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %q", facility.ErrUnknownFacility, string(f))
	}

	return &Checker{
		client:   c,
		facility: f,
		logger:   logging.NewLogger("onepa-checker").With().Str("facility", string(f)).Logger(),
	}, nil
}

// Facility returns the facility this Checker is scoped to.
func (c *Checker) Facility() facility.Facility {
	return c.facility
}

// ListOutlets returns the sorted, de-duplicated outlet names for the facility.
// The directory is fetched on first call and reused for the Checker's
// lifetime; failures are not cached. Concurrent callers share one walk, and
// each stops waiting when its own ctx is done.
func (c *Checker) ListOutlets(ctx context.Context) ([]string, error) {
	if outlets, ok := c.cachedOutlets(); ok {
		return outlets, nil
	}

	ch := c.resolve.DoChan("outlets", func() (any, error) {
		if outlets, ok := c.cachedOutlets(); ok {
			return outlets, nil
		}

		// The walk outlives any single caller; it is bounded by the fetch budget.
		walkCtx, cancel := c.fetchContext(context.WithoutCancel(ctx))
		defer cancel()

		outlets, err := c.fetchOutlets(walkCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.outlets = outlets
		c.resolved = true
		c.mu.Unlock()
		return outlets, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %w", ErrDirectory, c.facility, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]string)), nil
	}
}

func (c *Checker) cachedOutlets() ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.resolved {
		return nil, false
	}
	return slices.Clone(c.outlets), true
}

func (c *Checker) fetchOutlets(ctx context.Context) ([]string, error) {
	start := time.Now()

	pages := 0
	names, err := pagination.Walk(ctx, pagination.DefaultPageSize, func(ctx context.Context, page int) ([]string, error) {
		pages++
		params := url.Values{
			"facility": {string(c.facility)},
			"page":     {strconv.Itoa(page)},
		}

		var resp searchResponse
		if err := c.client.GetJSON(ctx, client.SearchEndpoint, params, &resp); err != nil {
			return nil, err
		}
		results, err := resp.results()
		if err != nil {
			return nil, err
		}

		out := make([]string, 0, len(results))
		for _, r := range results {
			name, err := r.outletName()
			if err != nil {
				return nil, err
			}
			out = append(out, name)
		}
		return out, nil
	})
	if err != nil {
		fetchFailuresTotal.WithLabelValues(opDirectory).Inc()
		c.logger.Error().Err(err).Int("pages", pages).Msg("Outlet directory resolution failed")
		return nil, fmt.Errorf("%w: %s: %w", ErrDirectory, c.facility, err)
	}

	slices.Sort(names)
	names = slices.Compact(names)

	observeFetch(opDirectory, pages, time.Since(start))
	c.logger.Info().
		Int("outlets", len(names)).
		Int("pages", pages).
		Dur("duration", time.Since(start)).
		Msg("Outlet directory resolved")

	if names == nil {
		names = []string{}
	}
	return names, nil
}

// fetchContext applies the shared budget for one fetch call.
func (c *Checker) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.client.Config().FetchTimeout)
}

func dateStrings(dates []Date) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.String()
	}
	return out
}
