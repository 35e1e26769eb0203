package onepa

import (
	"cmp"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Sternrassler/onepa-availability/pkg/client"
	"github.com/Sternrassler/onepa-availability/pkg/pagination"
	"github.com/Sternrassler/onepa-availability/pkg/table"
	"github.com/google/uuid"
)

// AvailabilityColumns are the columns of an availability table, in order.
var AvailabilityColumns = []string{"outlet", "count", "bookingUrl", "publicPrice", "membersPrice", "date"}

// AvailabilityRecord is one outlet's availability on one date as reported by
// the search endpoint.
type AvailabilityRecord struct {
	Outlet       string
	Date         Date
	Count        int
	ProductURL   string // as returned, usually a site-relative path
	PublicPrice  string
	MembersPrice string
}

// AvailabilityRow is one row of an availability table.
type AvailabilityRow struct {
	Outlet       string `json:"outlet"`
	Count        int    `json:"count"`
	BookingURL   string `json:"bookingUrl"`
	PublicPrice  string `json:"publicPrice"`
	MembersPrice string `json:"membersPrice"`
	Date         Date   `json:"date"`
}

// Availability fetches outlet-level availability for every outlet of the
// facility on each of dates. One request is issued per (date, batch of up to
// BatchSize outlets); all run concurrently on one connection pool under the
// client's fetch timeout, and any failure fails the whole call.
//
// Outlets with nothing available are omitted by the service.
func (c *Checker) Availability(ctx context.Context, dates []Date) ([]AvailabilityRecord, error) {
	outlets, err := c.ListOutlets(ctx)
	if err != nil {
		return nil, err
	}

	batches := pagination.Chunk(outlets, BatchSize)
	if len(batches) == 0 || len(dates) == 0 {
		c.logger.Debug().
			Int("outlets", len(outlets)).
			Int("dates", len(dates)).
			Msg("Nothing to fetch")
		return nil, nil
	}

	logger := c.logger.With().Str("fetch_id", uuid.NewString()).Logger()
	start := time.Now()

	ctx, cancel := c.fetchContext(ctx)
	defer cancel()

	session := c.client.NewSession()
	defer session.Close()

	jobs := make([]pagination.Job[AvailabilityRecord], 0, len(dates)*len(batches))
	for _, date := range dates {
		for _, batch := range batches {
			jobs = append(jobs, c.availabilityJob(session, strings.Join(batch, ","), date))
		}
	}

	logger.Info().
		Strs("dates", dateStrings(dates)).
		Int("batches", len(batches)).
		Int("requests", len(jobs)).
		Msg("Fetching outlet availability")

	records, err := pagination.Gather(ctx, pagination.Config{Name: opAvailability}, jobs)
	if err != nil {
		fetchFailuresTotal.WithLabelValues(opAvailability).Inc()
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("Availability fetch failed")
		return nil, fmt.Errorf("fetch availability for %s: %w", c.facility, err)
	}

	observeFetch(opAvailability, len(jobs), time.Since(start))
	logger.Info().
		Int("records", len(records)).
		Dur("duration", time.Since(start)).
		Msg("Availability fetch complete")

	return records, nil
}

func (c *Checker) availabilityJob(s *client.Session, outlets string, date Date) pagination.Job[AvailabilityRecord] {
	return func(ctx context.Context) ([]AvailabilityRecord, error) {
		params := url.Values{
			"outlet":   {outlets},
			"facility": {string(c.facility)},
			"date":     {date.Format(client.DateLayout)},
			"time":     {"all"},
		}

		var resp searchResponse
		if err := s.GetJSON(ctx, client.SearchEndpoint, params, &resp); err != nil {
			return nil, fmt.Errorf("date %s: %w", date, err)
		}
		results, err := resp.results()
		if err != nil {
			return nil, fmt.Errorf("date %s: %w", date, err)
		}

		records := make([]AvailabilityRecord, 0, len(results))
		for i, r := range results {
			rec, err := r.availabilityRecord(date)
			if err != nil {
				return nil, fmt.Errorf("date %s result %d: %w", date, i, err)
			}
			records = append(records, rec)
		}
		return records, nil
	}
}

// AvailabilityTable fetches availability and reshapes it into a table with
// AvailabilityColumns. Booking URLs are made absolute against the site origin.
// When nothing is reported the table has the columns and no rows.
func (c *Checker) AvailabilityTable(ctx context.Context, dates []Date) (*table.Table[AvailabilityRow], error) {
	records, err := c.Availability(ctx, dates)
	if err != nil {
		return nil, err
	}
	return ReshapeAvailability(c.client.Origin(), records), nil
}

// ReshapeAvailability converts raw records into an availability table sorted
// by date then outlet.
func ReshapeAvailability(origin string, records []AvailabilityRecord) *table.Table[AvailabilityRow] {
	rows := make([]AvailabilityRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, AvailabilityRow{
			Outlet:       r.Outlet,
			Count:        r.Count,
			BookingURL:   AbsoluteURL(origin, r.ProductURL),
			PublicPrice:  r.PublicPrice,
			MembersPrice: r.MembersPrice,
			Date:         r.Date,
		})
	}

	t := table.New(AvailabilityColumns, rows)
	t.SortFunc(func(a, b AvailabilityRow) int {
		if n := a.Date.Compare(b.Date); n != 0 {
			return n
		}
		return cmp.Compare(a.Outlet, b.Outlet)
	})
	return t
}

// AbsoluteURL prefixes a site-relative path with origin. Absolute URLs and
// empty paths are returned unchanged.
func AbsoluteURL(origin, path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	origin = strings.TrimRight(origin, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return origin + path
}
