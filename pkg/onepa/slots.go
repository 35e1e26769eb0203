package onepa

import (
	"cmp"
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/Sternrassler/onepa-availability/pkg/client"
	"github.com/Sternrassler/onepa-availability/pkg/pagination"
	"github.com/Sternrassler/onepa-availability/pkg/table"
	"github.com/google/uuid"
)

// SlotColumns are the columns of a time-slot table, in order.
var SlotColumns = []string{"timeRangeId", "timeRangeName", "startTime", "endTime", "isPeak", "isAvailable", "bookingUrl"}

// SlotRecord is one bookable time window at an outlet. IsAvailable counts the
// resources (courts, rooms) free in that window.
type SlotRecord struct {
	TimeRangeID   string    `json:"timeRangeId"`
	TimeRangeName string    `json:"timeRangeName"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	IsPeak        bool      `json:"isPeak"`
	IsAvailable   int       `json:"isAvailable"`
	BookingURL    string    `json:"bookingUrl"`
}

// BookingPageURL returns the public availability page for a composite
// facility resource identifier.
func BookingPageURL(origin, resourceID string) string {
	q := url.Values{"facilityId": {resourceID}}
	return strings.TrimRight(origin, "/") + "/facilities/availability?" + q.Encode()
}

// TimeSlots fetches time-slot availability for one outlet on each of dates and
// aggregates it per slot. One request is issued per date; all run concurrently
// on one connection pool under the client's fetch timeout, each additionally
// bounded by the slot request timeout. Any failure fails the whole call.
func (c *Checker) TimeSlots(ctx context.Context, outlet string, dates []Date) ([]SlotRecord, error) {
	if strings.TrimSpace(outlet) == "" {
		return nil, &InputError{Field: "outlet", Reason: "select an outlet"}
	}
	if len(dates) == 0 {
		return nil, nil
	}

	resourceID := c.facility.ResourceID(outlet)
	bookingURL := BookingPageURL(c.client.Origin(), resourceID)

	logger := c.logger.With().
		Str("fetch_id", uuid.NewString()).
		Str("outlet", outlet).
		Logger()
	start := time.Now()

	ctx, cancel := c.fetchContext(ctx)
	defer cancel()

	session := c.client.NewSession()
	defer session.Close()

	jobs := make([]pagination.Job[SlotRecord], 0, len(dates))
	for _, date := range dates {
		jobs = append(jobs, c.slotsJob(session, resourceID, bookingURL, date))
	}

	logger.Info().
		Strs("dates", dateStrings(dates)).
		Str("resource_id", resourceID).
		Int("requests", len(jobs)).
		Msg("Fetching outlet time slots")

	cfg := pagination.Config{
		Name:    opTimeSlots,
		Timeout: c.client.Config().SlotRequestTimeout,
	}
	records, err := pagination.Gather(ctx, cfg, jobs)
	if err != nil {
		fetchFailuresTotal.WithLabelValues(opTimeSlots).Inc()
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("Time slot fetch failed")
		return nil, fmt.Errorf("fetch time slots for %s at %s: %w", c.facility, outlet, err)
	}

	aggregated := AggregateSlots(records)

	observeFetch(opTimeSlots, len(jobs), time.Since(start))
	logger.Info().
		Int("records", len(records)).
		Int("slots", len(aggregated)).
		Dur("duration", time.Since(start)).
		Msg("Time slot fetch complete")

	return aggregated, nil
}

func (c *Checker) slotsJob(s *client.Session, resourceID, bookingURL string, date Date) pagination.Job[SlotRecord] {
	return func(ctx context.Context) ([]SlotRecord, error) {
		params := url.Values{
			"selectedFacility": {resourceID},
			"selectedDate":     {date.Format(client.DateLayout)},
		}

		var resp slotsResponse
		if err := s.GetJSON(ctx, client.SlotsEndpoint, params, &resp); err != nil {
			return nil, fmt.Errorf("date %s: %w", date, err)
		}
		entries, err := resp.slotEntries()
		if err != nil {
			return nil, fmt.Errorf("date %s: %w", date, err)
		}

		records := make([]SlotRecord, 0, len(entries))
		for i, e := range entries {
			rec, err := e.slotRecord(bookingURL, ServiceLocation)
			if err != nil {
				return nil, fmt.Errorf("date %s slot %d: %w", date, i, err)
			}
			records = append(records, rec)
		}
		return records, nil
	}
}

type slotKey struct {
	timeRangeID   string
	timeRangeName string
	start         int64
	end           int64
	isPeak        bool
	bookingURL    string
}

// AggregateSlots groups records by every field except IsAvailable and sums
// IsAvailable within each group. The result is ordered by start time, end
// time, then the remaining key fields.
func AggregateSlots(records []SlotRecord) []SlotRecord {
	if len(records) == 0 {
		return []SlotRecord{}
	}

	index := make(map[slotKey]int, len(records))
	out := make([]SlotRecord, 0, len(records))
	for _, r := range records {
		k := slotKey{
			timeRangeID:   r.TimeRangeID,
			timeRangeName: r.TimeRangeName,
			start:         r.StartTime.UnixNano(),
			end:           r.EndTime.UnixNano(),
			isPeak:        r.IsPeak,
			bookingURL:    r.BookingURL,
		}
		if i, ok := index[k]; ok {
			out[i].IsAvailable += r.IsAvailable
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}

	slices.SortStableFunc(out, compareSlots)
	return out
}

func compareSlots(a, b SlotRecord) int {
	if n := a.StartTime.Compare(b.StartTime); n != 0 {
		return n
	}
	if n := a.EndTime.Compare(b.EndTime); n != 0 {
		return n
	}
	if n := cmp.Compare(a.TimeRangeID, b.TimeRangeID); n != 0 {
		return n
	}
	if n := cmp.Compare(a.TimeRangeName, b.TimeRangeName); n != 0 {
		return n
	}
	if a.IsPeak != b.IsPeak {
		if !a.IsPeak {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.BookingURL, b.BookingURL)
}

// OutletTimeSlotsTable fetches aggregated time slots for outlet and returns
// them as a table with SlotColumns.
func (c *Checker) OutletTimeSlotsTable(ctx context.Context, outlet string, dates []Date) (*table.Table[SlotRecord], error) {
	slots, err := c.TimeSlots(ctx, outlet, dates)
	if err != nil {
		return nil, err
	}
	return table.New(SlotColumns, slots), nil
}
