// Package onepa checks facility booking availability on onePA.
//
// A Checker is scoped to one facility category. It resolves the facility's
// outlet directory once (paging the search endpoint) and then answers two
// kinds of availability queries:
//
//   - outlet-level counts for every outlet across a set of dates, fetched in
//     batches of ten outlets per request
//   - time-slot availability for a single outlet across a set of dates,
//     aggregated per time slot
//
// Each query fans out one request per (date, batch) or per date, waits for all
// of them, and fails as a whole if any single request fails. Results are
// returned as tables whose columns are present even when there are no rows.
//
// Basic usage:
//
//	c, _ := client.New(client.DefaultConfig())
//	checker, _ := onepa.New(c, facility.BadmintonCourts)
//
//	dates, _ := onepa.DateRange(today, today.AddDays(7))
//	tbl, err := checker.AvailabilityTable(ctx, dates)
//
// The service omits outlets and time slots that have no availability instead
// of reporting zero, so a missing row means "unavailable".
package onepa
