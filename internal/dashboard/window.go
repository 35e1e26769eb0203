package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/onepa-availability/pkg/onepa"
)

const (
	// DefaultSpanDays is how far past today the default selection ends.
	DefaultSpanDays = 7

	// MaxAheadDays is the last selectable day, counted from today. Bookings
	// open roughly two and a half weeks ahead.
	MaxAheadDays = 17
)

// Window validates date selections against the bookable range, which starts
// today in the service's time zone.
type Window struct {
	Location *time.Location
	Now      func() time.Time
}

// Selection is a validated inclusive date range.
type Selection struct {
	From  onepa.Date
	To    onepa.Date
	Dates []onepa.Date
}

// Today returns the current date in the window's location.
func (w Window) Today() onepa.Date {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	loc := w.Location
	if loc == nil {
		loc = onepa.ServiceLocation
	}
	return onepa.DateOf(now().In(loc))
}

// Bounds returns the first and last selectable dates.
func (w Window) Bounds() (first, last onepa.Date) {
	today := w.Today()
	return today, today.AddDays(MaxAheadDays)
}

// Select validates the from and to query values (YYYY-MM-DD). Both empty
// selects today through DefaultSpanDays ahead.
func (w Window) Select(from, to string) (Selection, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	first, last := w.Bounds()

	if from == "" && to == "" {
		return w.selection(first, first.AddDays(DefaultSpanDays))
	}
	if from == "" || to == "" {
		return Selection{}, &onepa.InputError{Field: "dates", Reason: "select a start and end date"}
	}

	start, err := onepa.ParseDate(from)
	if err != nil {
		return Selection{}, err
	}
	end, err := onepa.ParseDate(to)
	if err != nil {
		return Selection{}, err
	}

	if start.Before(first) || end.After(last) {
		return Selection{}, &onepa.InputError{
			Field:  "dates",
			Reason: fmt.Sprintf("dates must fall between %s and %s", first, last),
		}
	}
	return w.selection(start, end)
}

func (w Window) selection(from, to onepa.Date) (Selection, error) {
	dates, err := onepa.DateRange(from, to)
	if err != nil {
		return Selection{}, err
	}
	return Selection{From: from, To: to, Dates: dates}, nil
}
