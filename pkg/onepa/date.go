package onepa

import (
	"encoding/json"
	"fmt"
	"time"
)

// ISODate is the layout used for Date in JSON and String.
const ISODate = "2006-01-02"

// Date is a calendar date without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return Date{}, &InputError{Field: "date", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", s)}
	}
	return DateOf(t), nil
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n))
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	return d.In(time.UTC).Compare(o.In(time.UTC))
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool { return d.Compare(o) > 0 }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

// Format formats d with a time layout.
func (d Date) Format(layout string) string {
	return d.In(time.UTC).Format(layout)
}

// String returns d as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(ISODate)
}

// MarshalJSON encodes d as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange expands the inclusive range from..to into consecutive dates.
func DateRange(from, to Date) ([]Date, error) {
	if from.IsZero() || to.IsZero() {
		return nil, &InputError{Field: "dates", Reason: "select a start and end date"}
	}
	if to.Before(from) {
		return nil, &InputError{Field: "dates", Reason: fmt.Sprintf("end date %s is before start date %s", to, from)}
	}

	var dates []Date
	for d := from; !d.After(to); d = d.AddDays(1) {
		dates = append(dates, d)
	}
	return dates, nil
}
