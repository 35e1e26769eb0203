// Package facility enumerates the bookable facility categories offered on onePA.
package facility

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFacility is returned when a name is not one of the supported categories.
var ErrUnknownFacility = errors.New("unknown facility")

// Facility is a category of bookable recreational resource.
type Facility string

// Supported facility categories, named exactly as the search endpoint expects them.
const (
	BadmintonCourts Facility = "BADMINTON COURTS"
	BasketballCourt Facility = "BASKETBALL COURT"
	BBQPitCC        Facility = "BBQ PIT (CC)"
	BBQPitRC        Facility = "BBQ PIT (RC)"
	FutsalCourt     Facility = "FUTSAL COURT"
	SoccerField     Facility = "SOCCER FIELD"
	SquashCourt     Facility = "SQUASH COURT"
	StudyWorkspaces Facility = "STUDY & WORKSPACES"
	TableTennisRoom Facility = "TABLE TENNIS ROOM"
	TennisCourt     Facility = "TENNIS COURT"
)

var all = []Facility{
	BadmintonCourts,
	BasketballCourt,
	BBQPitCC,
	BBQPitRC,
	FutsalCourt,
	SoccerField,
	SquashCourt,
	StudyWorkspaces,
	TableTennisRoom,
	TennisCourt,
}

// All returns every supported facility in declaration order.
func All() []Facility {
	out := make([]Facility, len(all))
	copy(out, all)
	return out
}

// Parse returns the Facility named by s.
func Parse(s string) (Facility, error) {
	f := Facility(strings.TrimSpace(s))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFacility, s)
	}
	return f, nil
}

// Valid reports whether f is one of the supported categories.
func (f Facility) Valid() bool {
	for _, known := range all {
		if f == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (f Facility) String() string {
	return string(f)
}

// ResourceID builds the composite identifier used by the slot-detail endpoint:
// the outlet and facility names with spaces removed, joined by an underscore.
//
// Example:
//
//	BadmintonCourts.ResourceID("Ang Mo Kio CC") == "AngMoKioCC_BADMINTONCOURTS"
func (f Facility) ResourceID(outlet string) string {
	return stripSpaces(outlet) + "_" + stripSpaces(string(f))
}

func stripSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "")
}
