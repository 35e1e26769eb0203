// Package chart builds Vega-Lite heat-map specifications from availability
// and time-slot tables. The returned Spec marshals to JSON that any Vega-Lite
// v5 embed can render directly; row data is inlined.
package chart

import (
	"time"

	"github.com/Sternrassler/onepa-availability/pkg/onepa"
	"github.com/Sternrassler/onepa-availability/pkg/table"
)

// Schema is the Vega-Lite schema the specs target.
const Schema = "https://vega.github.io/schema/vega-lite/v5.json"

// ColorScheme is the Vega color scheme used for availability counts.
const ColorScheme = "yellowgreen"

const legendTitle = "Available slots"

// Chart titles.
const (
	AvailabilityByDateTitle = "No. of slots by location, date"
	AvailabilityByTimeTitle = "No. of available slots by time, date"
)

// Spec is a Vega-Lite top-level or layer specification. Only the properties
// used by this package are modelled.
type Spec struct {
	Schema    string      `json:"$schema,omitempty"`
	Title     string      `json:"title,omitempty"`
	Data      *Data       `json:"data,omitempty"`
	Mark      *Mark       `json:"mark,omitempty"`
	Encoding  *Encoding   `json:"encoding,omitempty"`
	Transform []Transform `json:"transform,omitempty"`
	Layer     []Spec      `json:"layer,omitempty"`
	Usermeta  *Usermeta   `json:"usermeta,omitempty"`
}

// Data holds inline row values.
type Data struct {
	Values any `json:"values"`
}

// Mark is a mark definition.
type Mark struct {
	Type    string   `json:"type"`
	Opacity *float64 `json:"opacity,omitempty"`
}

// Encoding maps fields to visual channels.
type Encoding struct {
	X       *Field  `json:"x,omitempty"`
	Y       *Field  `json:"y,omitempty"`
	Color   *Field  `json:"color,omitempty"`
	Href    *Field  `json:"href,omitempty"`
	Tooltip []Field `json:"tooltip,omitempty"`
}

// Field is a field definition for one channel.
type Field struct {
	Field    string     `json:"field"`
	Type     string     `json:"type"`
	TimeUnit string     `json:"timeUnit,omitempty"`
	Title    string     `json:"title,omitempty"`
	Sort     *SortField `json:"sort,omitempty"`
	Scale    *Scale     `json:"scale,omitempty"`
	Legend   *Legend    `json:"legend,omitempty"`
}

// SortField sorts a channel by another field.
type SortField struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// Scale configures a channel scale.
type Scale struct {
	Scheme string `json:"scheme"`
}

// Legend configures a channel legend.
type Legend struct {
	Title string `json:"title"`
}

// Transform is a filter transform expressed as a Vega expression.
type Transform struct {
	Filter string `json:"filter"`
}

// Usermeta carries embed options for the renderer.
type Usermeta struct {
	EmbedOptions EmbedOptions `json:"embedOptions"`
}

// EmbedOptions are vega-embed options.
type EmbedOptions struct {
	Loader Loader `json:"loader"`
}

// Loader configures how vega-embed opens links.
type Loader struct {
	Target string `json:"target"`
}

// WallClock is the zone-less layout used for temporal values. Vega parses such
// strings as local time, so the service's wall clock renders unchanged in any
// viewer time zone.
const WallClock = "2006-01-02T15:04:05"

// dateValue is an availability row as inlined into a chart.
type dateValue struct {
	Outlet       string `json:"outlet"`
	Count        int    `json:"count"`
	BookingURL   string `json:"bookingUrl"`
	PublicPrice  string `json:"publicPrice"`
	MembersPrice string `json:"membersPrice"`
	Date         string `json:"date"`
}

// slotValue is a time-slot row as inlined into a chart.
type slotValue struct {
	TimeRangeID   string `json:"timeRangeId"`
	TimeRangeName string `json:"timeRangeName"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	IsPeak        bool   `json:"isPeak"`
	IsAvailable   int    `json:"isAvailable"`
	BookingURL    string `json:"bookingUrl"`
}

func dateValues(rows []onepa.AvailabilityRow) []dateValue {
	out := make([]dateValue, 0, len(rows))
	for _, r := range rows {
		out = append(out, dateValue{
			Outlet:       r.Outlet,
			Count:        r.Count,
			BookingURL:   r.BookingURL,
			PublicPrice:  r.PublicPrice,
			MembersPrice: r.MembersPrice,
			Date:         r.Date.Format(WallClock),
		})
	}
	return out
}

func slotValues(rows []onepa.SlotRecord) []slotValue {
	out := make([]slotValue, 0, len(rows))
	for _, r := range rows {
		out = append(out, slotValue{
			TimeRangeID:   r.TimeRangeID,
			TimeRangeName: r.TimeRangeName,
			StartTime:     wallClock(r.StartTime),
			EndTime:       wallClock(r.EndTime),
			IsPeak:        r.IsPeak,
			IsAvailable:   r.IsAvailable,
			BookingURL:    r.BookingURL,
		})
	}
	return out
}

// wallClock formats t in the service's time zone without an offset.
func wallClock(t time.Time) string {
	return t.In(onepa.ServiceLocation).Format(WallClock)
}

// Vega-Lite measurement types.
const (
	Nominal  = "nominal"
	Ordinal  = "ordinal"
	Temporal = "temporal"
)

// AvailabilityByDate renders an availability table as outlets against days of
// the month, colored by the number of free slots. Clicking a cell opens the
// outlet's booking page.
func AvailabilityByDate(t *table.Table[onepa.AvailabilityRow]) *Spec {
	return &Spec{
		Schema: Schema,
		Title:  AvailabilityByDateTitle,
		Data:   &Data{Values: dateValues(t.Rows())},
		Mark:   &Mark{Type: "rect"},
		Encoding: &Encoding{
			X: &Field{
				Field:    "date",
				Type:     Ordinal,
				TimeUnit: "date",
				Title:    "Day of Month",
				Sort:     &SortField{Field: "date", Order: "ascending"},
			},
			Y:     &Field{Field: "outlet", Type: Nominal},
			Color: countColor("count"),
			Href:  &Field{Field: "bookingUrl", Type: Nominal},
			Tooltip: []Field{
				{Field: "outlet", Type: Nominal},
				{Field: "count", Type: "quantitative"},
				{Field: "publicPrice", Type: Nominal},
				{Field: "membersPrice", Type: Nominal},
				{Field: "date", Type: Ordinal, TimeUnit: "day", Title: "day"},
				{Field: "date", Type: Nominal},
			},
		},
		Usermeta: newTabLinks(),
	}
}

// AvailabilityByTime renders a time-slot table as start times against days of
// the month. Only slots with something free are colored; a transparent layer
// underneath keeps tooltips and links on every slot.
func AvailabilityByTime(t *table.Table[onepa.SlotRecord]) *Spec {
	base := func() *Encoding {
		return &Encoding{
			X: &Field{
				Field:    "startTime",
				Type:     Ordinal,
				TimeUnit: "date",
				Title:    "Day of Month",
				Sort:     &SortField{Field: "startTime", Order: "ascending"},
			},
			Y: &Field{
				Field:    "startTime",
				Type:     Ordinal,
				TimeUnit: "hoursminutes",
				Title:    "Start Time",
			},
			Href: &Field{Field: "bookingUrl", Type: Nominal},
			Tooltip: []Field{
				{Field: "timeRangeName", Type: Nominal},
				{Field: "isPeak", Type: Nominal},
				{Field: "isAvailable", Type: "quantitative"},
				{Field: "startTime", Type: Ordinal, TimeUnit: "day", Title: "day"},
				{Field: "startTime", Type: Temporal, Title: "date"},
			},
		}
	}

	available := base()
	available.Color = countColor("isAvailable")

	hidden := 0.0
	return &Spec{
		Schema: Schema,
		Title:  AvailabilityByTimeTitle,
		Data:   &Data{Values: slotValues(t.Rows())},
		Layer: []Spec{
			{
				Mark:      &Mark{Type: "rect"},
				Encoding:  available,
				Transform: []Transform{{Filter: "datum.isAvailable > 0"}},
			},
			{
				Mark:     &Mark{Type: "rect", Opacity: &hidden},
				Encoding: base(),
			},
		},
		Usermeta: newTabLinks(),
	}
}

func countColor(field string) *Field {
	return &Field{
		Field:  field,
		Type:   Ordinal,
		Scale:  &Scale{Scheme: ColorScheme},
		Legend: &Legend{Title: legendTitle},
	}
}

// newTabLinks makes href channels open in a new browser tab.
func newTabLinks() *Usermeta {
	return &Usermeta{EmbedOptions: EmbedOptions{Loader: Loader{Target: "_blank"}}}
}
