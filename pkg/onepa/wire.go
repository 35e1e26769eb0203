package onepa

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/onepa-availability/pkg/client"
)

// Raw response shapes. Required keys are pointers so a missing key can be told
// apart from a zero value; every accessor reports client.ErrUnexpectedShape.

type searchResponse struct {
	Data *struct {
		Results *[]searchResult `json:"results"`
	} `json:"data"`
}

func (r *searchResponse) results() ([]searchResult, error) {
	if r.Data == nil {
		return nil, shapeError("search response", "data")
	}
	if r.Data.Results == nil {
		return nil, shapeError("search response", "data.results")
	}
	return *r.Data.Results, nil
}

type searchResult struct {
	Outlet     *string     `json:"outlet"`
	Count      *flexCount  `json:"count"`
	ProductURL *string     `json:"productUrl"`
	Price      *priceBlock `json:"price"`
}

type priceBlock struct {
	PublicPrice  *flexString `json:"publicPrice"`
	MembersPrice *flexString `json:"membersPrice"`
}

func (r searchResult) outletName() (string, error) {
	if r.Outlet == nil {
		return "", shapeError("search result", "outlet")
	}
	return *r.Outlet, nil
}

func (r searchResult) availabilityRecord(date Date) (AvailabilityRecord, error) {
	const where = "search result"

	outlet, err := r.outletName()
	if err != nil {
		return AvailabilityRecord{}, err
	}
	switch {
	case r.Count == nil:
		return AvailabilityRecord{}, shapeError(where, "count")
	case r.ProductURL == nil:
		return AvailabilityRecord{}, shapeError(where, "productUrl")
	case r.Price == nil:
		return AvailabilityRecord{}, shapeError(where, "price")
	case r.Price.PublicPrice == nil:
		return AvailabilityRecord{}, shapeError(where, "price.publicPrice")
	case r.Price.MembersPrice == nil:
		return AvailabilityRecord{}, shapeError(where, "price.membersPrice")
	}
	if *r.Count < 0 {
		return AvailabilityRecord{}, fmt.Errorf("%w: %s: negative count %d", client.ErrUnexpectedShape, where, *r.Count)
	}

	return AvailabilityRecord{
		Outlet:       outlet,
		Date:         date,
		Count:        int(*r.Count),
		ProductURL:   *r.ProductURL,
		PublicPrice:  string(*r.Price.PublicPrice),
		MembersPrice: string(*r.Price.MembersPrice),
	}, nil
}

type slotsResponse struct {
	Response *struct {
		// RawMessage tells a missing key (error) from an explicit null (no resources).
		ResourceList json.RawMessage `json:"resourceList"`
	} `json:"response"`
}

type resourceStatus struct {
	SlotList *[]slotEntry `json:"slotList"`
}

// slotEntries flattens every resource's slot list. A null resource list yields
// no entries.
func (r *slotsResponse) slotEntries() ([]slotEntry, error) {
	if r.Response == nil {
		return nil, shapeError("slots response", "response")
	}
	raw := bytes.TrimSpace(r.Response.ResourceList)
	if len(raw) == 0 {
		return nil, shapeError("slots response", "response.resourceList")
	}
	if bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var resources []resourceStatus
	if err := json.Unmarshal(raw, &resources); err != nil {
		return nil, fmt.Errorf("%w: slots response: resourceList: %v", client.ErrUnexpectedShape, err)
	}

	var entries []slotEntry
	for i, res := range resources {
		if res.SlotList == nil {
			return nil, shapeError(fmt.Sprintf("resource %d", i), "slotList")
		}
		entries = append(entries, *res.SlotList...)
	}
	return entries, nil
}

type slotEntry struct {
	TimeRangeID   *flexString `json:"timeRangeId"`
	TimeRangeName *string     `json:"timeRangeName"`
	StartTime     *string     `json:"startTime"`
	EndTime       *string     `json:"endTime"`
	IsPeak        *bool       `json:"isPeak"`
	IsAvailable   *flexCount  `json:"isAvailable"`
}

func (e slotEntry) slotRecord(bookingURL string, loc *time.Location) (SlotRecord, error) {
	const where = "slot"

	switch {
	case e.TimeRangeID == nil:
		return SlotRecord{}, shapeError(where, "timeRangeId")
	case e.TimeRangeName == nil:
		return SlotRecord{}, shapeError(where, "timeRangeName")
	case e.StartTime == nil:
		return SlotRecord{}, shapeError(where, "startTime")
	case e.EndTime == nil:
		return SlotRecord{}, shapeError(where, "endTime")
	case e.IsPeak == nil:
		return SlotRecord{}, shapeError(where, "isPeak")
	case e.IsAvailable == nil:
		return SlotRecord{}, shapeError(where, "isAvailable")
	}

	start, err := parseServiceTime(*e.StartTime, loc)
	if err != nil {
		return SlotRecord{}, err
	}
	end, err := parseServiceTime(*e.EndTime, loc)
	if err != nil {
		return SlotRecord{}, err
	}

	return SlotRecord{
		TimeRangeID:   string(*e.TimeRangeID),
		TimeRangeName: *e.TimeRangeName,
		StartTime:     start,
		EndTime:       end,
		IsPeak:        *e.IsPeak,
		IsAvailable:   int(*e.IsAvailable),
		BookingURL:    bookingURL,
	}, nil
}

var serviceTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// parseServiceTime parses a slot timestamp. Zone-less values are taken to be
// in loc.
func parseServiceTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range serviceTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: slot: unparseable timestamp %q", client.ErrUnexpectedShape, s)
}

func shapeError(where, key string) error {
	return fmt.Errorf("%w: %s: missing %q", client.ErrUnexpectedShape, where, key)
}

// flexString accepts a JSON string or number and keeps its text.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// flexCount accepts a JSON boolean (true counts as 1) or an integral number.
type flexCount int

func (f *flexCount) UnmarshalJSON(data []byte) error {
	switch s := strings.TrimSpace(string(data)); s {
	case "true":
		*f = 1
		return nil
	case "false":
		*f = 0
		return nil
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v != float64(int64(v)) {
			return fmt.Errorf("expected boolean or integer, got %s", data)
		}
		*f = flexCount(v)
		return nil
	}
}
