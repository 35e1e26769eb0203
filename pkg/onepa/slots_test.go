package onepa

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/Sternrassler/onepa-availability/internal/testutil"
	"github.com/Sternrassler/onepa-availability/pkg/client"
	"github.com/Sternrassler/onepa-availability/pkg/facility"
)

const amkResource = "AngMoKioCC_BADMINTONCOURTS"

func slot(id int, start string, available any) testutil.Slot {
	st, _ := time.Parse("2006-01-02T15:04:05", start)
	return testutil.Slot{
		TimeRangeID:   id,
		TimeRangeName: st.Format("3:04 PM"),
		StartTime:     start,
		EndTime:       st.Add(time.Hour).Format("2006-01-02T15:04:05"),
		IsPeak:        st.Hour() >= 18,
		IsAvailable:   available,
	}
}

func TestTimeSlots_RequestsOnePerDate(t *testing.T) {
	mock := testutil.NewMockOnePA()
	defer mock.Close()

	checker := newTestChecker(t, mock, facility.BadmintonCourts)
	dates := []Date{day1, day2, day2.AddDays(1)}

	if _, err := checker.TimeSlots(context.Background(), "Ang Mo Kio CC", dates); err != nil {
		t.Fatalf("TimeSlots() error = %v", err)
	}

	if n := mock.GetPathCount(testutil.SlotsPath); n != 3 {
		t.Errorf("slot requests = %d, want 3", n)
	}
	var gotDates []string
	for _, q := range mock.Queries() {
		if q.Get("selectedFacility") != amkResource {
			t.Errorf("selectedFacility = %q, want %q", q.Get("selectedFacility"), amkResource)
		}
		gotDates = append(gotDates, q.Get("selectedDate"))
	}
	slices.Sort(gotDates)
	if !slices.Equal(gotDates, []string{"20/10/2026", "21/10/2026", "22/10/2026"}) {
		t.Errorf("selectedDate values = %v", gotDates)
	}
}

func TestTimeSlots_AggregatesAcrossResources(t *testing.T) {
	mock := testutil.NewMockOnePA()
	defer mock.Close()

	// Two courts, both free at 07:00; only court 2 free at 08:00.
	mock.SetSlots(amkResource, "20/10/2026", [][]testutil.Slot{
		{slot(1, "2026-10-20T07:00:00", true), slot(2, "2026-10-20T08:00:00", false)},
		{slot(1, "2026-10-20T07:00:00", true), slot(2, "2026-10-20T08:00:00", true)},
	})

	checker := newTestChecker(t, mock, facility.BadmintonCourts)
	slots, err := checker.TimeSlots(context.Background(), "Ang Mo Kio CC", []Date{day1})
	if err != nil {
		t.Fatalf("TimeSlots() error = %v", err)
	}

	if len(slots) != 2 {
		t.Fatalf("slots = %d, want 2: %+v", len(slots), slots)
	}
	if slots[0].TimeRangeID != "1" || slots[0].IsAvailable != 2 {
		t.Errorf("07:00 slot = %+v, want 2 available", slots[0])
	}
	if slots[1].TimeRangeID != "2" || slots[1].IsAvailable != 1 {
		t.Errorf("08:00 slot = %+v, want 1 available", slots[1])
	}

	wantStart := time.Date(2026, time.October, 20, 7, 0, 0, 0, ServiceLocation)
	if !slots[0].StartTime.Equal(wantStart) {
		t.Errorf("StartTime = %v, want %v", slots[0].StartTime, wantStart)
	}

	wantURL := "https://www.onepa.gov.sg/facilities/availability?facilityId=" + amkResource
	for _, s := range slots {
		if s.BookingURL != wantURL {
			t.Errorf("BookingURL = %q, want %q", s.BookingURL, wantURL)
		}
	}
}

func TestTimeSlots_SameTupleAcrossDatesIsSummed(t *testing.T) {
	mock := testutil.NewMockOnePA()
	defer mock.Close()

	shared := slot(7, "2026-10-20T19:00:00", 2)
	mock.SetSlots(amkResource, "20/10/2026", [][]testutil.Slot{{shared}})
	shared.IsAvailable = 3
	mock.SetSlots(amkResource, "21/10/2026", [][]testutil.Slot{{shared}})

	checker := newTestChecker(t, mock, facility.BadmintonCourts)
	tbl, err := checker.OutletTimeSlotsTable(context.Background(), "Ang Mo Kio CC", []Date{day1, day2})
	if err != nil {
		t.Fatalf("OutletTimeSlotsTable() error = %v", err)
	}

	if tbl.Len() != 1 {
		t.Fatalf("rows = %d, want 1", tbl.Len())
	}
	row := tbl.Rows()[0]
	if row.IsAvailable != 5 {
		t.Errorf("IsAvailable = %d, want 5", row.IsAvailable)
	}
	if !row.IsPeak {
		t.Error("IsPeak should be preserved")
	}
	if !slices.Equal(tbl.Columns(), SlotColumns) {
		t.Errorf("columns = %v", tbl.Columns())
	}
}

func TestTimeSlots_NullResourceList(t *testing.T) {
	mock := testutil.NewMockOnePA()
	defer mock.Close()

	mock.SetSlots(amkResource, "20/10/2026", nil)
	mock.SetSlots(amkResource, "21/10/2026", [][]testutil.Slot{{slot(1, "2026-10-21T09:00:00", true)}})

	checker := newTestChecker(t, mock, facility.BadmintonCourts)
	slots, err := checker.TimeSlots(context.Background(), "Ang Mo Kio CC", []Date{day1, day2})
	if err != nil {
		t.Fatalf("TimeSlots() error = %v", err)
	}
	if len(slots) != 1 || slots[0].StartTime.Day() != 21 {
		t.Errorf("slots = %+v", slots)
	}
}

func TestOutletTimeSlotsTable_Empty(t *testing.T) {
	mock := testutil.NewMockOnePA()
	defer mock.Close()

	checker := newTestChecker(t, mock, facility.BadmintonCourts)
	tbl, err := checker.OutletTimeSlotsTable(context.Background(), "Ang Mo Kio CC", []Date{day1})
	if err != nil {
		t.Fatalf("OutletTimeSlotsTable() error = %v", err)
	}
	if tbl.Len() != 0 || !slices.Equal(tbl.Columns(), SlotColumns) {
		t.Errorf("table = %d rows, columns %v", tbl.Len(), tbl.Columns())
	}
}

func TestTimeSlots_EmptyOutlet(t *testing.T) {
	mock := testutil.NewMockOnePA()
	defer mock.Close()

	checker := newTestChecker(t, mock, facility.BadmintonCourts)
	_, err := checker.TimeSlots(context.Background(), "  ", []Date{day1})

	var inputErr *InputError
	if !errors.As(err, &inputErr) || inputErr.Field != "outlet" {
		t.Errorf("error = %v, want outlet InputError", err)
	}
	if mock.GetRequestCount() != 0 {
		t.Error("no request should be issued for an empty outlet")
	}
}

func TestTimeSlots_SingleFailureFailsAll(t *testing.T) {
	mock := testutil.NewMockOnePA()
	defer mock.Close()

	mock.SetSlots(amkResource, "20/10/2026", [][]testutil.Slot{{slot(1, "2026-10-20T07:00:00", true)}})
	mock.FailWhen(func(r *http.Request) bool {
		return r.URL.Query().Get("selectedDate") == "21/10/2026"
	})

	checker := newTestChecker(t, mock, facility.BadmintonCourts)
	slots, err := checker.TimeSlots(context.Background(), "Ang Mo Kio CC", []Date{day1, day2})
	if client.ClassOf(err) != client.ErrorClassServer {
		t.Fatalf("error = %v, want server error", err)
	}
	if slots != nil {
		t.Errorf("partial slots returned: %+v", slots)
	}
}

func TestTimeSlots_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing response", body: `{}`},
		{name: "missing resourceList", body: `{"response": {}}`},
		{name: "missing slotList", body: `{"response": {"resourceList": [{}]}}`},
		{name: "missing isAvailable", body: `{"response": {"resourceList": [{"slotList": [{"timeRangeId": 1, "timeRangeName": "7AM", "startTime": "2026-10-20T07:00:00", "endTime": "2026-10-20T08:00:00", "isPeak": false}]}]}}`},
		{name: "bad timestamp", body: `{"response": {"resourceList": [{"slotList": [{"timeRangeId": 1, "timeRangeName": "7AM", "startTime": "tomorrow", "endTime": "2026-10-20T08:00:00", "isPeak": false, "isAvailable": true}]}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockOnePA()
			defer mock.Close()

			mock.SetResponse(testutil.SlotsPath, testutil.NewJSONResponse(tt.body))
			checker := newTestChecker(t, mock, facility.BadmintonCourts)

			_, err := checker.TimeSlots(context.Background(), "Ang Mo Kio CC", []Date{day1})
			if !errors.Is(err, client.ErrUnexpectedShape) {
				t.Errorf("error = %v, want ErrUnexpectedShape", err)
			}
		})
	}
}

func TestAggregateSlots(t *testing.T) {
	base := time.Date(2026, time.October, 20, 7, 0, 0, 0, ServiceLocation)
	rec := func(id string, start time.Time, peak bool, n int) SlotRecord {
		return SlotRecord{
			TimeRangeID:   id,
			TimeRangeName: id,
			StartTime:     start,
			EndTime:       start.Add(time.Hour),
			IsPeak:        peak,
			IsAvailable:   n,
			BookingURL:    "u",
		}
	}

	in := []SlotRecord{
		rec("b", base.Add(time.Hour), false, 1),
		rec("a", base, false, 2),
		rec("a", base, false, 3),
		// Peak flag differs, so this is its own group.
		rec("a", base, true, 4),
		// Same instant in another zone joins the first "b".
		rec("b", base.Add(time.Hour).In(time.UTC), false, 1),
	}

	got := AggregateSlots(in)
	want := []struct {
		id   string
		peak bool
		n    int
	}{
		{"a", false, 5},
		{"a", true, 4},
		{"b", false, 2},
	}

	if len(got) != len(want) {
		t.Fatalf("groups = %d, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].TimeRangeID != w.id || got[i].IsPeak != w.peak || got[i].IsAvailable != w.n {
			t.Errorf("group %d = %+v, want %+v", i, got[i], w)
		}
	}

	if out := AggregateSlots(nil); out == nil || len(out) != 0 {
		t.Errorf("AggregateSlots(nil) = %#v, want empty slice", out)
	}
}

func TestBookingPageURL(t *testing.T) {
	tests := []struct {
		resourceID string
		want       string
	}{
		{amkResource, "https://www.onepa.gov.sg/facilities/availability?facilityId=AngMoKioCC_BADMINTONCOURTS"},
		{"BishanCC_STUDY&WORKSPACES", "https://www.onepa.gov.sg/facilities/availability?facilityId=BishanCC_STUDY%26WORKSPACES"},
	}

	for _, tt := range tests {
		if got := BookingPageURL("https://www.onepa.gov.sg", tt.resourceID); got != tt.want {
			t.Errorf("BookingPageURL(%q) = %q, want %q", tt.resourceID, got, tt.want)
		}
	}
}
