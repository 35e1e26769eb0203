// Package testutil provides testing utilities for the onePA client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// APIPrefix is the path prefix the mock serves the API under, mirroring the
// real service's "/pacesapi".
const APIPrefix = "/pacesapi"

// Mock endpoint paths.
const (
	SearchPath = APIPrefix + "/facilitysearch/searchjson"
	SlotsPath  = APIPrefix + "/facilityavailability/GetFacilitySlots"
)

// MockResponse defines a canned response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// Availability is the per-outlet payload the mock returns from an
// availability search.
type Availability struct {
	Count        int
	ProductURL   string
	PublicPrice  string
	MembersPrice string
}

// Slot is one slot-list entry returned by the mock slot endpoint.
type Slot struct {
	TimeRangeID   int    `json:"timeRangeId"`
	TimeRangeName string `json:"timeRangeName"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	IsPeak        bool   `json:"isPeak"`
	// IsAvailable is a bool (one resource) or a count.
	IsAvailable any `json:"isAvailable"`
}

// MockOnePA is a configurable mock of the onePA booking API.
type MockOnePA struct {
	server *httptest.Server
	mu     sync.RWMutex

	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// facility -> outlet names, served in pages of PageSize
	outlets map[string][]string
	// facility|outlet|DD/MM/YYYY -> availability
	availability map[string]Availability
	// selectedFacility|DD/MM/YYYY -> resources, each a slot list; nil entry = null resourceList
	slots map[string][][]Slot

	// FailWhen, when set, makes matching requests answer 500.
	failWhen func(r *http.Request) bool
	// DelayFor, when set, delays each response by the returned duration.
	delayFor func(r *http.Request) time.Duration

	// PageSize for directory listing (default 10).
	PageSize int

	// Tracking
	RequestCount   int
	requestsByPath map[string]int
	queries        []url.Values
	inFlight       int
	peakInFlight   int
}

// NewMockOnePA creates a new mock onePA server.
func NewMockOnePA() *MockOnePA {
	mock := &MockOnePA{
		handlers:       make(map[string]func(w http.ResponseWriter, r *http.Request)),
		outlets:        make(map[string][]string),
		availability:   make(map[string]Availability),
		slots:          make(map[string][][]Slot),
		requestsByPath: make(map[string]int),
		PageSize:       10,
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.requestsByPath[r.URL.Path]++
		mock.queries = append(mock.queries, r.URL.Query())
		mock.inFlight++
		if mock.inFlight > mock.peakInFlight {
			mock.peakInFlight = mock.inFlight
		}
		handler, exists := mock.handlers[r.URL.Path]
		failWhen := mock.failWhen
		delayFor := mock.delayFor
		mock.mu.Unlock()

		defer func() {
			mock.mu.Lock()
			mock.inFlight--
			mock.mu.Unlock()
		}()

		if delayFor != nil {
			if d := delayFor(r); d > 0 {
				select {
				case <-time.After(d):
				case <-r.Context().Done():
					return
				}
			}
		}

		if failWhen != nil && failWhen(r) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			return
		}

		if exists {
			handler(w, r)
			return
		}

		switch r.URL.Path {
		case SearchPath:
			mock.searchHandler(w, r)
		case SlotsPath:
			mock.slotsHandler(w, r)
		default:
			http.NotFound(w, r)
		}
	}))

	return mock
}

// URL returns the mock server URL (without the API prefix).
func (m *MockOnePA) URL() string {
	return m.server.URL
}

// BaseURL returns the API root to configure a client with.
func (m *MockOnePA) BaseURL() string {
	return m.server.URL + APIPrefix
}

// Close shuts down the mock server.
func (m *MockOnePA) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockOnePA) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.requestsByPath = make(map[string]int)
	m.queries = nil
	m.peakInFlight = 0
}

// SetHandler sets a custom handler for a specific path.
func (m *MockOnePA) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a canned response for a path.
func (m *MockOnePA) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetOutlets configures the directory listing for a facility.
func (m *MockOnePA) SetOutlets(facility string, outlets []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outlets[facility] = append([]string(nil), outlets...)
}

// SetAvailability configures what the availability search reports for one
// outlet on one date (DD/MM/YYYY). Unconfigured outlets are omitted, like the
// real service does for outlets with nothing free.
func (m *MockOnePA) SetAvailability(facility, outlet, date string, a Availability) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.availability[facility+"|"+outlet+"|"+date] = a
}

// SetSlots configures the slot endpoint for a composite resource id and date
// (DD/MM/YYYY). Each inner slice is one resource's slot list. A nil resources
// value answers with a null resourceList.
func (m *MockOnePA) SetSlots(resourceID, date string, resources [][]Slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[resourceID+"|"+date] = resources
}

// FailWhen makes matching requests answer 500.
func (m *MockOnePA) FailWhen(match func(r *http.Request) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWhen = match
}

// DelayFor delays each response by the duration returned for it.
func (m *MockOnePA) DelayFor(delay func(r *http.Request) time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delayFor = delay
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockOnePA) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPathCount returns the number of requests made to path.
func (m *MockOnePA) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestsByPath[path]
}

// PeakInFlight returns the highest number of concurrently served requests.
func (m *MockOnePA) PeakInFlight() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.peakInFlight
}

// Queries returns the query parameters of every request, in arrival order.
func (m *MockOnePA) Queries() []url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]url.Values, len(m.queries))
	copy(out, m.queries)
	return out
}

func (m *MockOnePA) searchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	facility := q.Get("facility")

	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []map[string]any

	if q.Has("outlet") {
		date := q.Get("date")
		for _, outlet := range strings.Split(q.Get("outlet"), ",") {
			a, ok := m.availability[facility+"|"+outlet+"|"+date]
			if !ok {
				continue
			}
			results = append(results, map[string]any{
				"outlet":     outlet,
				"count":      a.Count,
				"productUrl": a.ProductURL,
				"price": map[string]any{
					"publicPrice":  a.PublicPrice,
					"membersPrice": a.MembersPrice,
				},
			})
		}
	} else {
		page, err := strconv.Atoi(q.Get("page"))
		if err != nil || page < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad page"})
			return
		}
		names := m.outlets[facility]
		start := (page - 1) * m.PageSize
		for i := start; i < len(names) && i < start+m.PageSize; i++ {
			results = append(results, map[string]any{"outlet": names[i]})
		}
	}

	if results == nil {
		results = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"results": results}})
}

func (m *MockOnePA) slotsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := q.Get("selectedFacility") + "|" + q.Get("selectedDate")

	m.mu.RLock()
	resources, ok := m.slots[key]
	m.mu.RUnlock()

	var resourceList any
	if ok && resources != nil {
		list := make([]map[string]any, 0, len(resources))
		for _, slotList := range resources {
			if slotList == nil {
				slotList = []Slot{}
			}
			list = append(list, map[string]any{"slotList": slotList})
		}
		resourceList = list
	}

	writeJSON(w, http.StatusOK, map[string]any{"response": map[string]any{"resourceList": resourceList}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(fmt.Sprintf("encode mock response: %v", err))
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewJSONResponse creates a 200 OK response with body.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}
