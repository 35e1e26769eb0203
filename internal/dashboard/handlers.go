package dashboard

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/Sternrassler/onepa-availability/pkg/chart"
	"github.com/Sternrassler/onepa-availability/pkg/facility"
	"github.com/Sternrassler/onepa-availability/pkg/logging"
	"github.com/Sternrassler/onepa-availability/pkg/onepa"
	"github.com/Sternrassler/onepa-availability/pkg/table"
)

// User-facing notes attached to results.
const (
	NoteOmitted   = "Outlets/timings are omitted if none available"
	WarnNoOutlets = "No outlets available"
	WarnNoResults = "No outlets/timings available"
)

type windowResponse struct {
	Today onepa.Date `json:"today"`
	First onepa.Date `json:"first"`
	Last  onepa.Date `json:"last"`
	From  onepa.Date `json:"defaultFrom"`
	To    onepa.Date `json:"defaultTo"`
}

type facilitiesResponse struct {
	Facilities []facility.Facility `json:"facilities"`
	Window     windowResponse      `json:"window"`
}

type outletsResponse struct {
	Facility facility.Facility `json:"facility"`
	Outlets  []string          `json:"outlets"`
	Warning  string            `json:"warning,omitempty"`
}

type availabilityResponse struct {
	Facility facility.Facility                   `json:"facility"`
	From     onepa.Date                          `json:"from"`
	To       onepa.Date                          `json:"to"`
	Table    *table.Table[onepa.AvailabilityRow] `json:"table"`
	Chart    *chart.Spec                         `json:"chart"`
	Note     string                              `json:"note"`
	Warning  string                              `json:"warning,omitempty"`
}

type slotsResponse struct {
	Facility facility.Facility              `json:"facility"`
	Outlet   string                         `json:"outlet"`
	From     onepa.Date                     `json:"from"`
	To       onepa.Date                     `json:"to"`
	Table    *table.Table[onepa.SlotRecord] `json:"table"`
	Chart    *chart.Spec                    `json:"chart"`
	Note     string                         `json:"note"`
	Warning  string                         `json:"warning,omitempty"`
}

type resetResponse struct {
	Cleared int `json:"cleared"`
}

func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}
}

func (s *Server) facilitiesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		first, last := s.window.Bounds()
		writeJSON(w, r, http.StatusOK, facilitiesResponse{
			Facilities: facility.All(),
			Window: windowResponse{
				Today: first,
				First: first,
				Last:  last,
				From:  first,
				To:    first.AddDays(DefaultSpanDays),
			},
		})
	}
}

func (s *Server) outletsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checker, err := s.checker(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		outlets, err := checker.ListOutlets(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}

		resp := outletsResponse{Facility: checker.Facility(), Outlets: outlets}
		if len(outlets) == 0 {
			resp.Warning = WarnNoOutlets
		}
		writeJSON(w, r, http.StatusOK, resp)
	}
}

func (s *Server) availabilityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checker, err := s.checker(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		sel, err := s.window.Select(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
		if err != nil {
			writeError(w, r, err)
			return
		}

		tbl, err := checker.AvailabilityTable(r.Context(), sel.Dates)
		if err != nil {
			writeError(w, r, err)
			return
		}

		resp := availabilityResponse{
			Facility: checker.Facility(),
			From:     sel.From,
			To:       sel.To,
			Table:    tbl,
			Chart:    chart.AvailabilityByDate(tbl),
			Note:     NoteOmitted,
		}
		if tbl.Empty() {
			resp.Warning = WarnNoResults
		}
		writeJSON(w, r, http.StatusOK, resp)
	}
}

func (s *Server) slotsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checker, err := s.checker(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		outlet, err := pathParam(r, "outlet")
		if err != nil {
			writeError(w, r, err)
			return
		}
		sel, err := s.window.Select(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
		if err != nil {
			writeError(w, r, err)
			return
		}

		outlets, err := checker.ListOutlets(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if _, found := slices.BinarySearch(outlets, outlet); !found {
			writeError(w, r, fmt.Errorf("%w: %q", errUnknownOutlet, outlet))
			return
		}

		tbl, err := checker.OutletTimeSlotsTable(r.Context(), outlet, sel.Dates)
		if err != nil {
			writeError(w, r, err)
			return
		}

		resp := slotsResponse{
			Facility: checker.Facility(),
			Outlet:   outlet,
			From:     sel.From,
			To:       sel.To,
			Table:    tbl,
			Chart:    chart.AvailabilityByTime(tbl),
			Note:     NoteOmitted,
		}
		if tbl.Empty() {
			resp.Warning = WarnNoResults
		}
		writeJSON(w, r, http.StatusOK, resp)
	}
}

func (s *Server) resetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := s.registry.Reset()
		registryResetsTotal.Inc()
		logging.FromContext(r.Context()).Warn().Int("cleared", n).Msg("Facility registry reset")
		writeJSON(w, r, http.StatusOK, resetResponse{Cleared: n})
	}
}

// checker resolves the {facility} path parameter to its registry Checker.
func (s *Server) checker(r *http.Request) (*onepa.Checker, error) {
	name, err := pathParam(r, "facility")
	if err != nil {
		return nil, err
	}
	f, err := facility.Parse(name)
	if err != nil {
		return nil, err
	}
	return s.registry.Checker(f)
}

// pathParam returns the decoded value of a path parameter. chi matches on
// RawPath when the request has one, leaving its parameters escaped.
func pathParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, nil
	}
	v, err := url.PathUnescape(v)
	if err != nil {
		return "", &onepa.InputError{Field: key, Reason: "malformed path segment"}
	}
	return v, nil
}
