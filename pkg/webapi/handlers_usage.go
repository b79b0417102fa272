package webapi

import (
	"fmt"
	"net/http"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/report"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/usage"
)

func (s *Server) usageStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.usage.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatsResponse(stats))
}

func (s *Server) usageHourly(w http.ResponseWriter, r *http.Request) {
	day, hours, err := s.usage.Hourly(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Usage-Date", day.Format(types.DateLayout))
	writeJSON(w, http.StatusOK, newHourPoints(hours))
}

func (s *Server) usageDaily(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	points, err := s.usage.Daily(r.Context(), q.Get("month"), q.Get("year"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDatePoints(points))
}

func (s *Server) usageDevices(w http.ResponseWriter, r *http.Request) {
	days, err := s.usage.Devices(r.Context(), currentSession(r).UserID, r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDeviceDays(days))
}

func (s *Server) usageRollup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	points, err := s.usage.Rollup(r.Context(), q.Get("resolution"), q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newKeyPoints(points))
}

func (s *Server) analyticsDaily(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	points, err := s.usage.DailyRange(r.Context(), q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: newDatePoints(points)})
}

func (s *Server) analyticsDevices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	totals, err := s.usage.DeviceRange(r.Context(), currentSession(r).UserID, q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: newDeviceUsage(totals)})
}

func (s *Server) analyticsExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := q.Get("startDate"), q.Get("endDate")
	daily, err := s.usage.DailyRange(r.Context(), start, end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	devices, err := s.usage.DeviceRange(r.Context(), currentSession(r).UserID, start, end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := report.UsageWorkbook(daily, devices)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="energy-usage_%s_%s.xlsx"`, start, end))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) recommendations(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.usage.Recommendations(r.Context(), currentSession(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendationsResponse{Recommendations: msgs})
}

func (s *Server) energyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.usage.EnergyStats(r.Context(), currentSession(r).UserID, r.URL.Query().Get("period"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newEnergyStatsResponse(stats))
}

func (s *Server) recordUsage(w http.ResponseWriter, r *http.Request) {
	var in usage.RecordInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	reading, err := s.usage.RecordUsage(r.Context(), currentSession(r).UserID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newReadingResponse(reading))
}
