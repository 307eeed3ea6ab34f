package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Pinkesh2905/FaceTrace/internal/attendance"
	"github.com/Pinkesh2905/FaceTrace/internal/constants"
	"github.com/Pinkesh2905/FaceTrace/internal/database"
)

// AttendanceHandler handles punches, summaries and statistics
type AttendanceHandler struct {
	service   *attendance.Service
	employees database.EmployeeReader
	logger    *slog.Logger
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(service *attendance.Service, employees database.EmployeeReader, logger *slog.Logger) *AttendanceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceHandler{service: service, employees: employees, logger: logger}
}

type manualPunchRequest struct {
	EmployeeID string     `json:"employee_id"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	Notes      string     `json:"notes"`
}

// Manual handles POST /api/v1/attendance/manual. Manual punches skip the
// confidence check; the cooldown applies unless the policy bypasses it.
func (h *AttendanceHandler) Manual(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req manualPunchRequest
	if err := decodeJSON(w, r, &req); err != nil || req.EmployeeID == "" {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	emp, err := h.employees.GetEmployee(r.Context(), tenant, req.EmployeeID)
	if err != nil {
		h.internalError(w, "get employee", err)
		return
	}
	if emp == nil {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}

	obs := attendance.Observation{
		Employee:   *emp,
		Confidence: 100,
		Manual:     true,
		Notes:      req.Notes,
	}
	if req.Timestamp != nil {
		obs.Timestamp = *req.Timestamp
	}

	decision, err := markAttendance(r.Context(), h.service, obs)
	if err != nil {
		h.internalError(w, "manual punch", err)
		return
	}
	respondJSON(w, http.StatusOK, decision)
}

// Punches handles GET /api/v1/employees/{id}/punches?from=&to=
// The range defaults to the last DefaultHistoryDays days.
func (h *AttendanceHandler) Punches(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	employeeID := chi.URLParam(r, "id")

	to := r.URL.Query().Get("to")
	if to == "" {
		to = h.service.Today()
	}
	from := r.URL.Query().Get("from")
	if from == "" {
		end, err := time.Parse(database.DateLayout, to)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid to date")
			return
		}
		from = end.AddDate(0, 0, -(constants.DefaultHistoryDays - 1)).Format(database.DateLayout)
	}

	punches, err := h.service.History(r.Context(), tenant, employeeID, from, to)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if punches == nil {
		punches = []database.Punch{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"employee_id": employeeID,
		"from":        from,
		"to":          to,
		"punches":     punches,
	})
}

// Summary handles GET /api/v1/employees/{id}/summary/{date}
func (h *AttendanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	date, err := parseDate(chi.URLParam(r, "date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.service.Summary(r.Context(), tenant, chi.URLParam(r, "id"), date)
	if err != nil {
		h.internalError(w, "get summary", err)
		return
	}
	if summary == nil {
		respondError(w, http.StatusNotFound, "no summary for this date")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Recompute handles POST /api/v1/employees/{id}/summary/{date}/recompute
func (h *AttendanceHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	date, err := parseDate(chi.URLParam(r, "date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.service.Recompute(r.Context(), tenant, chi.URLParam(r, "id"), date)
	if err != nil {
		h.internalError(w, "recompute summary", err)
		return
	}
	if summary == nil {
		respondError(w, http.StatusNotFound, "no punches on this date")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Stats handles GET /api/v1/employees/{id}/stats?year=&month=
// Defaults to the current month.
func (h *AttendanceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	today, _ := time.Parse(database.DateLayout, h.service.Today())
	year, month := today.Year(), int(today.Month())
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1970 || y > 9999 {
			respondError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = y
	}
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			respondError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = m
	}

	stats, err := h.service.MonthlyStats(r.Context(), tenant, chi.URLParam(r, "id"), year, time.Month(month))
	if err != nil {
		h.internalError(w, "monthly stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Daily handles GET /api/v1/attendance/daily/{date}
func (h *AttendanceHandler) Daily(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	date, err := parseDate(chi.URLParam(r, "date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	overview, err := h.service.DailyOverview(r.Context(), tenant, date)
	if err != nil {
		h.internalError(w, "daily overview", err)
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

func (h *AttendanceHandler) internalError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op+" failed", "error", err)
	respondError(w, http.StatusInternalServerError, op+" failed")
}
