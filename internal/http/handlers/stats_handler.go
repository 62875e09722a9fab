package handlers

import (
	"net/http"
	"time"

	"github.com/diagnosis/frontdesk/internal/clock"
	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/http/response"
	"github.com/diagnosis/frontdesk/internal/service"
)

type StatsHandler struct {
	Stats service.StatisticsService
	Clock clock.Clock
	Loc   *time.Location
}

func NewStatsHandler(stats service.StatisticsService, clk clock.Clock, loc *time.Location) *StatsHandler {
	return &StatsHandler{Stats: stats, Clock: clk, Loc: loc}
}

// dateParam parses a query parameter with parse, defaulting to today. The
// services snap dates to the start of their period.
func (h *StatsHandler) dateParam(w http.ResponseWriter, r *http.Request, name string, parse func(string, *time.Location) (time.Time, error)) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return h.Clock.Now().In(h.Loc), true
	}
	t, err := parse(raw, h.Loc)
	if err != nil {
		response.Validation(w, []domain.FieldError{{Field: name, Message: err.Error()}})
		return time.Time{}, false
	}
	return t, true
}

func (h *StatsHandler) daily(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r, "date", clock.ParseDateKey)
	if !ok {
		return
	}
	stats, err := h.Stats.DailyStatistics(r.Context(), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, "", stats)
}

func (h *StatsHandler) weekly(w http.ResponseWriter, r *http.Request) {
	start, ok := h.dateParam(w, r, "week_start", clock.ParseDateKey)
	if !ok {
		return
	}
	stats, err := h.Stats.WeeklyStatistics(r.Context(), start)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, "", stats)
}

func (h *StatsHandler) monthly(w http.ResponseWriter, r *http.Request) {
	month, ok := h.dateParam(w, r, "month", clock.ParseMonth)
	if !ok {
		return
	}
	stats, err := h.Stats.MonthlyStatistics(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, "", stats)
}
