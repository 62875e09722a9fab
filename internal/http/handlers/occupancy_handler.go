package handlers

import (
	"net/http"

	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/http/middleware"
	"github.com/diagnosis/frontdesk/internal/http/response"
	"github.com/diagnosis/frontdesk/internal/service"
	"github.com/go-chi/chi/v5"
)

type OccupancyHandler struct {
	Occupancy service.OccupancyService
}

func NewOccupancyHandler(occupancy service.OccupancyService) *OccupancyHandler {
	return &OccupancyHandler{Occupancy: occupancy}
}

func (h *OccupancyHandler) list(w http.ResponseWriter, r *http.Request) {
	filter := domain.OccupantFilter{
		Query:   r.URL.Query().Get("q"),
		Service: r.URL.Query().Get("service"),
	}
	occupants, err := h.Occupancy.CurrentOccupants(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if occupants == nil {
		occupants = []domain.OccupantView{}
	}
	response.OK(w, "", occupants)
}

func (h *OccupancyHandler) capacity(w http.ResponseWriter, r *http.Request) {
	status, err := h.Occupancy.Capacity(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, "", status)
}

func (h *OccupancyHandler) evacuation(w http.ResponseWriter, r *http.Request) {
	list, err := h.Occupancy.EmergencyEvacuationList(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, "", list)
}

func (h *OccupancyHandler) forceExit(w http.ResponseWriter, r *http.Request) {
	var in domain.ForceExitRequest
	if !decode(w, r, &in) {
		return
	}
	out, err := h.Occupancy.ForceExit(r.Context(), chi.URLParam(r, "customerID"), in.Reason, middleware.EmployeeID(r))
	writeOutcome(w, r, out, err)
}
