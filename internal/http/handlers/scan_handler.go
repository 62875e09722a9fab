package handlers

import (
	"net/http"

	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/http/middleware"
	"github.com/diagnosis/frontdesk/internal/service"
	pkgmw "github.com/diagnosis/frontdesk/pkg/middleware"
)

type ScanHandler struct {
	Scans service.ScanService
}

func NewScanHandler(scans service.ScanService) *ScanHandler {
	return &ScanHandler{Scans: scans}
}

func (h *ScanHandler) scan(w http.ResponseWriter, r *http.Request) {
	var in domain.ScanRequest
	if !decode(w, r, &in) {
		return
	}
	if in.TerminalID == "" {
		in.TerminalID = pkgmw.TerminalFromContext(r.Context())
	}
	out, err := h.Scans.ProcessScan(r.Context(), &in)
	writeOutcome(w, r, out, err)
}

func (h *ScanHandler) manual(w http.ResponseWriter, r *http.Request) {
	var in domain.ManualRequest
	if !decode(w, r, &in) {
		return
	}
	in.EmployeeID = middleware.EmployeeID(r)
	if in.TerminalID == "" {
		in.TerminalID = pkgmw.TerminalFromContext(r.Context())
	}
	out, err := h.Scans.ManualEntryExit(r.Context(), &in)
	writeOutcome(w, r, out, err)
}

func (h *ScanHandler) override(w http.ResponseWriter, r *http.Request) {
	var in domain.OverrideRequest
	if !decode(w, r, &in) {
		return
	}
	in.EmployeeID = middleware.EmployeeID(r)
	if in.TerminalID == "" {
		in.TerminalID = pkgmw.TerminalFromContext(r.Context())
	}
	out, err := h.Scans.EmergencyOverride(r.Context(), &in)
	writeOutcome(w, r, out, err)
}
