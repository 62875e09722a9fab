package handlers

import (
	"net/http"

	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/http/response"
	"github.com/diagnosis/frontdesk/internal/service"
	"github.com/go-chi/chi/v5"
)

type CustomerHandler struct {
	Customers service.CustomerService
}

func NewCustomerHandler(customers service.CustomerService) *CustomerHandler {
	return &CustomerHandler{Customers: customers}
}

func (h *CustomerHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.register)
	r.Get("/{id}", h.get)
	r.Get("/{id}/eligibility", h.eligibility)
	r.Get("/{id}/visits", h.visits)
	return r
}

func (h *CustomerHandler) register(w http.ResponseWriter, r *http.Request) {
	var in domain.RegisterCustomerRequest
	if !decode(w, r, &in) {
		return
	}
	c, err := h.Customers.Register(r.Context(), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, "Customer registered", c)
}

func (h *CustomerHandler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Customers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, "", c)
}

func (h *CustomerHandler) eligibility(w http.ResponseWriter, r *http.Request) {
	res, err := h.Customers.Eligibility(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, res.Reason, res)
}

func (h *CustomerHandler) visits(w http.ResponseWriter, r *http.Request) {
	visits, err := h.Customers.Visits(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if visits == nil {
		visits = []domain.Visit{}
	}
	response.OK(w, "", visits)
}
