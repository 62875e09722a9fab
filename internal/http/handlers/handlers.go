package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/http/response"
	"github.com/diagnosis/frontdesk/internal/service"
	"github.com/diagnosis/frontdesk/pkg/logger"
)

const maxBodyBytes = 1 << 20

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.BadRequest(w, "invalid json")
		return false
	}
	return true
}

// writeError converts a service error into an envelope. Unknown errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Validation(w, verr.Errors)
	case errors.Is(err, service.ErrCustomerNotFound):
		response.NotFound(w, "Customer not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(w, "invalid credentials")
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		response.InternalError(w)
	}
}

// writeOutcome writes a visit outcome; an engine error becomes system_error.
func writeOutcome(w http.ResponseWriter, r *http.Request, out *domain.ScanOutcome, err error) {
	if err != nil {
		logger.ErrorContext(r.Context(), "Visit operation failed", "error", err, "path", r.URL.Path)
		out = domain.Rejected(domain.OutcomeSystemError, "Something went wrong. Please try again.")
	}
	response.Outcome(w, out)
}
