package response

import (
	"encoding/json"
	"net/http"

	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/pkg/logger"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    interface{}         `json:"data,omitempty"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

// Write encodes env with the given status.
func Write(w http.ResponseWriter, statusCode int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func OK(w http.ResponseWriter, message string, data interface{}) {
	Write(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func Created(w http.ResponseWriter, message string, data interface{}) {
	Write(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// WriteError writes a failed envelope with no data.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	Write(w, statusCode, Envelope{Success: false, Message: message})
}

func Validation(w http.ResponseWriter, errs []domain.FieldError) {
	msg := "Invalid input"
	if len(errs) > 0 {
		msg = errs[0].Message
	}
	Write(w, http.StatusBadRequest, Envelope{Success: false, Message: msg, Errors: errs})
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message)
}

// InternalError hides the cause from the client; callers log it.
func InternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

// StatusFor maps an outcome code to its HTTP status.
func StatusFor(code domain.OutcomeCode) int {
	switch code {
	case domain.OutcomeEntry, domain.OutcomeExit:
		return http.StatusOK
	case domain.OutcomeValidationError:
		return http.StatusBadRequest
	case domain.OutcomeCustomerNotFound:
		return http.StatusNotFound
	case domain.OutcomeSubscriptionInvalid:
		return http.StatusForbidden
	case domain.OutcomeAlreadyInside, domain.OutcomeNotInside, domain.OutcomeNoActiveVisit:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Outcome writes a scan outcome. Rejections still carry the outcome as data
// so the desk can show customer and eligibility details.
func Outcome(w http.ResponseWriter, o *domain.ScanOutcome) {
	Write(w, StatusFor(o.Code), Envelope{
		Success: o.Success(),
		Message: o.Message,
		Data:    o,
		Errors:  o.Errors,
	})
}
