package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/dmitrijs2005/partsinventory/internal/server/auth"
	"github.com/dmitrijs2005/partsinventory/internal/server/services"
)

const maxBodyBytes = 1 << 20

type apiError struct {
	Status  string   `json:"status"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, map[string]any{
		"status": "success",
		"data":   data,
	})
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{
		"status":  "success",
		"message": message,
	})
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, apiError{Status: "error", Code: code, Message: message})
}

// mapError translates service errors into a status, a machine code and a
// client-safe message. Internal failures never expose their cause.
func mapError(err error) (int, string, string) {
	var failure *auth.Failure
	var verr *services.ValidationError
	switch {
	case errors.Is(err, common.ErrorInternal):
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	case errors.As(err, &verr):
		return http.StatusBadRequest, "VALIDATION_ERROR", verr.Error()
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR", "invalid input"
	case errors.As(err, &failure), errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", auth.PublicFailureMessage
	case errors.Is(err, common.ErrSessionInvalid):
		return http.StatusUnauthorized, "SESSION_INVALID", "session is invalid or expired"
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required"
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "insufficient role"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, "CONFLICT", "resource already exists"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}

func (h *Handler) writeMappedError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status, code, msg := mapError(err)
	h.logOperationError(r, operation, status, code, err)

	body := apiError{Status: "error", Code: code, Message: msg}
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		body.Errors = verr.Messages()
	}
	writeJSON(w, status, body)
}

func (h *Handler) logOperationError(r *http.Request, operation string, status int, code string, err error) {
	fields := []any{
		"operation", operation,
		"status_code", status,
		"error_code", code,
	}
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	if status >= 500 {
		h.log.Error(r.Context(), "http operation failed", fields...)
		return
	}
	h.log.Warn(r.Context(), "http operation failed", fields...)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

func (h *Handler) writeBadRequest(w http.ResponseWriter, r *http.Request, operation string, err error) {
	h.logOperationError(r, operation, http.StatusBadRequest, "BAD_REQUEST", err)
	writeError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed request body")
}
