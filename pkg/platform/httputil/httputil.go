package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "arida/pkg/domain-errors"
	"arida/pkg/validation"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// errorResponse is the JSON error envelope returned by every endpoint.
type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteError translates a domain error into the HTTP error envelope.
// Unknown errors collapse to internal_error without leaking detail.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	msg := "internal error"

	var de *dErrors.Error
	if errors.As(err, &de) {
		code = de.Code
		msg = de.Error()
	}

	// Forbidden responses deliberately carry no internal detail, and
	// internal failures leak nothing at all.
	switch code {
	case dErrors.CodeForbidden:
		msg = "access denied"
	case dErrors.CodeInternal:
		msg = ""
	}

	WriteJSON(w, toHTTPStatus(code), errorResponse{
		Error:       string(code),
		Description: msg,
	})
}

func toHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeInvariantViolation:
		return http.StatusConflict
	case dErrors.CodeLimitExceeded:
		return http.StatusTooManyRequests
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes a JSON request body into the target type.
// On failure it writes the error envelope and returns nil, false.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, requestID string) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(r.Context(), "failed to decode request body",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	return &req, true
}

// DecodeValidJSON decodes the body and then applies struct tag
// validation. Use for request shapes whose field requirements are
// purely structural.
func DecodeValidJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, requestID string) (*T, bool) {
	req, ok := DecodeJSON[T](w, r, logger, requestID)
	if !ok {
		return nil, false
	}
	if err := validation.Validate(req); err != nil {
		WriteError(w, err)
		return nil, false
	}
	return req, true
}
