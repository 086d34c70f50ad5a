package server

import (
	"encoding/json"
	"net/http"

	"loan-dashboard/internal/common/errors"
)

type errorResponse struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
	Details string           `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) error {
	out, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(out)
	return err
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Code: errors.CodeOf(err), Message: "Internal server error"}
	if stdErr, ok := errors.AsStandard(err); ok {
		resp.Message = stdErr.Message
		resp.Details = stdErr.Details
	}
	_ = writeJSON(w, status, resp)
}

// statusFor maps an operation error to the HTTP status of the response.
// Gateway failures are not listed: they are reported inside the snapshot.
func statusFor(err error) (int, bool) {
	switch errors.CodeOf(err) {
	case errors.ErrCodeInvalidFilter, errors.ErrCodeInvalidCommand:
		return http.StatusBadRequest, true
	case errors.ErrCodeNotAuthenticated:
		return http.StatusUnauthorized, true
	}
	return 0, false
}
