package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/molforge/pkg/errors"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidAssignment,
		errors.ErrCodeInvalidRecipe, errors.ErrCodeInvalidPath, errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeUnknownTopology, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeTopology, errors.ErrCodeEmbedding:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCodeOr(err, errors.ErrCodeInternal)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "error", err)
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = errors.UserMessage(err)
	if status == http.StatusInternalServerError && errors.GetCode(err) == "" {
		body.Error.Message = "internal error"
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBytes(w http.ResponseWriter, format string, data []byte) {
	ct, ok := contentTypes[format]
	if !ok {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
