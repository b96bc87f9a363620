// Package httputil renders JSON responses and coded errors.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	dErrors "credito/pkg/domain-errors"
)

// TimestampLayout is the local date-time format used in error bodies.
const TimestampLayout = "2006-01-02T15:04:05.999999999"

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

// Now is the clock used for error timestamps.
var Now = time.Now

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode response", "error", err)
	}
}

// WriteError maps err to a status and writes the error body. Only client-facing
// codes carry their message; internal failures get a generic one.
func WriteError(w http.ResponseWriter, err error) {
	status, label := statusFor(dErrors.CodeOf(err))
	message := dErrors.MessageOf(err)
	if status == http.StatusInternalServerError {
		message = "Ocorreu um erro inesperado"
	}
	WriteJSON(w, status, ErrorResponse{
		Timestamp: Now().Format(TimestampLayout),
		Status:    status,
		Error:     label,
		Message:   message,
	})
}

func statusFor(code dErrors.Code) (int, string) {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound, "Não encontrado"
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout, "Tempo esgotado"
	default:
		return http.StatusInternalServerError, "Erro interno"
	}
}
