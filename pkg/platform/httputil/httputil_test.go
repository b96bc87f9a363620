package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dErrors "credito/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	fixed := time.Date(2024, 2, 25, 10, 30, 0, 123000000, time.Local)
	Now = func() time.Time { return fixed }
	t.Cleanup(func() { Now = time.Now })

	t.Run("not found carries the message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeNotFound, "Crédito não encontrado: 000000"))

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}

		var body map[string]any
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(body) != 4 {
			t.Fatalf("expected 4 fields, got %v", body)
		}
		if body["error"] != "Não encontrado" {
			t.Fatalf("expected error label, got %q", body["error"])
		}
		if body["message"] != "Crédito não encontrado: 000000" {
			t.Fatalf("unexpected message %q", body["message"])
		}
		if body["status"] != float64(404) {
			t.Fatalf("expected status field 404, got %v", body["status"])
		}
		if body["timestamp"] != "2024-02-25T10:30:00.123" {
			t.Fatalf("unexpected timestamp %q", body["timestamp"])
		}
	})

	t.Run("internal error hides the cause", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Wrap(errors.New("dial tcp: refused"), dErrors.CodeInternal, "failed to load credit"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body.Error != "Erro interno" {
			t.Fatalf("expected Erro interno, got %q", body.Error)
		}
		if body.Message != "Ocorreu um erro inesperado" {
			t.Fatalf("expected generic message, got %q", body.Message)
		}
	})

	t.Run("uncoded error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("boom"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})

	t.Run("timeout maps to gateway timeout", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeTimeout, "deadline exceeded"))

		if w.Code != http.StatusGatewayTimeout {
			t.Fatalf("expected status %d, got %d", http.StatusGatewayTimeout, w.Code)
		}
	})
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusOK, []string{"a"})

	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected application/json, got %q", got)
	}
	if w.Body.String() != "[\"a\"]\n" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}
