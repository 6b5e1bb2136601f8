package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"contas/internal/core"
	"contas/internal/ledger"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Kind    string   `json:"kind"`
	Failed  []string `json:"failed_ids,omitempty"`
	Applied []string `json:"applied_ids,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	}
}

// writeError maps error kinds to status codes: validation problems are the
// client's fault, backend failures are ours, and partial batches report both
// sides so the client can retry just the failed records.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Error: err.Error()}

	var batch *ledger.BatchError
	if errors.As(err, &batch) {
		resp.Kind = "partial failure"
		resp.Failed = batch.FailedIDs()
		resp.Applied = batch.SucceededIDs()
		slog.ErrorContext(r.Context(), "Batch partially failed",
			"op", batch.Op, "failed", len(resp.Failed), "applied", len(resp.Applied))
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	switch {
	case errors.Is(err, core.ErrNotFound):
		resp.Kind = "not found"
		writeJSON(w, http.StatusNotFound, resp)
	case errors.Is(err, core.ErrInvalidInput):
		resp.Kind = "invalid input"
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.Is(err, core.ErrStoreUnavailable):
		resp.Kind = "store unavailable"
		slog.ErrorContext(r.Context(), "Backend unavailable", "error", err, "url", r.URL.Path)
		writeJSON(w, http.StatusServiceUnavailable, resp)
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}
