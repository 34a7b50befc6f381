package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"finanze/internal/core"
	applog "finanze/internal/log"
	"finanze/internal/store"
)

// transactionJSON is the wire shape of a transaction, matching the persisted
// and exported format.
type transactionJSON struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Category string    `json:"category,omitempty"`
	Amount   float64   `json:"amount"`
	Date     core.Date `json:"date"`
	Type     core.Type `json:"type"`
}

func toTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		ID:       tx.ID,
		Title:    tx.Title,
		Category: tx.Category,
		Amount:   tx.Amount.Float64(),
		Date:     tx.Date,
		Type:     tx.Type,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeStoreError maps the store error taxonomy onto HTTP statuses:
// validation failures are unprocessable, a bad import payload is a bad
// request, a missing target is not found, and persistence failures are
// internal.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *store.ValidationError
	var perr *store.PersistenceError
	switch {
	case errors.As(err, &verr):
		writeErrorMessage(w, http.StatusUnprocessableEntity, verr.Error())
	case errors.Is(err, store.ErrImportFormat):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, err.Error())
	case errors.As(err, &perr):
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Persistence failure",
			"op", perr.Op, applog.FieldError, err, applog.FieldPath, r.URL.Path)
		writeErrorMessage(w, http.StatusInternalServerError, "persistence failure")
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Unhandled store error",
			applog.FieldError, err, applog.FieldPath, r.URL.Path)
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}
