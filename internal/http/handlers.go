package http

import (
	"io"
	"net/http"
	"strconv"

	"finanze/internal/query"
)

// listResponse is one derived page of the transaction table plus its
// metadata.
type listResponse struct {
	Items      []transactionJSON `json:"items"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalItems int               `json:"totalItems"`
	TotalPages int               `json:"totalPages"`
	StartIndex int               `json:"startIndex"`
	EndIndex   int               `json:"endIndex"`
}

// handleListTransactions computes a filtered, sorted page of the canonical
// list. The view is rebuilt per request from a fresh snapshot, so a page can
// never show state older than the last committed mutation.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r.URL.Query())
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	view := query.NewView(s.pageSize, s.searchMinChars)
	view.SetFilter(params.Filter)
	view.SetSort(params.Sort)
	view.Search(params.Search)
	view.SetPage(params.Page)

	page := view.Compute(s.store.List(r.Context()))

	resp := listResponse{
		Items:      make([]transactionJSON, len(page.Items)),
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
		StartIndex: page.StartIndex,
		EndIndex:   page.EndIndex,
	}
	for i, tx := range page.Items {
		resp.Items[i] = toTransactionJSON(tx)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	draft, err := payload.toDraft()
	if err != nil {
		writeErrorMessage(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	tx, err := s.store.Add(r.Context(), draft)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionJSON(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	payload, err := decodePayload(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, err := payload.toPatch()
	if err != nil {
		writeErrorMessage(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	tx, err := s.store.Update(r.Context(), id, patch)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(tx))
}

func (s *Server) handleRemoveTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	removed, err := s.store.Remove(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if !removed {
		writeErrorMessage(w, http.StatusNotFound, "transaction not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(r.Context()); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type summaryResponse struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Balance  float64 `json:"balance"`
	Count    int     `json:"count"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary := s.store.Summary(r.Context())
	writeJSON(w, http.StatusOK, summaryResponse{
		Income:   summary.Income.Float64(),
		Expenses: summary.Expenses.Float64(),
		Balance:  summary.Balance.Float64(),
		Count:    summary.Count,
	})
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
	Open       bool     `json:"open"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	set := s.store.Categories()
	writeJSON(w, http.StatusOK, categoriesResponse{
		Categories: set.Names(),
		Open:       set.Open(),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	payload, err := s.store.ExportAll(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(payload))
}

type importResponse struct {
	Merged int `json:"merged"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "read body failed")
		return
	}

	merged, err := s.store.ImportAll(r.Context(), string(body))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Merged: merged})
}
