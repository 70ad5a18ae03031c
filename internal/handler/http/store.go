package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/service"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/httputil"
)

// StoreHandler serves store discovery and the session's store selection.
type StoreHandler struct {
	service *service.SelectionService
	logger  *slog.Logger
}

// NewStoreHandler creates a new store HTTP handler.
func NewStoreHandler(svc *service.SelectionService, logger *slog.Logger) *StoreHandler {
	return &StoreHandler{service: svc, logger: logger}
}

type selectionView struct {
	StoreIDs []int64                `json:"store_ids"`
	Change   domain.SelectionChange `json:"change,omitempty"`
	Full     bool                   `json:"full"`
}

func newSelectionView(sel *domain.Selection, change domain.SelectionChange) selectionView {
	return selectionView{StoreIDs: sel.IDs(), Change: change, Full: sel.Full()}
}

// Browse handles GET /api/v1/stores
func (h *StoreHandler) Browse(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}

	b, err := h.service.Browse(r.Context(), sessionID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, b)
}

// NextPage handles POST /api/v1/stores/next
func (h *StoreHandler) NextPage(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}

	b, err := h.service.NextPage(r.Context(), sessionID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, b)
}

// ResetBrowse handles DELETE /api/v1/stores
func (h *StoreHandler) ResetBrowse(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}

	if err := h.service.ResetBrowse(r.Context(), sessionID); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/v1/stores/search?city=&chain=&page=
func (h *StoreHandler) Search(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}

	q := domain.StoreQuery{
		City:  r.URL.Query().Get("city"),
		Chain: r.URL.Query().Get("chain"),
	}
	res, err := h.service.Search(r.Context(), sessionID, q, httputil.QueryInt(r, "page", 0))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, res)
}

// LastSearch handles GET /api/v1/stores/search/last
func (h *StoreHandler) LastSearch(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}

	res, err := h.service.LastSearch(r.Context(), sessionID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, res)
}

// Selected handles GET /api/v1/stores/selection
func (h *StoreHandler) Selected(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}

	sel, err := h.service.Selected(r.Context(), sessionID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, newSelectionView(sel, ""))
}

// Toggle handles PUT /api/v1/stores/selection/{storeId}. A fifth store is
// answered with 200 and change "rejected"; the selection is unchanged.
func (h *StoreHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}
	storeID, ok := httputil.ParseID(w, "store id", chi.URLParam(r, "storeId"))
	if !ok {
		return
	}

	sel, change, err := h.service.Toggle(r.Context(), sessionID, storeID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, newSelectionView(sel, change))
}

// ClearSelection handles DELETE /api/v1/stores/selection
func (h *StoreHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}

	if err := h.service.ClearSelection(r.Context(), sessionID); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
