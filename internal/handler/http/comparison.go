package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/service"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/httputil"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/validator"
)

// ComparisonHandler serves store comparisons and alternative substitution.
type ComparisonHandler struct {
	service *service.ComparisonService
	logger  *slog.Logger
}

// NewComparisonHandler creates a new comparison HTTP handler.
func NewComparisonHandler(svc *service.ComparisonService, logger *slog.Logger) *ComparisonHandler {
	return &ComparisonHandler{service: svc, logger: logger}
}

// CompareRequest optionally names the stores to compare. Without store ids
// the session's selection is used.
type CompareRequest struct {
	StoreIDs []int64 `json:"store_ids" validate:"omitempty,max=4,unique,dive,gt=0"`
}

// Compare handles POST /api/v1/comparisons
func (h *ComparisonHandler) Compare(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req CompareRequest
	if r.ContentLength != 0 {
		if err := validator.DecodeAndValidate(r, &req); err != nil {
			writeError(w, r, err, h.logger)
			return
		}
	}

	var err error
	var data any
	if len(req.StoreIDs) > 0 {
		data, err = h.service.CompareStores(r.Context(), sessionID, userID, req.StoreIDs)
	} else {
		data, err = h.service.CompareSelection(r.Context(), sessionID, userID)
	}
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, data)
}

// Current handles GET /api/v1/comparisons/current
func (h *ComparisonHandler) Current(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	cmp, err := h.service.Current(r.Context(), sessionID, userID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, cmp)
}

// Alternatives handles GET /api/v1/comparisons/alternatives?store_id=&item_id=
func (h *ComparisonHandler) Alternatives(w http.ResponseWriter, r *http.Request) {
	storeID, ok := httputil.ParseID(w, "store id", r.URL.Query().Get("store_id"))
	if !ok {
		return
	}

	alts, err := h.service.FindAlternatives(r.Context(), storeID, r.URL.Query().Get("item_id"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, alts)
}

// Substitute handles POST /api/v1/comparisons/current/stores/{storeId}/substitutions
func (h *ComparisonHandler) Substitute(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	storeID, ok := httputil.ParseID(w, "store id", chi.URLParam(r, "storeId"))
	if !ok {
		return
	}

	var input service.SubstituteInput
	if err := validator.DecodeAndValidate(r, &input); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	result, err := h.service.Substitute(r.Context(), sessionID, userID, storeID, input)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, result)
}
