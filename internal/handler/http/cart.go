package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/service"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/httputil"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/validator"
)

// CartHandler serves the active cart and the archive of saved carts.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{service: svc, logger: logger}
}

// ArchiveRequest names the cart being archived. A blank name is replaced by a
// generated one.
type ArchiveRequest struct {
	Name string `json:"name" validate:"max=120"`
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	snap, err := h.service.ActiveCart(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, newCartView(snap))
}

// GetCartID handles GET /api/v1/cart/id
func (h *CartHandler) GetCartID(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	cartID, err := h.service.ResolveActiveCartID(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, map[string]int64{"cart_id": cartID})
}

// Refresh handles POST /api/v1/cart/refresh
func (h *CartHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	snap, err := h.service.Refresh(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, newCartView(snap))
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input service.AddItemInput
	if err := validator.DecodeAndValidate(r, &input); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	snap, err := h.service.AddItem(r.Context(), userID, input)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, newCartView(snap))
}

// RemoveItem handles DELETE /api/v1/cart/items/{itemId}?quantity=
// The quantity defaults to one unit.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	quantity := httputil.QueryInt(r, "quantity", 1)
	snap, err := h.service.RemoveItem(r.Context(), userID, chi.URLParam(r, "itemId"), quantity)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, newCartView(snap))
}

// Clear handles DELETE /api/v1/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	snap, err := h.service.Clear(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, newCartView(snap))
}

// Archive handles POST /api/v1/cart/archive. The body is optional.
func (h *CartHandler) Archive(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ArchiveRequest
	if r.ContentLength != 0 {
		if err := validator.DecodeAndValidate(r, &req); err != nil {
			writeError(w, r, err, h.logger)
			return
		}
	}

	res, err := h.service.Archive(r.Context(), userID, req.Name)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{
		"archived": res.Archived,
		"active":   newCartView(res.Active),
	})
}

// DismissError handles DELETE /api/v1/cart/error
func (h *CartHandler) DismissError(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	snap, err := h.service.DismissError(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, newCartView(snap))
}

// History handles GET /api/v1/carts/history
func (h *CartHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	carts, err := h.service.History(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, carts)
}

// ArchivedItems handles GET /api/v1/carts/{cartId}/items
func (h *CartHandler) ArchivedItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	cartID, ok := httputil.ParseID(w, "cart id", chi.URLParam(r, "cartId"))
	if !ok {
		return
	}

	lines, err := h.service.ArchivedItems(r.Context(), userID, cartID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, lines)
}

// Restore handles PUT /api/v1/carts/{cartId}/restore
func (h *CartHandler) Restore(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	cartID, ok := httputil.ParseID(w, "cart id", chi.URLParam(r, "cartId"))
	if !ok {
		return
	}

	snap, err := h.service.Restore(r.Context(), userID, cartID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, newCartView(snap))
}

// DeleteArchived handles DELETE /api/v1/carts/{cartId}
func (h *CartHandler) DeleteArchived(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	cartID, ok := httputil.ParseID(w, "cart id", chi.URLParam(r, "cartId"))
	if !ok {
		return
	}

	if err := h.service.DeleteArchived(r.Context(), userID, cartID); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
