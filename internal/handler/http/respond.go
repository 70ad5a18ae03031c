package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/httputil"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/middleware"
)

// cartView is the JSON shape of the active cart.
type cartView struct {
	CartID      int64             `json:"cart_id,omitempty"`
	State       domain.CartState  `json:"state"`
	Lines       []domain.CartLine `json:"lines"`
	ItemCount   int               `json:"item_count"`
	Total       domain.PriceRange `json:"total"`
	Error       string            `json:"error,omitempty"`
	RefreshedAt string            `json:"refreshed_at,omitempty"`
}

func newCartView(snap *domain.CartSnapshot) cartView {
	v := cartView{
		State:     snap.State(),
		Lines:     []domain.CartLine{},
		ItemCount: snap.ItemCount(),
		Total:     snap.Total(),
	}
	if snap == nil {
		return v
	}
	v.CartID = snap.CartID
	v.Error = snap.Error
	if snap.Lines != nil {
		v.Lines = snap.Lines
	}
	if !snap.RefreshedAt.IsZero() {
		v.RefreshedAt = snap.RefreshedAt.Format(time.RFC3339Nano)
	}
	return v
}

// requireUser returns the authenticated user id, writing 401 when Auth did
// not run.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
		})
		return 0, false
	}
	return id, true
}

// requireSession returns the browsing session id, writing 400 when Session
// did not run.
func requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := middleware.SessionIDFromContext(r.Context())
	if id == "" {
		httputil.WriteBadRequest(w, middleware.SessionHeader+" header is required")
		return "", false
	}
	return id, true
}

func writeData(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, httputil.Response{Data: data})
}

func writeError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	httputil.WriteError(w, r, err, logger)
}
