package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CartStatus is the lifecycle status of a cart on the backend.
type CartStatus string

const (
	CartStatusActive   CartStatus = "ACTIVE"
	CartStatusArchived CartStatus = "ARCHIVED"
)

// CartState describes what is known locally about a user's active cart.
type CartState string

const (
	StateNoActiveCart     CartState = "NO_ACTIVE_CART"
	StateActiveCartLoaded CartState = "ACTIVE_CART_LOADED"
)

// archiveNamePrefix precedes the epoch-millisecond suffix of generated names.
const archiveNamePrefix = "Cart "

// Cart is a cart header as returned by the backend history endpoint.
type Cart struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id,omitempty"`
	Name      string     `json:"name"`
	Status    CartStatus `json:"status,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartLine is one item of a cart. Price bounds come from the backend and are
// never approximated locally; MaxPrice is null when a single price is known.
type CartLine struct {
	ItemID        string              `json:"item_id"`
	ItemName      string              `json:"item_name"`
	ImageURL      string              `json:"image_url,omitempty"`
	Quantity      int                 `json:"quantity"`
	MinPrice      decimal.NullDecimal `json:"min_price"`
	MaxPrice      decimal.NullDecimal `json:"max_price"`
	TotalMinPrice decimal.NullDecimal `json:"total_min_price"`
	TotalMaxPrice decimal.NullDecimal `json:"total_max_price"`
}

// TotalBounds returns the line's total price range. Server-provided totals are
// preferred; when absent they are derived as quantity times the unit bound.
// A line without a max bound has a single price, so max equals min.
func (l CartLine) TotalBounds() (lo, hi decimal.NullDecimal) {
	qty := decimal.NewFromInt(int64(l.Quantity))

	lo = l.TotalMinPrice
	if !lo.Valid && l.MinPrice.Valid {
		lo = decimal.NewNullDecimal(l.MinPrice.Decimal.Mul(qty))
	}

	hi = l.TotalMaxPrice
	if !hi.Valid && l.MaxPrice.Valid {
		hi = decimal.NewNullDecimal(l.MaxPrice.Decimal.Mul(qty))
	}
	if !hi.Valid {
		hi = lo
	}
	return lo, hi
}

// PriceRange is the summed price range of a cart.
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
	// Unpriced counts lines for which the backend knows no price at all.
	Unpriced int `json:"unpriced"`
}

// CartSnapshot is the last full view of a user's active cart fetched from the
// backend. Error holds a dismissable message from the last failed mutation;
// a failure never clears Lines.
type CartSnapshot struct {
	CartID      int64      `json:"cart_id,omitempty"`
	Lines       []CartLine `json:"lines"`
	Error       string     `json:"error,omitempty"`
	RefreshedAt time.Time  `json:"refreshed_at"`
}

// State reports whether an active cart identity is known.
func (s *CartSnapshot) State() CartState {
	if s == nil || s.CartID == 0 {
		return StateNoActiveCart
	}
	return StateActiveCartLoaded
}

// ItemCount is the sum of line quantities.
func (s *CartSnapshot) ItemCount() int {
	if s == nil {
		return 0
	}
	var n int
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has nothing to compare. A cart is empty
// exactly when the sum of its line quantities is zero.
func (s *CartSnapshot) IsEmpty() bool {
	return s.ItemCount() == 0
}

// Line returns the line for itemID.
func (s *CartSnapshot) Line(itemID string) (CartLine, bool) {
	if s == nil {
		return CartLine{}, false
	}
	for _, l := range s.Lines {
		if l.ItemID == itemID {
			return l, true
		}
	}
	return CartLine{}, false
}

// Total sums the line total bounds.
func (s *CartSnapshot) Total() PriceRange {
	r := PriceRange{Min: decimal.Zero, Max: decimal.Zero}
	if s == nil {
		return r
	}
	for _, l := range s.Lines {
		lo, hi := l.TotalBounds()
		if !lo.Valid {
			r.Unpriced++
			continue
		}
		r.Min = r.Min.Add(lo.Decimal)
		r.Max = r.Max.Add(hi.Decimal)
	}
	return r
}

// SortLines orders lines by item id so repeated renders keep a stable order.
// Lines with a non-positive quantity are dropped; the backend deletes them.
func SortLines(lines []CartLine) []CartLine {
	out := make([]CartLine, 0, len(lines))
	for _, l := range lines {
		if l.Quantity > 0 {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

// SortHistory orders archived carts by UpdatedAt, newest first.
func SortHistory(carts []Cart) []Cart {
	out := append([]Cart(nil), carts...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// DefaultArchiveName generates "Cart <epoch millis>".
func DefaultArchiveName(now time.Time) string {
	return fmt.Sprintf("%s%d", archiveNamePrefix, now.UnixMilli())
}

// ResolveArchiveName returns name trimmed, or a generated default when it is
// empty or whitespace only.
func ResolveArchiveName(name string, now time.Time) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return DefaultArchiveName(now)
}
