package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/errors"
)

// ResultSource tags whether a store total is exactly what the backend
// computed or has been patched locally by substitutions.
type ResultSource string

const (
	SourceServerComputed ResultSource = "server_computed"
	SourceLocallyPatched ResultSource = "locally_patched"
)

// PricedLine is one cart item priced at one store. A null Price means the
// store does not carry the item, which is distinct from a price of zero.
type PricedLine struct {
	ItemID         string              `json:"item_id"`
	ItemName       string              `json:"item_name"`
	ImageURL       string              `json:"image_url,omitempty"`
	Price          decimal.NullDecimal `json:"price"`
	QuantityOfItem *int                `json:"quantity_of_item,omitempty"`
	FoundInStore   bool                `json:"found_in_store"`
	// SubstitutedFor is the cart item id a substituted line stands in for.
	SubstitutedFor string `json:"substituted_for,omitempty"`
}

// IsMissing reports whether the store does not stock the item.
func (l PricedLine) IsMissing() bool {
	return !l.Price.Valid
}

// Quantity returns QuantityOfItem, defaulting to 1 when absent.
func (l PricedLine) Quantity() int {
	if l.QuantityOfItem == nil {
		return 1
	}
	return *l.QuantityOfItem
}

// Substitution records one local patch applied to a store result.
type Substitution struct {
	OriginalItemID string          `json:"original_item_id"`
	ItemID         string          `json:"item_id"`
	ItemName       string          `json:"item_name"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity"`
	AppliedAt      time.Time       `json:"applied_at"`
}

// StoreResult is the priced breakdown of the cart at one store.
type StoreResult struct {
	Store         Store           `json:"store"`
	Items         []PricedLine    `json:"items"`
	CartPrice     decimal.Decimal `json:"cart_price"`
	Source        ResultSource    `json:"source"`
	Substitutions []Substitution  `json:"substitutions,omitempty"`
}

// MissingCount is the number of lines the store does not carry.
func (r *StoreResult) MissingCount() int {
	var n int
	for _, l := range r.Items {
		if l.IsMissing() {
			n++
		}
	}
	return n
}

// HasMissing reports whether any line is missing.
func (r *StoreResult) HasMissing() bool {
	return r.MissingCount() > 0
}

func (r *StoreResult) lineIndex(itemID string) int {
	for i, l := range r.Items {
		if l.ItemID == itemID {
			return i
		}
	}
	return -1
}

// AlternativeChoice is the candidate chosen to stand in for a missing line.
type AlternativeChoice struct {
	ItemID   string              `json:"item_id"`
	ItemName string              `json:"item_name"`
	Price    decimal.NullDecimal `json:"price"`
	ImageURL string              `json:"image_url,omitempty"`
}

// Substitute replaces the missing line missingItemID in place with choice and
// adds price times quantity to CartPrice. The quantity is carried over from
// the replaced line. The line count never changes and no other field of the
// result is recomputed.
func (r *StoreResult) Substitute(missingItemID string, choice AlternativeChoice, now time.Time) error {
	idx := r.lineIndex(missingItemID)
	if idx < 0 {
		return apperrors.NotFound("comparison line", missingItemID)
	}
	line := r.Items[idx]
	if !line.IsMissing() {
		return apperrors.Conflict("item " + missingItemID + " is already priced at this store")
	}
	if !choice.Price.Valid {
		return apperrors.InvalidInput("alternative has no price at this store")
	}
	if choice.Price.Decimal.IsNegative() {
		return apperrors.InvalidInput("alternative price must not be negative")
	}
	if choice.ItemID != missingItemID && r.lineIndex(choice.ItemID) >= 0 {
		return apperrors.Conflict("item " + choice.ItemID + " is already part of this store's result")
	}

	qty := line.Quantity()
	patched := PricedLine{
		ItemID:         choice.ItemID,
		ItemName:       choice.ItemName,
		ImageURL:       choice.ImageURL,
		Price:          choice.Price,
		QuantityOfItem: &qty,
		FoundInStore:   true,
		SubstitutedFor: missingItemID,
	}

	r.Items[idx] = patched
	r.CartPrice = r.CartPrice.Add(choice.Price.Decimal.Mul(decimal.NewFromInt(int64(qty))))
	r.Source = SourceLocallyPatched
	r.Substitutions = append(r.Substitutions, Substitution{
		OriginalItemID: missingItemID,
		ItemID:         choice.ItemID,
		ItemName:       choice.ItemName,
		Price:          choice.Price.Decimal,
		Quantity:       qty,
		AppliedAt:      now,
	})
	return nil
}

// ComparisonResult is the full set of store results for one comparison. It
// replaces any previous result in full.
type ComparisonResult struct {
	ID         uuid.UUID     `json:"id"`
	UserID     int64         `json:"user_id"`
	CartID     int64         `json:"cart_id"`
	StoreIDs   []int64       `json:"store_ids"`
	Results    []StoreResult `json:"results"`
	ComparedAt time.Time     `json:"compared_at"`
}

// NewComparisonResult stamps backend results as server computed.
func NewComparisonResult(userID, cartID int64, storeIDs []int64, results []StoreResult, now time.Time) *ComparisonResult {
	for i := range results {
		results[i].Source = SourceServerComputed
		if results[i].Items == nil {
			results[i].Items = []PricedLine{}
		}
	}
	if results == nil {
		results = []StoreResult{}
	}
	return &ComparisonResult{
		ID:         uuid.New(),
		UserID:     userID,
		CartID:     cartID,
		StoreIDs:   append([]int64{}, storeIDs...),
		Results:    results,
		ComparedAt: now,
	}
}

// StoreResult returns a pointer to the result for storeID, or nil.
func (c *ComparisonResult) StoreResult(storeID int64) *StoreResult {
	for i := range c.Results {
		if c.Results[i].Store.ID == storeID {
			return &c.Results[i]
		}
	}
	return nil
}

// Substitute patches one store's result. Other stores are left untouched.
func (c *ComparisonResult) Substitute(storeID int64, missingItemID string, choice AlternativeChoice, now time.Time) (*StoreResult, error) {
	r := c.StoreResult(storeID)
	if r == nil {
		return nil, apperrors.NotFound("store result", formatID(storeID))
	}
	if err := r.Substitute(missingItemID, choice, now); err != nil {
		return nil, err
	}
	return r, nil
}

// Alternative is a candidate item offered by a store for a missing line.
// LowestPrice is the price at the queried store and may be null.
type Alternative struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	LowestPrice        decimal.NullDecimal `json:"lowest_price"`
	HighestPrice       decimal.NullDecimal `json:"highest_price"`
	ImageURL           string              `json:"image_url,omitempty"`
	ManufacturerName   string              `json:"manufacturer_name,omitempty"`
	ManufactureCountry string              `json:"manufacture_country,omitempty"`
	UnitQty            string              `json:"unit_qty,omitempty"`
	Quantity           decimal.NullDecimal `json:"quantity"`
	IsWeighted         bool                `json:"is_weighted"`
}

// Choice converts an alternative into the substitution input.
func (a Alternative) Choice() AlternativeChoice {
	return AlternativeChoice{
		ItemID:   a.ID,
		ItemName: a.Name,
		Price:    a.LowestPrice,
		ImageURL: a.ImageURL,
	}
}
