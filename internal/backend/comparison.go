package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
)

// Compare prices the cart at each store. The backend validates the cart and
// the store list; no checks are repeated here.
func (c *Client) Compare(ctx context.Context, userID, cartID int64, storeIDs []int64) ([]domain.StoreResult, error) {
	req := comparisonRequestDTO{UserID: userID, CartID: cartID, StoreIDs: storeIDs}
	if req.StoreIDs == nil {
		req.StoreIDs = []int64{}
	}

	var dtos []comparisonResultDTO
	if err := c.do(ctx, http.MethodPost, "/api/itemPrice/compare", nil, req, &dtos); err != nil {
		return nil, err
	}

	results := make([]domain.StoreResult, 0, len(dtos))
	for _, d := range dtos {
		results = append(results, d.toDomain())
	}
	return results, nil
}

// Alternatives lists items the store offers in place of itemID. Prices are
// those of the queried store and may be null.
func (c *Client) Alternatives(ctx context.Context, storeID int64, itemID string) ([]domain.Alternative, error) {
	q := url.Values{
		"storeId": {strconv.FormatInt(storeID, 10)},
		"itemId":  {itemID},
	}

	var dtos []itemDTO
	if err := c.do(ctx, http.MethodGet, "/api/item/alternatives", q, nil, &dtos); err != nil {
		return nil, err
	}

	alts := make([]domain.Alternative, 0, len(dtos))
	for _, d := range dtos {
		alts = append(alts, d.toDomain())
	}
	return alts, nil
}
