package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
)

func pageQuery(page, size int) url.Values {
	return url.Values{
		"page": {strconv.Itoa(page)},
		"size": {strconv.Itoa(size)},
	}
}

// Stores returns one zero-based page of all stores.
func (c *Client) Stores(ctx context.Context, page, size int) ([]domain.Store, error) {
	return c.stores(ctx, "/api/stores/all", pageQuery(page, size))
}

// SearchStores returns one page of stores matching q, picking the city, chain
// or combined endpoint from the fields that are set.
func (c *Client) SearchStores(ctx context.Context, q domain.StoreQuery, page, size int) ([]domain.Store, error) {
	params := pageQuery(page, size)
	var path string
	switch {
	case q.City != "" && q.Chain != "":
		path = "/api/stores/by-city-and-chain"
		params.Set("city", q.City)
		params.Set("chainName", q.Chain)
	case q.City != "":
		path = "/api/stores/by-city"
		params.Set("city", q.City)
	case q.Chain != "":
		path = "/api/stores/by-chain"
		params.Set("chainName", q.Chain)
	default:
		return c.Stores(ctx, page, size)
	}
	return c.stores(ctx, path, params)
}

func (c *Client) stores(ctx context.Context, path string, q url.Values) ([]domain.Store, error) {
	var dtos []storeDTO
	if err := c.do(ctx, http.MethodGet, path, q, nil, &dtos); err != nil {
		return nil, err
	}
	return storesToDomain(dtos), nil
}
