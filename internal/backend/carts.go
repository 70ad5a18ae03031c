package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
)

// ActiveCartID returns the user's active cart id. The backend creates an
// active cart when the user has none.
func (c *Client) ActiveCartID(ctx context.Context, userID int64) (int64, error) {
	var id int64
	if err := c.do(ctx, http.MethodGet, idPath("/api/shopping-carts/active/%s", userID), nil, nil, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// ActiveCartItems returns the lines of the user's active cart.
func (c *Client) ActiveCartItems(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	return c.cartItems(ctx, idPath("/api/cart-items/user/%s", userID))
}

// CartItems returns the lines of any cart, typically an archived one.
func (c *Client) CartItems(ctx context.Context, cartID int64) ([]domain.CartLine, error) {
	return c.cartItems(ctx, idPath("/api/cart-items/cart/%s", cartID))
}

func (c *Client) cartItems(ctx context.Context, path string) ([]domain.CartLine, error) {
	var dtos []cartItemDTO
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &dtos); err != nil {
		return nil, err
	}
	lines := make([]domain.CartLine, 0, len(dtos))
	for _, d := range dtos {
		lines = append(lines, d.toDomain())
	}
	return lines, nil
}

// AddItem adds quantity units of itemID to the cart.
func (c *Client) AddItem(ctx context.Context, cartID int64, itemID string, quantity int) error {
	q := url.Values{"quantity": {strconv.Itoa(quantity)}}
	return c.do(ctx, http.MethodPost, idPath("/api/cart-items/%s/items/%s", cartID, itemID), q, nil, nil)
}

// RemoveItem removes quantity units of itemID. The backend deletes the line
// once its quantity drops to zero.
func (c *Client) RemoveItem(ctx context.Context, cartID int64, itemID string, quantity int) error {
	q := url.Values{"quantity": {strconv.Itoa(quantity)}}
	return c.do(ctx, http.MethodDelete, idPath("/api/cart-items/%s/items/%s", cartID, itemID), q, nil, nil)
}

// ArchiveCart archives the cart under name. Older backends answer with a bare
// confirmation string instead of the cart, in which case the cart is built
// from the request.
func (c *Client) ArchiveCart(ctx context.Context, cartID int64, name string) (domain.Cart, error) {
	q := url.Values{
		"cartId":   {strconv.FormatInt(cartID, 10)},
		"cartName": {name},
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPut, "/api/shopping-carts/archive", q, nil, &raw); err != nil {
		return domain.Cart{}, err
	}

	archived := domain.Cart{ID: cartID, Name: name, Status: domain.CartStatusArchived}
	var dto cartDTO
	if json.Unmarshal(raw, &dto) == nil && dto.ID != 0 {
		archived = dto.toDomain(domain.CartStatusArchived)
		if archived.Name == "" {
			archived.Name = name
		}
	}
	return archived, nil
}

// ActivateCart makes an archived cart the user's active cart. Whatever cart
// was active before is discarded by the backend.
func (c *Client) ActivateCart(ctx context.Context, cartID int64) error {
	return c.do(ctx, http.MethodPut, idPath("/api/shopping-carts/%s/activate", cartID), nil, nil, nil)
}

// DeleteCart deletes a cart with all its lines.
func (c *Client) DeleteCart(ctx context.Context, cartID int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/shopping-carts/%s", cartID), nil, nil, nil)
}

// CartHistory returns the user's archived carts in backend order.
func (c *Client) CartHistory(ctx context.Context, userID int64) ([]domain.Cart, error) {
	var dtos []cartDTO
	if err := c.do(ctx, http.MethodGet, idPath("/api/shopping-carts/history/%s", userID), nil, nil, &dtos); err != nil {
		return nil, err
	}
	carts := make([]domain.Cart, 0, len(dtos))
	for _, d := range dtos {
		cart := d.toDomain(domain.CartStatusArchived)
		cart.UserID = userID
		carts = append(carts, cart)
	}
	return carts, nil
}
