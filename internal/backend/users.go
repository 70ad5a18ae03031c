package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
)

// Login authenticates against the backend and returns the identity carried by
// the issued session number.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	q := url.Values{"email": {email}, "password": {password}}

	var dto userSummaryDTO
	if err := c.do(ctx, http.MethodPost, "/api/users/login", q, nil, &dto); err != nil {
		return nil, err
	}

	userID, ok := dto.normalizedID()
	if !ok {
		return nil, fmt.Errorf("decode login response: no user id")
	}
	if dto.SessionNumber == "" {
		return nil, fmt.Errorf("decode login response: no session number")
	}

	return &domain.Identity{
		SessionToken: string(dto.SessionNumber),
		UserID:       userID,
		Username:     dto.Username,
		Email:        dto.Email,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Logout revokes a session number on the backend.
func (c *Client) Logout(ctx context.Context, sessionToken string) error {
	return c.do(ctx, http.MethodPost, "/api/users/logout", url.Values{"session": {sessionToken}}, nil, nil)
}
