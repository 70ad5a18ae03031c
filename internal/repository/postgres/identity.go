package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/database"
	apperrors "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/errors"
)

// IdentityRepository implements repository.IdentityRepository using PostgreSQL.
type IdentityRepository struct {
	db database.DBTX
}

// NewIdentityRepository creates a new PostgreSQL-backed identity repository.
func NewIdentityRepository(db database.DBTX) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// GetByToken returns the identity issued for a session token.
func (r *IdentityRepository) GetByToken(ctx context.Context, token string) (identity *domain.Identity, err error) {
	query := `
		SELECT session_token, user_id, username, email, created_at
		FROM identities
		WHERE session_token = $1`

	ctx, end := database.TraceQuery(ctx, "GetIdentity", query)
	defer func() { end(err) }()

	var id domain.Identity
	err = r.db.QueryRow(ctx, query, token).Scan(
		&id.SessionToken, &id.UserID, &id.Username, &id.Email, &id.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Unauthorized("session is not recognised")
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return &id, nil
}

// Save stores an identity. Logging in again with the same token refreshes it.
func (r *IdentityRepository) Save(ctx context.Context, identity *domain.Identity) (err error) {
	query := `
		INSERT INTO identities (session_token, user_id, username, email, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_token) DO UPDATE
		SET user_id = EXCLUDED.user_id,
		    username = EXCLUDED.username,
		    email = EXCLUDED.email`

	ctx, end := database.TraceQuery(ctx, "SaveIdentity", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		identity.SessionToken, identity.UserID, identity.Username, identity.Email, identity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

// Delete revokes a session token. Deleting an unknown token is not an error.
func (r *IdentityRepository) Delete(ctx context.Context, token string) (err error) {
	query := `DELETE FROM identities WHERE session_token = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteIdentity", query)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, query, token); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return nil
}
