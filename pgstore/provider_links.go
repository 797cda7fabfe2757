package pgstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// ProviderLinks records which external provider accounts map to which local
// users. The table carries a UNIQUE(user_id, provider) constraint, so each
// user holds at most one link per provider and EnsureLinked is safe to call
// on every login.
type ProviderLinks struct {
	db *sql.DB
}

// NewProviderLinks wires the registry to an open database handle.
func NewProviderLinks(db *sql.DB) *ProviderLinks {
	return &ProviderLinks{db: db}
}

// EnsureLinked inserts the (user_id, provider) -> provider account mapping if
// the user has no link for that provider yet. Re-linking is a no-op.
func (r *ProviderLinks) EnsureLinked(ctx context.Context, userID, provider, providerUserID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO provider_links (id, user_id, provider, provider_user_id, created_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (user_id, provider) DO NOTHING`,
		uuid.NewString(), userID, provider, providerUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to link provider account: %w", err)
	}
	return nil
}

// FindUserID resolves a provider account to a local user ID. Returns empty
// string when no link exists.
func (r *ProviderLinks) FindUserID(ctx context.Context, provider, providerUserID string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM provider_links
		 WHERE provider = $1 AND provider_user_id = $2`,
		provider, providerUserID,
	).Scan(&userID)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find provider link: %w", err)
	}
	return userID, nil
}
