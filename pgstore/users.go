package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/storyforge/authkit"
)

// Users implements authkit.UserDirectory on top of a users table with
// UNIQUE constraints on email and username.
type Users struct {
	db *sql.DB
}

// NewUsers wires the directory to an open database handle.
func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

const userColumns = `id, email, username, name, role, photo_url`

func (s *Users) scanUser(row *sql.Row) (*authkit.User, error) {
	u := &authkit.User{}
	var username, name, photoURL sql.NullString
	err := row.Scan(&u.ID, &u.Email, &username, &name, &u.Role, &photoURL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.Username = username.String
	u.Name = name.String
	u.PhotoURL = photoURL.String
	return u, nil
}

// FindUserByEmail returns (nil, nil) when no user has the email.
func (s *Users) FindUserByEmail(ctx context.Context, email string) (*authkit.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// FindUserByUsername returns (nil, nil) when no user has the username.
func (s *Users) FindUserByUsername(ctx context.Context, username string) (*authkit.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// FindUserByID returns (nil, nil) when the ID is unknown.
func (s *Users) FindUserByID(ctx context.Context, id string) (*authkit.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetPasswordHash fetches the stored password hash for id. Users created
// through an external provider have an empty hash.
func (s *Users) GetPasswordHash(ctx context.Context, id string) (string, error) {
	var hash sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE id = $1`, id,
	).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get password hash: %w", err)
	}
	return hash.String, nil
}

// CreateUser inserts a new user and returns it. A duplicate email raises
// authkit.ErrUserExists, a duplicate username authkit.ErrUsernameTaken.
func (s *Users) CreateUser(ctx context.Context, input authkit.CreateUserInput) (*authkit.User, error) {
	u := &authkit.User{
		ID:       uuid.NewString(),
		Email:    input.Email,
		Username: input.Username,
		Name:     input.Name,
		Role:     input.Role,
		PhotoURL: input.PhotoURL,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, username, name, role, photo_url, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`,
		u.ID, u.Email, nullable(u.Username), nullable(u.Name), u.Role,
		nullable(u.PhotoURL), nullable(input.PasswordHash),
	)
	if err != nil {
		return nil, insertUserError(err)
	}
	return u, nil
}

// insertUserError translates unique-constraint violations from the insert
// into the engine's duplicate sentinels, so races between the pre-insert
// checks and the insert itself still surface as the right error.
func insertUserError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		if pqErr.Constraint == "users_username_key" {
			return authkit.ErrUsernameTaken
		}
		return authkit.ErrUserExists
	}
	return fmt.Errorf("failed to create user: %w", err)
}

// UpdatePassword replaces the stored password hash for id.
func (s *Users) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, hash,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return authkit.ErrUserNotFound
	}
	return nil
}

// UpdateProfile applies the non-empty fields of patch to the user row.
func (s *Users) UpdateProfile(ctx context.Context, id string, patch authkit.ProfilePatch) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET
		   name = COALESCE(NULLIF($2, ''), name),
		   photo_url = COALESCE(NULLIF($3, ''), photo_url),
		   updated_at = NOW()
		 WHERE id = $1`,
		id, patch.Name, patch.PhotoURL,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return authkit.ErrUserNotFound
	}
	return nil
}

var _ authkit.UserDirectory = (*Users)(nil)
var _ authkit.SecurityProfileStore = (*SecurityProfiles)(nil)
var _ authkit.ProviderLinkRegistry = (*ProviderLinks)(nil)
