package pgstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/storyforge/authkit"
)

// SecurityProfiles persists per-user second-factor state.
type SecurityProfiles struct {
	db *sql.DB
}

// NewSecurityProfiles wires the store to an open database handle.
func NewSecurityProfiles(db *sql.DB) *SecurityProfiles {
	return &SecurityProfiles{db: db}
}

// Get loads the profile for userID. Returns (nil, nil) when the user has no
// profile yet.
func (s *SecurityProfiles) Get(ctx context.Context, userID string) (*authkit.SecurityProfile, error) {
	p := &authkit.SecurityProfile{}
	var secret, method, backupCodes, lastLoginIP sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, two_factor_enabled, secret, method, backup_codes, last_login_ip
		 FROM security_profiles
		 WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.TwoFactorEnabled, &secret, &method, &backupCodes, &lastLoginIP)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get security profile: %w", err)
	}

	p.Secret = secret.String
	p.Method = method.String
	p.BackupCodes = backupCodes.String
	p.LastLoginIP = lastLoginIP.String
	return p, nil
}

// Save writes the entire profile in one statement, creating the row when it
// does not exist. Second-factor fields therefore change together or not at
// all.
func (s *SecurityProfiles) Save(ctx context.Context, profile *authkit.SecurityProfile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO security_profiles (user_id, two_factor_enabled, secret, method, backup_codes, last_login_ip, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET
		   two_factor_enabled = EXCLUDED.two_factor_enabled,
		   secret = EXCLUDED.secret,
		   method = EXCLUDED.method,
		   backup_codes = EXCLUDED.backup_codes,
		   last_login_ip = EXCLUDED.last_login_ip,
		   updated_at = NOW()`,
		profile.UserID, profile.TwoFactorEnabled,
		nullable(profile.Secret), nullable(profile.Method),
		nullable(profile.BackupCodes), nullable(profile.LastLoginIP),
	)
	if err != nil {
		return fmt.Errorf("failed to save security profile: %w", err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
