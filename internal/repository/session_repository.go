package repository

import (
	"context"
	"database/sql"
	"time"
)

// SessionRepo persists and validates staff refresh-token sessions. Only
// the SHA-256 hash of a token is stored in the sessoes table.
type SessionRepo struct{ db *sql.DB }

// NewSessionRepo constructs a SessionRepo with the provided DB handle.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// Store inserts a refresh-token hash for an employee.
func (r *SessionRepo) Store(ctx context.Context, employeeID, tokenHash string, exp time.Time) error {
	const q = `INSERT INTO sessoes (funcionario_id, token_hash, expires_at) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, employeeID, tokenHash, exp)
	return err
}

// Validate returns the employee id when a non-revoked, non-expired
// session exists for the hash; sql.ErrNoRows otherwise.
func (r *SessionRepo) Validate(ctx context.Context, tokenHash string) (string, error) {
	const q = `SELECT funcionario_id, expires_at, revoked_at FROM sessoes WHERE token_hash = ? LIMIT 1`
	var (
		employeeID string
		expiresAt  time.Time
		revokedAt  sql.NullTime
	)
	if err := r.db.QueryRowContext(ctx, q, tokenHash).Scan(&employeeID, &expiresAt, &revokedAt); err != nil {
		return "", err
	}
	if revokedAt.Valid {
		return "", sql.ErrNoRows
	}
	if time.Now().UTC().After(expiresAt) {
		return "", sql.ErrNoRows
	}
	return employeeID, nil
}

// Revoke marks one session as revoked.
func (r *SessionRepo) Revoke(ctx context.Context, tokenHash string) error {
	const q = `UPDATE sessoes SET revoked_at = NOW() WHERE token_hash = ? AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, tokenHash)
	return err
}

// RevokeAllForEmployee revokes every active session of one employee.
func (r *SessionRepo) RevokeAllForEmployee(ctx context.Context, employeeID string) error {
	const q = `UPDATE sessoes SET revoked_at = NOW() WHERE funcionario_id = ? AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, employeeID)
	return err
}
