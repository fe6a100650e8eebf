package storage

import (
	"context"
	"crypto/hmac"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nazrinhakim/notemap/internal/crypto"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 20
	minPasswordLen = 6
)

type accountRepository struct {
	db     *sql.DB
	digest crypto.Digest
}

func (r *accountRepository) Create(ctx context.Context, username, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return 0, &ValidationError{Field: "username", Reason: fmt.Sprintf("length must be between %d and %d characters", minUsernameLen, maxUsernameLen)}
	}
	if len(password) < minPasswordLen {
		return 0, &ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLen)}
	}

	hash := r.hashPassword(password)

	// Pre-check is an optimization only; the unique index decides races.
	var existing int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM accounts WHERE username = ?`, username).Scan(&existing)
	switch {
	case err == nil:
		return 0, fmt.Errorf("create account: %w", ErrDuplicateUsername)
	case errors.Is(err, sql.ErrNoRows):
	default:
		return 0, fmt.Errorf("create account: check username: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts(username, credential_hash, created_at)
		VALUES(?, ?, ?)
	`, username, hash, fmtTime(nowUTC()))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("create account: %w", ErrDuplicateUsername)
		}
		return 0, mapExecError("create account", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create account: last insert id: %w", err)
	}
	return id, nil
}

func (r *accountRepository) Authenticate(ctx context.Context, username, password string) (int64, error) {
	var (
		id     int64
		stored string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, credential_hash FROM accounts WHERE username = ?
	`, strings.TrimSpace(username)).Scan(&id, &stored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("authenticate: %w", &NotFoundError{Entity: "account"})
		}
		return 0, fmt.Errorf("authenticate: %w", err)
	}

	if !hmac.Equal([]byte(stored), []byte(r.hashPassword(password))) {
		return 0, fmt.Errorf("authenticate: %w", ErrInvalidCredential)
	}
	return id, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*Account, error) {
	var (
		account   Account
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, credential_hash, created_at FROM accounts WHERE id = ?
	`, id).Scan(&account.ID, &account.Username, &account.CredentialHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get account: %w", &NotFoundError{Entity: "account", ID: id})
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	account.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &account, nil
}

// Delete removes the account's notes, then its locations, then the account
// row, all in one transaction. Notes go first: a note may still reference a
// location that is about to be deleted, and this order stays correct even
// with declarative cascades disabled.
func (r *accountRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete account: begin tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE account_id = ?`, id); err != nil {
		_ = tx.Rollback()
		return mapExecError("delete account: delete notes", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM locations WHERE account_id = ?`, id); err != nil {
		_ = tx.Rollback()
		return mapExecError("delete account: delete locations", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		_ = tx.Rollback()
		return mapExecError("delete account", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete account: rows affected: %w", err)
	}
	if count == 0 {
		_ = tx.Rollback()
		return fmt.Errorf("delete account: %w", &NotFoundError{Entity: "account", ID: id})
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete account: commit: %w", err)
	}
	return nil
}

func (r *accountRepository) hashPassword(password string) string {
	buf := []byte(password)
	defer crypto.Wipe(buf)
	return hex.EncodeToString(r.digest(buf))
}
